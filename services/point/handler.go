package point

import (
	"net/http"
	"strconv"
	"time"

	"milpoint/pkg/config"
	"milpoint/pkg/errutil"
	"milpoint/services/soldier"

	"github.com/gin-gonic/gin"
)

const givenAtLayout = "2006-01-02"

type createRequest struct {
	Value         *float64 `json:"value" binding:"required"`
	GiverID       string   `json:"giver_id"`
	ReceiverID    string   `json:"receiver_id"`
	Reason        string   `json:"reason"`
	GivenAt       string   `json:"given_at" binding:"required"`
	CommanderRole string   `json:"commander_role"`
}

type verifyRequest struct {
	Approve      *bool  `json:"approve" binding:"required"`
	RejectReason string `json:"reject_reason"`
}

type redeemRequest struct {
	Value  *float64 `json:"value" binding:"required"`
	UserID string   `json:"user_id"`
	Reason string   `json:"reason"`
}

// RegisterRoutes mounts the point ledger endpoints.
func RegisterRoutes(r *gin.Engine, svc *Service, cfg *config.Config) {
	h := &handler{svc: svc}

	points := r.Group("/api/points", soldier.AuthMiddleware(cfg))
	points.POST("", h.create)
	points.GET("", h.list)
	points.GET("/pending", h.pending)
	points.GET("/summary/:sn", h.summary)
	points.GET("/:id", h.fetch)
	points.POST("/:id/verify", h.verify)
	points.DELETE("/:id", h.delete)
	points.POST("/redeem", h.redeem)

	templates := r.Group("/api/point-templates", soldier.AuthMiddleware(cfg))
	templates.GET("", h.listTemplates)
}

type handler struct {
	svc *Service
}

func (h *handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid request body"))
		return
	}

	givenAt, err := time.Parse(givenAtLayout, req.GivenAt)
	if err != nil {
		_ = c.Error(errutil.ValidationFailed("enter a valid award date"))
		return
	}

	if err := h.svc.CreatePoint(c.Request.Context(), CreateRequest{
		Value:         *req.Value,
		GiverID:       req.GiverID,
		ReceiverID:    req.ReceiverID,
		Reason:        req.Reason,
		GivenAt:       givenAt,
		CommanderRole: req.CommanderRole,
	}); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil})
}

func (h *handler) list(c *gin.Context) {
	sn := c.Query("sn")
	if sn == "" {
		_ = c.Error(errutil.ValidationFailed("enter a target"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))

	listing, err := h.svc.ListPoints(c.Request.Context(), sn, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil, "data": listing})
}

func (h *handler) pending(c *gin.Context) {
	records, err := h.svc.FetchPendingPoints(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil, "data": records})
}

func (h *handler) summary(c *gin.Context) {
	summary, err := h.svc.FetchPointSummary(c.Request.Context(), c.Param("sn"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil, "data": summary})
}

func (h *handler) fetch(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid point id"))
		return
	}

	detail, err := h.svc.FetchPoint(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil, "data": detail})
}

func (h *handler) verify(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid point id"))
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid request body"))
		return
	}

	if err := h.svc.VerifyPoint(c.Request.Context(), id, *req.Approve, req.RejectReason); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil})
}

func (h *handler) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid point id"))
		return
	}

	if err := h.svc.DeletePoint(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil})
}

func (h *handler) redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid request body"))
		return
	}

	if err := h.svc.RedeemPoint(c.Request.Context(), RedeemRequest{
		Value:  *req.Value,
		UserID: req.UserID,
		Reason: req.Reason,
	}); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil})
}

func (h *handler) listTemplates(c *gin.Context) {
	templates, err := h.svc.ListPointTemplates(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil, "data": templates})
}
