package soldier

import (
	"net/http"
	"strings"

	"milpoint/pkg/config"
	"milpoint/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware extracts the session token from the Authorization header or
// the session cookie and threads it through the request context. Resolution
// to an actor happens lazily in the engine, so unauthenticated requests only
// fail once they reach an operation that needs an actor.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		} else if cookie, err := c.Cookie(cfg.Session.CookieName); err == nil {
			token = cookie
		}

		if token != "" {
			c.Request = c.Request.WithContext(WithToken(c.Request.Context(), token))
		}

		c.Next()
	}
}

type loginRequest struct {
	SN       string `json:"sn" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRoutes mounts the auth and directory endpoints.
func RegisterRoutes(r *gin.Engine, svc *Service, cfg *config.Config) {
	h := &handler{svc: svc, cfg: cfg}

	auth := r.Group("/api/auth", AuthMiddleware(cfg))
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)

	soldiers := r.Group("/api/soldiers", AuthMiddleware(cfg))
	soldiers.GET("/me", h.me)
	soldiers.GET("/:sn", h.fetch)
}

type handler struct {
	svc *Service
	cfg *config.Config
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.ValidationFailed("enter your service number and password"))
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.SN, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.SetCookie(h.cfg.Session.CookieName, token, int(h.cfg.Session.TTL.Seconds()), "/", "", h.cfg.TLS.Enable, true)
	c.JSON(http.StatusOK, gin.H{"message": nil, "token": token})
}

func (h *handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}

	c.SetCookie(h.cfg.Session.CookieName, "", -1, "/", "", h.cfg.TLS.Enable, true)
	c.JSON(http.StatusOK, gin.H{"message": nil})
}

func (h *handler) me(c *gin.Context) {
	sol, err := h.svc.CurrentSoldier(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil, "data": sol})
}

func (h *handler) fetch(c *gin.Context) {
	sol, err := h.svc.FetchSoldier(c.Request.Context(), c.Param("sn"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if sol == nil {
		_ = c.Error(errutil.NotFound("target does not exist"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": nil, "data": sol})
}
