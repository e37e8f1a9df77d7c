package point

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"milpoint/pkg/db/option"
	"milpoint/pkg/db/pagination"
	"milpoint/pkg/errutil"
	"milpoint/pkg/repository"
	"milpoint/services/soldier"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Directory resolves actors. Implemented by the soldier service; tests
// substitute a fake.
type Directory interface {
	CurrentSoldier(ctx context.Context) (*soldier.Soldier, error)
	FetchSoldier(ctx context.Context, sn string) (*soldier.Soldier, error)
}

// Service is the point ledger and approval engine: it validates award
// requests, routes them to the right approver class, records decisions and
// gates redemption against the approved balance.
type Service struct {
	db        *gorm.DB
	directory Directory

	points    repository.Repository[Point]
	used      repository.Repository[UsedPoint]
	templates repository.Repository[PointTemplate]
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Directory Directory
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		directory: p.Directory,

		points:    repository.ProvideStore[Point](p.DB),
		used:      repository.ProvideStore[UsedPoint](p.DB),
		templates: repository.ProvideStore[PointTemplate](p.DB),
	}
}

func logWithTrace(ctx context.Context) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	return zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)
}

// storeErr passes domain errors through and wraps everything else as the
// generic persistence failure.
func storeErr(ctx context.Context, err error) error {
	var be errutil.BaseError
	if errors.As(err, &be) {
		return err
	}
	logWithTrace(ctx).Error("store operation failed", zap.Error(err))
	return errutil.Internal("unknown error", errutil.WithErr(err))
}

// checkInteger rejects fractional values. Value arrives as a JSON number, so
// integer-ness is a validation rule rather than a type guarantee.
func checkInteger(value float64) (int64, error) {
	if value != math.Trunc(value) || math.Abs(value) > math.MaxInt32 {
		return 0, errutil.ValidationFailed("points must be a whole number")
	}
	return int64(value), nil
}

type CreateRequest struct {
	Value float64
	// GiverID names the peer approver when an enlisted soldier requests a
	// point; ReceiverID names the target when cadre issue one.
	GiverID       string
	ReceiverID    string
	Reason        string
	GivenAt       time.Time
	CommanderRole string
}

// CreatePoint validates and records a new award request in pending state.
func (s *Service) CreatePoint(ctx context.Context, req CreateRequest) error {
	if strings.TrimSpace(req.Reason) == "" {
		return errutil.ValidationFailed("enter a reason for the award")
	}

	value, err := checkInteger(req.Value)
	if err != nil {
		return err
	}
	if value == 0 {
		return errutil.ValidationFailed("points must be at least 1 or at most -1")
	}

	current, err := s.directory.CurrentSoldier(ctx)
	if err != nil {
		return err
	}

	targetID := req.ReceiverID
	if current.Type == soldier.Enlisted {
		targetID = req.GiverID
	}
	if targetID == "" {
		return errutil.ValidationFailed("enter a target")
	}

	target, err := s.directory.FetchSoldier(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return errutil.NotFound("target does not exist")
	}

	if current.Type == soldier.Enlisted {
		return s.createPeerRequest(ctx, current, target, value, req)
	}
	return s.createCommanderAward(ctx, current, target, value, req)
}

// createPeerRequest: an enlisted soldier requests a point from a cadre
// member, who must approve it personally.
func (s *Service) createPeerRequest(ctx context.Context, current, giver *soldier.Soldier, value int64, req CreateRequest) error {
	if giver.SN == current.SN {
		return errutil.BadRequest("you cannot award points to yourself")
	}

	record := &Point{
		GivenAt:    datatypes.Date(req.GivenAt),
		GiverID:    giver.SN,
		ReceiverID: current.SN,
		Reason:     req.Reason,
		Value:      value,
	}
	if err := s.points.Create(ctx, record); err != nil {
		return storeErr(ctx, err)
	}
	return nil
}

// createCommanderAward: a cadre member issues a point, deferred to the
// chosen commander role for final sign-off.
func (s *Service) createCommanderAward(ctx context.Context, current, receiver *soldier.Soldier, value int64, req CreateRequest) error {
	if err := soldier.CheckPointLimit(value, current.Permissions); err != nil {
		return err
	}

	if req.CommanderRole == "" {
		return errutil.ValidationFailed("choose the commander to approve this award")
	}
	if !soldier.IsCommanderRole(soldier.Permission(req.CommanderRole)) {
		return errutil.ValidationFailed("choose a valid commander role")
	}

	role := req.CommanderRole
	record := &Point{
		GivenAt:       datatypes.Date(req.GivenAt),
		GiverID:       current.SN,
		ReceiverID:    receiver.SN,
		Reason:        req.Reason,
		Value:         value,
		CommanderRole: &role,
	}
	if err := s.points.Create(ctx, record); err != nil {
		return storeErr(ctx, err)
	}
	return nil
}

var pendingOnly = []option.QueryOption{
	option.ApplyOperator(option.Condition{Field: "verified_at", Operator: option.IsNull}),
	option.ApplyOperator(option.Condition{Field: "rejected_at", Operator: option.IsNull}),
	option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
}

// FetchPendingPoints lists undecided records visible to the current actor.
// Precedence is strict: Admin sees everything, commanders see their roles'
// queue, everyone else sees peer requests addressed to them.
func (s *Service) FetchPendingPoints(ctx context.Context) ([]*Point, error) {
	current, err := s.directory.CurrentSoldier(ctx)
	if err != nil {
		return nil, err
	}

	if current.Has(soldier.Admin) {
		records, err := s.points.Find(ctx, &Point{}, pendingOnly...)
		if err != nil {
			return nil, storeErr(ctx, err)
		}
		return records, nil
	}

	if roles := current.CommanderRoles(); len(roles) > 0 {
		names := make([]string, 0, len(roles))
		for _, role := range roles {
			names = append(names, string(role))
		}
		opts := append([]option.QueryOption{
			option.ApplyOperator(option.Condition{Field: "commander_role", Operator: option.In, Value: names}),
		}, pendingOnly...)
		records, err := s.points.Find(ctx, &Point{}, opts...)
		if err != nil {
			return nil, storeErr(ctx, err)
		}
		return records, nil
	}

	opts := append([]option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "commander_role", Operator: option.IsNull}),
	}, pendingOnly...)
	records, err := s.points.Find(ctx, &Point{GiverID: current.SN}, opts...)
	if err != nil {
		return nil, storeErr(ctx, err)
	}
	return records, nil
}

// VerifyPoint approves or rejects a pending record. The state transition is
// a single conditional update keyed on the record still being pending, so a
// concurrent second decision affects zero rows and surfaces as a conflict.
func (s *Service) VerifyPoint(ctx context.Context, id int64, approve bool, rejectReason string) error {
	var (
		record  *Point
		current *soldier.Soldier
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if record, err = s.points.FindOne(gctx, &Point{ID: id}); err != nil {
			return storeErr(gctx, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		current, err = s.directory.CurrentSoldier(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if record == nil {
		return errutil.NotFound("point record does not exist")
	}
	if current.Type == soldier.Enlisted {
		return errutil.Forbidden("enlisted soldiers cannot approve or reject point records")
	}
	if !approve && strings.TrimSpace(rejectReason) == "" {
		return errutil.ValidationFailed("enter a reason for the rejection")
	}

	switch record.Mode() {
	case ApprovalCommander:
		if !current.Has(soldier.Permission(*record.CommanderRole)) {
			return errutil.Forbidden("you are not authorized to approve this point record")
		}
		// The magnitude cap was checked when the cadre member issued the
		// award; the commander only signs off.
	case ApprovalPeer:
		if record.GiverID != current.SN {
			return errutil.Forbidden("you can only decide point records requested of you")
		}
		if approve {
			// Re-check the cap against current permissions in case they were
			// downgraded after the request was made.
			if err := soldier.CheckPointLimit(record.Value, current.Permissions); err != nil {
				return err
			}
		}
	}

	now := time.Now()
	updates := map[string]any{}
	if approve {
		updates["verified_at"] = now
	} else {
		updates["rejected_at"] = now
		updates["rejected_reason"] = rejectReason
	}

	res := s.db.WithContext(ctx).Model(&Point{}).
		Where("id = ? AND verified_at IS NULL AND rejected_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return storeErr(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return errutil.Conflict("point record was already approved or rejected")
	}

	return nil
}

// DeletePoint withdraws a pending request. Only the enlisted receiver of a
// fully untouched record may delete it.
func (s *Service) DeletePoint(ctx context.Context, id int64) error {
	current, err := s.directory.CurrentSoldier(ctx)
	if err != nil {
		return err
	}
	if current.Type != soldier.Enlisted {
		return errutil.Forbidden("cadre cannot delete point records")
	}

	record, err := s.points.FindOne(ctx, &Point{ID: id})
	if err != nil {
		return storeErr(ctx, err)
	}
	if record == nil {
		return errutil.NotFound("point record does not exist")
	}
	if record.ReceiverID != current.SN {
		return errutil.Forbidden("you can only delete your own point records")
	}
	if record.VerifiedAt != nil || record.RejectedAt != nil || record.RejectedReason != nil {
		return errutil.Conflict("approved or rejected point records cannot be deleted")
	}

	if err := s.points.Delete(ctx, id); err != nil {
		return storeErr(ctx, err)
	}
	return nil
}

type RedeemRequest struct {
	Value  float64
	UserID string
	Reason string
}

// RedeemPoint debits a soldier's approved balance. The balance check and the
// insert run in one transaction with the target soldier's row locked, so two
// concurrent redemptions for the same user serialize.
func (s *Service) RedeemPoint(ctx context.Context, req RedeemRequest) error {
	if strings.TrimSpace(req.Reason) == "" {
		return errutil.ValidationFailed("enter a reason for using the points")
	}

	value, err := checkInteger(req.Value)
	if err != nil {
		return err
	}
	if value <= 0 {
		return errutil.ValidationFailed("points must be at least 1")
	}

	current, err := s.directory.CurrentSoldier(ctx)
	if err != nil {
		return err
	}
	if current.Type == soldier.Enlisted {
		return errutil.Forbidden("enlisted soldiers cannot redeem points")
	}
	if req.UserID == "" {
		return errutil.ValidationFailed("enter a target")
	}

	target, err := s.directory.FetchSoldier(ctx, req.UserID)
	if err != nil {
		return err
	}
	if target == nil {
		return errutil.NotFound("target does not exist")
	}

	if !soldier.HasPermission(current.Permissions, []soldier.Permission{soldier.Admin, soldier.PointAdmin, soldier.UsePoint}) {
		return errutil.Forbidden("you are not authorized to redeem points")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the target's soldier row as the per-user serialization point.
		var locked soldier.Soldier
		if err := tx.Scopes(option.LockingUpdate).Where("sn = ?", req.UserID).First(&locked).Error; err != nil {
			return err
		}

		var earned, redeemed int64
		if err := tx.Model(&Point{}).
			Where("receiver_id = ? AND verified_at IS NOT NULL", req.UserID).
			Select("COALESCE(SUM(value), 0)").
			Scan(&earned).Error; err != nil {
			return err
		}
		if err := tx.Model(&UsedPoint{}).
			Where("user_id = ?", req.UserID).
			Select("COALESCE(SUM(value), 0)").
			Scan(&redeemed).Error; err != nil {
			return err
		}

		if earned-redeemed < value {
			return errutil.Conflict("not enough points")
		}

		return tx.Create(&UsedPoint{
			UserID:     req.UserID,
			RecordedBy: current.SN,
			Reason:     req.Reason,
			Value:      value,
		}).Error
	})
	if err != nil {
		return storeErr(ctx, err)
	}

	return nil
}

// FetchPointSummary computes a soldier's approved merit, approved demerit
// magnitude and redeemed total. The three aggregates are independent and run
// concurrently.
func (s *Service) FetchPointSummary(ctx context.Context, sn string) (*Summary, error) {
	var merit, demerit, usedMerit int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&Point{}).
			Where("receiver_id = ? AND value > 0 AND verified_at IS NOT NULL", sn).
			Select("COALESCE(SUM(value), 0)").
			Scan(&merit).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&Point{}).
			Where("receiver_id = ? AND value < 0 AND verified_at IS NOT NULL", sn).
			Select("COALESCE(SUM(value), 0)").
			Scan(&demerit).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&UsedPoint{}).
			Where("user_id = ? AND value > 0", sn).
			Select("COALESCE(SUM(value), 0)").
			Scan(&usedMerit).Error
	})
	if err := g.Wait(); err != nil {
		return nil, storeErr(ctx, err)
	}

	return &Summary{
		Merit:     merit,
		Demerit:   -demerit,
		UsedMerit: usedMerit,
	}, nil
}

// ListPoints pages through a soldier's history: records they received for
// enlisted soldiers, records they gave for cadre. Enlisted listings carry
// the redemption history as well.
func (s *Service) ListPoints(ctx context.Context, sn string, page int) (*Listing, error) {
	sol, err := s.directory.FetchSoldier(ctx, sn)
	if err != nil {
		return nil, err
	}
	if sol == nil {
		return nil, errutil.NotFound("target does not exist")
	}

	scope := &Point{GiverID: sn}
	if sol.Type == soldier.Enlisted {
		scope = &Point{ReceiverID: sn}
	}

	listing := &Listing{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listing.Data, err = s.points.Find(gctx, scope,
			option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
			option.ApplyPagination(pagination.Pagination{Page: page, Limit: pagination.DefaultLimit}),
		)
		return err
	})
	g.Go(func() error {
		var err error
		listing.Count, err = s.points.Count(gctx, scope)
		return err
	})
	if sol.Type == soldier.Enlisted {
		g.Go(func() error {
			var err error
			listing.UsedPoints, err = s.used.Find(gctx, &UsedPoint{UserID: sn},
				option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}),
			)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeErr(ctx, err)
	}

	return listing, nil
}

// FetchPoint loads one record with the giver's and receiver's names.
func (s *Service) FetchPoint(ctx context.Context, id int64) (*PointDetail, error) {
	record, err := s.points.FindOne(ctx, &Point{ID: id})
	if err != nil {
		return nil, storeErr(ctx, err)
	}
	if record == nil {
		return nil, errutil.NotFound("point record does not exist")
	}

	detail := &PointDetail{Point: *record}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		giver, err := s.directory.FetchSoldier(gctx, record.GiverID)
		if err != nil {
			return err
		}
		if giver != nil {
			detail.GiverName = giver.Name
		}
		return nil
	})
	g.Go(func() error {
		receiver, err := s.directory.FetchSoldier(gctx, record.ReceiverID)
		if err != nil {
			return err
		}
		if receiver != nil {
			detail.ReceiverName = receiver.Name
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return detail, nil
}

// ListPointTemplates returns the static award catalogue.
func (s *Service) ListPointTemplates(ctx context.Context) ([]*PointTemplate, error) {
	templates, err := s.templates.Find(ctx, &PointTemplate{})
	if err != nil {
		return nil, storeErr(ctx, err)
	}
	return templates, nil
}
