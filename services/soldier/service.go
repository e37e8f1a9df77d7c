package soldier

import (
	"context"

	"milpoint/pkg/config"
	"milpoint/pkg/db/option"
	"milpoint/pkg/errutil"
	"milpoint/pkg/repository"
	"milpoint/pkg/util"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service is the actor directory: it resolves the current soldier from the
// session token in the context and looks up soldiers by service number.
type Service struct {
	db       *gorm.DB
	config   *config.Config
	sessions SessionStore

	soldiers    repository.Repository[Soldier]
	permissions repository.Repository[PermissionRow]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Config   *config.Config
	Sessions SessionStore
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		config:   p.Config,
		sessions: p.Sessions,

		soldiers:    repository.ProvideStore[Soldier](p.DB),
		permissions: repository.ProvideStore[PermissionRow](p.DB),
	}
}

func logWithTrace(ctx context.Context) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	return zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)
}

// Login verifies credentials and mints a session token.
func (s *Service) Login(ctx context.Context, sn, password string) (string, error) {
	zapLog := logWithTrace(ctx)

	if sn == "" || password == "" {
		return "", errutil.ValidationFailed("enter your service number and password")
	}

	sol, err := s.soldiers.FindOne(ctx, &Soldier{SN: sn},
		option.ApplyOperator(option.Condition{Field: "deleted_at", Operator: option.IsNull}),
	)
	if err != nil {
		zapLog.Error("failed to query soldier", zap.Error(err))
		return "", errutil.Internal("unknown error", errutil.WithErr(err))
	}
	if sol == nil {
		return "", errutil.Unauthorized("incorrect service number or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(sol.Password), []byte(password)); err != nil {
		return "", errutil.Unauthorized("incorrect service number or password")
	}

	token := util.GenerateSessionToken()
	if err := s.sessions.Set(ctx, token, sn, s.config.Session.TTL); err != nil {
		zapLog.Error("failed to store session", zap.Error(err))
		return "", errutil.Internal("unknown error", errutil.WithErr(err))
	}

	return token, nil
}

// Logout discards the session carried by the context.
func (s *Service) Logout(ctx context.Context) error {
	token := TokenFromContext(ctx)
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		logWithTrace(ctx).Error("failed to delete session", zap.Error(err))
		return errutil.Internal("unknown error", errutil.WithErr(err))
	}
	return nil
}

// CurrentSoldier resolves the actor behind the request, permissions included.
func (s *Service) CurrentSoldier(ctx context.Context) (*Soldier, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return nil, errutil.Unauthorized("please sign in and retry")
	}

	sn, err := s.sessions.Get(ctx, token)
	if err != nil {
		logWithTrace(ctx).Error("failed to read session", zap.Error(err))
		return nil, errutil.Internal("unknown error", errutil.WithErr(err))
	}
	if sn == "" {
		return nil, errutil.Unauthorized("session expired, please sign in again")
	}

	sol, err := s.FetchSoldier(ctx, sn)
	if err != nil {
		return nil, err
	}
	if sol == nil {
		return nil, errutil.Unauthorized("session expired, please sign in again")
	}

	return sol, nil
}

// FetchSoldier returns the soldier with the given service number, or nil when
// absent or soft-deleted.
func (s *Service) FetchSoldier(ctx context.Context, sn string) (*Soldier, error) {
	sol, err := s.soldiers.FindOne(ctx, &Soldier{SN: sn},
		option.ApplyOperator(option.Condition{Field: "deleted_at", Operator: option.IsNull}),
	)
	if err != nil {
		logWithTrace(ctx).Error("failed to query soldier", zap.String("sn", sn), zap.Error(err))
		return nil, errutil.Internal("unknown error", errutil.WithErr(err))
	}
	if sol == nil {
		return nil, nil
	}

	rows, err := s.permissions.Find(ctx, &PermissionRow{SoldiersID: sn})
	if err != nil {
		logWithTrace(ctx).Error("failed to query permissions", zap.String("sn", sn), zap.Error(err))
		return nil, errutil.Internal("unknown error", errutil.WithErr(err))
	}

	sol.Permissions = make([]Permission, 0, len(rows))
	for _, row := range rows {
		sol.Permissions = append(sol.Permissions, Permission(row.Value))
	}

	return sol, nil
}
