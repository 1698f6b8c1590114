package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"authbridge/internal/auth/models"
	"authbridge/internal/auth/provider"
	"authbridge/internal/platform/metrics"
)

const tracerName = "authbridge/internal/auth/service"

// Service is the call-site facing facade. It forwards every contract call to
// the adapter resolved at construction and returns results and errors
// unchanged; instrumentation never alters them.
type Service struct {
	provider provider.Provider
	name     provider.Name
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

var _ provider.Provider = (*Service)(nil)

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// New resolves name in registry and builds the facade around it.
func New(registry *provider.Registry, name provider.Name, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("provider registry is required")
	}
	p, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	s := &Service{
		provider: p,
		name:     name,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Name() provider.Name { return s.name }

func (s *Service) Initialize(ctx context.Context) error {
	return s.observe(ctx, provider.OpInitialize, func(ctx context.Context) error {
		return s.provider.Initialize(ctx)
	})
}

func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	var user *models.User
	err := s.observe(ctx, provider.OpCurrentUser, func(ctx context.Context) error {
		var err error
		user, err = s.provider.CurrentUser(ctx)
		return err
	})
	return user, err
}

func (s *Service) CreateUser(ctx context.Context, email, password string) (*models.User, error) {
	var user *models.User
	err := s.observe(ctx, provider.OpCreateUser, func(ctx context.Context) error {
		var err error
		user, err = s.provider.CreateUser(ctx, email, password)
		return err
	})
	if err == nil && s.metrics != nil {
		s.metrics.IncrementUsersCreated(string(s.name))
	}
	return user, err
}

func (s *Service) EmailVerification(ctx context.Context) error {
	return s.observe(ctx, provider.OpEmailVerification, s.provider.EmailVerification)
}

func (s *Service) LogIn(ctx context.Context, email, password string) (*models.User, error) {
	var user *models.User
	err := s.observe(ctx, provider.OpLogIn, func(ctx context.Context) error {
		var err error
		user, err = s.provider.LogIn(ctx, email, password)
		return err
	})
	return user, err
}

func (s *Service) LogOut(ctx context.Context) error {
	return s.observe(ctx, provider.OpLogOut, s.provider.LogOut)
}

func (s *Service) PasswordReset(ctx context.Context, email string) error {
	return s.observe(ctx, provider.OpPasswordReset, func(ctx context.Context) error {
		return s.provider.PasswordReset(ctx, email)
	})
}

// observe wraps one forwarded call in a span, a log line and metrics.
func (s *Service) observe(ctx context.Context, op string, call func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "auth."+op, trace.WithAttributes(
		attribute.String("auth.provider", string(s.name)),
		attribute.String("auth.operation", op),
	))
	defer span.End()

	start := time.Now()
	err := call(ctx)
	outcome := outcomeOf(err)

	if s.metrics != nil {
		s.metrics.ObserveOperation(string(s.name), op, outcome, start)
	}
	if err != nil {
		span.SetAttributes(attribute.String("auth.outcome", outcome))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.WarnContext(ctx, "auth operation failed",
			"provider", s.name,
			"operation", op,
			"outcome", outcome,
			"error", err,
		)
		return err
	}
	s.logger.DebugContext(ctx, "auth operation succeeded",
		"provider", s.name,
		"operation", op,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case provider.IsUnimplemented(err):
		return "unimplemented"
	default:
		return string(provider.KindOf(err))
	}
}
