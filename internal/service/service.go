package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/report"
	"galaxyinn/backend/internal/store"
	"galaxyinn/backend/internal/validate"
)

var (
	ErrForbidden          = errors.New("admin role required")
	ErrInvalidCredentials = errors.New("invalid username or pin")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// TaxRatePercent is the share of the total amount reported as tax. Zero means 16.
	TaxRatePercent decimal.Decimal
	TopN           int
	// Location decides which calendar day a sale belongs to. Nil means UTC.
	Location       *time.Location
	Now            func() time.Time
}

type Service struct {
	repo    *store.Repository
	taxRate decimal.Decimal
	topN    int
	loc     *time.Location
	now     func() time.Time
}

func New(repo *store.Repository, opts Options) *Service {
	if opts.TaxRatePercent.IsZero() {
		opts.TaxRatePercent = decimal.NewFromInt(16)
	}
	if opts.TopN < 1 {
		opts.TopN = report.DefaultTopN
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	clock, loc := opts.Now, opts.Location

	return &Service{
		repo:    repo,
		taxRate: opts.TaxRatePercent.Div(decimal.NewFromInt(100)),
		topN:    opts.TopN,
		loc:     loc,
		now:     func() time.Time { return clock().In(loc) },
	}
}

func requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Actor{}, ErrForbidden
	}
	return actor, nil
}

func checkInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", store.ErrNotFound, fmt.Sprintf(format, args...))
}

func nextIntID[T any](items []T, id func(T) int) int {
	next := 1
	for _, item := range items {
		if v := id(item); v >= next {
			next = v + 1
		}
	}
	return next
}
