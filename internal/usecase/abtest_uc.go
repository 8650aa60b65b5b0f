package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/domain/ports/repository"
	"adtopia/internal/infra/metrics"
)

// significanceZ is the two-sided 95% critical value.
const significanceZ = 1.96

const maxVisitorIDLen = 128

// Compile-time check
var _ ABTestUseCase = (*abTestUC)(nil)

type ABTestUseCase interface {
	Create(ctx context.Context, name, description string, variants []model.Variant) (*model.ABTest, error)
	List(ctx context.Context) ([]*model.ABTest, error)
	Get(ctx context.Context, id string) (*model.ABTest, error)
	SetStatus(ctx context.Context, id string, status model.ABTestStatus) (*model.ABTest, error)
	// Assign returns the visitor's sticky variant, assigning one on first sight.
	Assign(ctx context.Context, testID, visitorID string) (*model.Assignment, error)
	TrackConversion(ctx context.Context, in model.ConversionInput) (*model.Conversion, error)
	Analytics(ctx context.Context, testID string) (*model.TestAnalytics, error)
}

type abTestUC struct {
	tests     repository.ABTestRepository
	tm        repository.TransactionManager
	limiter   adapter.RateLimiter
	perMinute int
	log       *zerolog.Logger
}

func NewABTestUseCase(
	tests repository.ABTestRepository,
	tm repository.TransactionManager,
	limiter adapter.RateLimiter,
	conversionsPerMinute int,
	logger *zerolog.Logger,
) *abTestUC {
	if conversionsPerMinute <= 0 {
		conversionsPerMinute = 60
	}
	return &abTestUC{tests: tests, tm: tm, limiter: limiter, perMinute: conversionsPerMinute, log: logger}
}

func (u *abTestUC) Create(ctx context.Context, name, description string, variants []model.Variant) (*model.ABTest, error) {
	t, err := model.NewABTest(uuid.NewString(), name, description, variants)
	if err != nil {
		return nil, err
	}
	if err := u.tests.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	u.log.Info().Str("test_id", t.ID).Str("name", t.Name).Int("variants", len(t.Variants)).Msg("ab test created")
	return t, nil
}

func (u *abTestUC) List(ctx context.Context) ([]*model.ABTest, error) {
	return u.tests.List(ctx, repository.NoTX)
}

func (u *abTestUC) Get(ctx context.Context, id string) (*model.ABTest, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	return u.tests.FindByID(ctx, repository.NoTX, id)
}

func (u *abTestUC) SetStatus(ctx context.Context, id string, status model.ABTestStatus) (*model.ABTest, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	var out *model.ABTest
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		t, err := u.tests.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !t.Status.CanMoveTo(status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrConflict, t.Status, status)
		}
		now := time.Now().UTC()
		t.Status = status
		t.UpdatedAt = now
		if status == model.ABTestCompleted {
			t.EndedAt = &now
		}
		if err := u.tests.UpdateStatus(ctx, tx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("test_id", id).Str("status", string(status)).Msg("ab test status changed")
	return out, nil
}

func (u *abTestUC) Assign(ctx context.Context, testID, visitorID string) (*model.Assignment, error) {
	visitorID, err := cleanVisitorID(visitorID)
	if err != nil {
		return nil, err
	}
	t, err := u.Get(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.ABTestRunning {
		return nil, domain.ErrTestNotRunning
	}
	a, err := u.tests.Assign(ctx, repository.NoTX, &model.Assignment{
		TestID:     t.ID,
		VisitorID:  visitorID,
		VariantKey: t.Pick(visitorID),
		AssignedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	metrics.IncABAssignment()
	return a, nil
}

func (u *abTestUC) TrackConversion(ctx context.Context, in model.ConversionInput) (*model.Conversion, error) {
	visitorID, err := cleanVisitorID(in.VisitorID)
	if err != nil {
		return nil, err
	}
	event := strings.TrimSpace(in.EventName)
	if event == "" || in.ValueCents < 0 {
		return nil, domain.ErrInvalidArgument
	}

	ok, err := u.limiter.Allow(ctx, conversionKey(in.TestID, visitorID), u.perMinute, time.Minute)
	if err != nil {
		// fail open
		u.log.Warn().Err(err).Msg("conversion rate limiter unavailable")
	} else if !ok {
		return nil, domain.ErrRateLimited
	}

	t, err := u.Get(ctx, in.TestID)
	if err != nil {
		return nil, err
	}
	if t.Status == model.ABTestDraft {
		return nil, domain.ErrTestNotRunning
	}
	a, err := u.tests.FindAssignment(ctx, repository.NoTX, t.ID, visitorID)
	if err != nil {
		return nil, err
	}
	c := &model.Conversion{
		ID:         uuid.NewString(),
		TestID:     t.ID,
		VariantKey: a.VariantKey,
		VisitorID:  visitorID,
		EventName:  event,
		ValueCents: in.ValueCents,
		CreatedAt:  time.Now().UTC(),
	}
	if err := u.tests.SaveConversion(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	metrics.IncABConversion(event)
	return c, nil
}

func (u *abTestUC) Analytics(ctx context.Context, testID string) (*model.TestAnalytics, error) {
	t, err := u.Get(ctx, testID)
	if err != nil {
		return nil, err
	}
	counts, err := u.tests.VariantCounts(ctx, repository.NoTX, t.ID)
	if err != nil {
		return nil, err
	}
	stats, winner := variantStats(t.Variants, counts)
	return &model.TestAnalytics{
		TestID:   t.ID,
		Name:     t.Name,
		Status:   t.Status,
		Variants: stats,
		Winner:   winner,
	}, nil
}

// variantStats orders the stats like the test definition, compares every arm
// against the first (control) with a two-proportion z-test, and picks the
// significant arm with the highest positive lift as the winner. Lift is
// undefined against a control with no conversions, so such tests have no winner.
func variantStats(variants []model.Variant, counts []model.VariantCounts) ([]model.VariantStats, string) {
	byKey := make(map[string]model.VariantCounts, len(counts))
	for _, c := range counts {
		byKey[c.VariantKey] = c
	}
	out := make([]model.VariantStats, 0, len(variants))
	for _, v := range variants {
		c := byKey[v.Key]
		s := model.VariantStats{
			VariantKey:   v.Key,
			Visitors:     c.Visitors,
			Conversions:  c.Converted,
			RevenueCents: c.RevenueCents,
		}
		if c.Visitors > 0 {
			s.ConversionRate = float64(c.Converted) / float64(c.Visitors)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return out, ""
	}

	control := out[0]
	winner, best := "", 0.0
	for i := 1; i < len(out); i++ {
		s := &out[i]
		if control.ConversionRate > 0 {
			s.Lift = (s.ConversionRate - control.ConversionRate) / control.ConversionRate
		}
		s.ZScore = zScore(control.Conversions, control.Visitors, s.Conversions, s.Visitors)
		s.Significant = math.Abs(s.ZScore) >= significanceZ
		if s.Significant && s.Lift > best {
			winner, best = s.VariantKey, s.Lift
		}
	}
	return out, winner
}

// zScore is the pooled two-proportion z statistic of b against a.
func zScore(convA, nA, convB, nB int64) float64 {
	if nA == 0 || nB == 0 {
		return 0
	}
	pA := float64(convA) / float64(nA)
	pB := float64(convB) / float64(nB)
	pooled := float64(convA+convB) / float64(nA+nB)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(nA) + 1/float64(nB)))
	if se == 0 {
		return 0
	}
	return (pB - pA) / se
}

func cleanVisitorID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxVisitorIDLen {
		return "", fmt.Errorf("%w: visitor id", domain.ErrInvalidArgument)
	}
	return id, nil
}

func conversionKey(testID, visitorID string) string {
	return "ratelimit:conversion:" + testID + ":" + visitorID
}
