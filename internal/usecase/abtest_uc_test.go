//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
	"adtopia/internal/usecase"
)

func newABTestUC(repo *MockABTestRepo, limiter *MockLimiter) usecase.ABTestUseCase {
	return usecase.NewABTestUseCase(repo, NewMockTxManager(), limiter, 3, newTestLogger())
}

func runningTest(t *testing.T, uc usecase.ABTestUseCase) *model.ABTest {
	t.Helper()
	ctx := context.Background()
	test, err := uc.Create(ctx, "hero-"+uuid.NewString()[:6], "hero copy", []model.Variant{{Key: "control", Weight: 1}, {Key: "bold", Weight: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	test, err = uc.SetStatus(ctx, test.ID, model.ABTestRunning)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return test
}

func TestABTestUseCase_CreateAndStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("validates variants", func(t *testing.T) {
		uc := newABTestUC(NewMockABTestRepo(), NewMockLimiter())
		cases := map[string][]model.Variant{
			"single variant": {{Key: "a", Weight: 1}},
			"duplicate keys": {{Key: "a", Weight: 1}, {Key: "a", Weight: 2}},
			"zero weight":    {{Key: "a", Weight: 1}, {Key: "b", Weight: 0}},
			"empty key":      {{Key: "a", Weight: 1}, {Key: " ", Weight: 1}},
		}
		for name, variants := range cases {
			t.Run(name, func(t *testing.T) {
				if _, err := uc.Create(ctx, "t", "", variants); !errors.Is(err, domain.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
			})
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		uc := newABTestUC(NewMockABTestRepo(), NewMockLimiter())
		variants := []model.Variant{{Key: "a", Weight: 1}, {Key: "b", Weight: 1}}
		if _, err := uc.Create(ctx, "pricing", "", variants); err != nil {
			t.Fatal(err)
		}
		if _, err := uc.Create(ctx, "pricing", "", variants); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("enforces the transition table", func(t *testing.T) {
		uc := newABTestUC(NewMockABTestRepo(), NewMockLimiter())
		test, _ := uc.Create(ctx, "flow", "", []model.Variant{{Key: "a", Weight: 1}, {Key: "b", Weight: 1}})

		if _, err := uc.SetStatus(ctx, test.ID, model.ABTestPaused); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("draft -> paused: expected ErrConflict, got %v", err)
		}
		for _, next := range []model.ABTestStatus{model.ABTestRunning, model.ABTestPaused, model.ABTestRunning, model.ABTestCompleted} {
			if _, err := uc.SetStatus(ctx, test.ID, next); err != nil {
				t.Fatalf("-> %s: %v", next, err)
			}
		}
		got, _ := uc.Get(ctx, test.ID)
		if got.EndedAt == nil {
			t.Error("completing must set EndedAt")
		}
		if _, err := uc.SetStatus(ctx, test.ID, model.ABTestRunning); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("completed is terminal, got %v", err)
		}
		if _, err := uc.SetStatus(ctx, test.ID, "archived"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("unknown status: got %v", err)
		}
	})
}

func TestABTestUseCase_Assign(t *testing.T) {
	ctx := context.Background()

	t.Run("assignment is deterministic and sticky", func(t *testing.T) {
		repo := NewMockABTestRepo()
		uc := newABTestUC(repo, NewMockLimiter())
		test := runningTest(t, uc)

		first, err := uc.Assign(ctx, test.ID, "visitor-42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.VariantKey != test.Pick("visitor-42") {
			t.Errorf("variant %q does not match the hash pick", first.VariantKey)
		}
		for i := 0; i < 5; i++ {
			again, err := uc.Assign(ctx, test.ID, "visitor-42")
			if err != nil || again.VariantKey != first.VariantKey {
				t.Fatalf("assignment changed: %v %v", again, err)
			}
		}
	})

	t.Run("spreads visitors over both variants", func(t *testing.T) {
		uc := newABTestUC(NewMockABTestRepo(), NewMockLimiter())
		test := runningTest(t, uc)
		seen := map[string]int{}
		for i := 0; i < 400; i++ {
			a, err := uc.Assign(ctx, test.ID, fmt.Sprintf("v-%d", i))
			if err != nil {
				t.Fatal(err)
			}
			seen[a.VariantKey]++
		}
		if seen["control"] < 120 || seen["bold"] < 120 {
			t.Errorf("skewed split: %v", seen)
		}
	})

	t.Run("draft test is not running", func(t *testing.T) {
		uc := newABTestUC(NewMockABTestRepo(), NewMockLimiter())
		test, _ := uc.Create(ctx, "draft", "", []model.Variant{{Key: "a", Weight: 1}, {Key: "b", Weight: 1}})
		if _, err := uc.Assign(ctx, test.ID, "v"); !errors.Is(err, domain.ErrTestNotRunning) {
			t.Fatalf("expected ErrTestNotRunning, got %v", err)
		}
	})

	t.Run("blank visitor", func(t *testing.T) {
		uc := newABTestUC(NewMockABTestRepo(), NewMockLimiter())
		if _, err := uc.Assign(ctx, uuid.NewString(), " "); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestABTestUseCase_TrackConversion(t *testing.T) {
	ctx := context.Background()

	t.Run("records against the assigned variant until rate limited", func(t *testing.T) {
		repo := NewMockABTestRepo()
		uc := newABTestUC(repo, NewMockLimiter())
		test := runningTest(t, uc)
		a, _ := uc.Assign(ctx, test.ID, "visitor-1")

		in := model.ConversionInput{TestID: test.ID, VisitorID: "visitor-1", EventName: "signup"}
		for i := 0; i < 3; i++ {
			c, err := uc.TrackConversion(ctx, in)
			if err != nil {
				t.Fatalf("conversion %d: %v", i, err)
			}
			if c.VariantKey != a.VariantKey {
				t.Errorf("variant = %s, want %s", c.VariantKey, a.VariantKey)
			}
		}
		if _, err := uc.TrackConversion(ctx, in); !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
		if len(repo.Conversions) != 3 {
			t.Errorf("expected 3 stored conversions, got %d", len(repo.Conversions))
		}
	})

	t.Run("unassigned visitor", func(t *testing.T) {
		uc := newABTestUC(NewMockABTestRepo(), NewMockLimiter())
		test := runningTest(t, uc)
		_, err := uc.TrackConversion(ctx, model.ConversionInput{TestID: test.ID, VisitorID: "stranger", EventName: "signup"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("limiter outage fails open", func(t *testing.T) {
		limiter := NewMockLimiter()
		uc := newABTestUC(NewMockABTestRepo(), limiter)
		test := runningTest(t, uc)
		_, _ = uc.Assign(ctx, test.ID, "v")
		limiter.Err = errors.New("redis down")

		if _, err := uc.TrackConversion(ctx, model.ConversionInput{TestID: test.ID, VisitorID: "v", EventName: "signup"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("negative value", func(t *testing.T) {
		uc := newABTestUC(NewMockABTestRepo(), NewMockLimiter())
		_, err := uc.TrackConversion(ctx, model.ConversionInput{TestID: uuid.NewString(), VisitorID: "v", EventName: "x", ValueCents: -1})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestABTestUseCase_Analytics(t *testing.T) {
	ctx := context.Background()
	repo := NewMockABTestRepo()
	uc := newABTestUC(repo, NewMockLimiter())
	test := runningTest(t, uc)

	repo.VariantCountsFunc = func(ctx context.Context, tx repository.Tx, testID string) ([]model.VariantCounts, error) {
		return []model.VariantCounts{
			{VariantKey: "bold", Visitors: 1000, Converted: 150, RevenueCents: 30000},
			{VariantKey: "control", Visitors: 1000, Converted: 100, RevenueCents: 20000},
		}, nil
	}

	got, err := uc.Analytics(ctx, test.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Variants) != 2 || got.Variants[0].VariantKey != "control" {
		t.Fatalf("variants must follow the definition order: %+v", got.Variants)
	}
	bold := got.Variants[1]
	if bold.ConversionRate != 0.15 {
		t.Errorf("rate = %v", bold.ConversionRate)
	}
	if bold.Lift < 0.49 || bold.Lift > 0.51 {
		t.Errorf("lift = %v, want ~0.5", bold.Lift)
	}
	if !bold.Significant || bold.ZScore < 3 {
		t.Errorf("expected a significant z-score, got %+v", bold)
	}
	if got.Winner != "bold" {
		t.Errorf("winner = %q", got.Winner)
	}
}
