//go:build !integration

package usecase

import (
	"math"
	"testing"

	"adtopia/internal/domain/model"
)

func TestVariantStats(t *testing.T) {
	variants := []model.Variant{{Key: "a", Weight: 1}, {Key: "b", Weight: 1}, {Key: "c", Weight: 1}}

	t.Run("no data", func(t *testing.T) {
		stats, winner := variantStats(variants, nil)
		if len(stats) != 3 || winner != "" {
			t.Fatalf("stats=%v winner=%q", stats, winner)
		}
		for _, s := range stats {
			if s.ZScore != 0 || s.Significant || s.ConversionRate != 0 {
				t.Errorf("unexpected stats for empty data: %+v", s)
			}
		}
	})

	t.Run("small difference is not significant", func(t *testing.T) {
		stats, winner := variantStats(variants, []model.VariantCounts{
			{VariantKey: "a", Visitors: 100, Converted: 10},
			{VariantKey: "b", Visitors: 100, Converted: 12},
		})
		if stats[1].Significant || winner != "" {
			t.Errorf("b should not win: %+v winner=%q", stats[1], winner)
		}
		if stats[2].Visitors != 0 {
			t.Errorf("c has no data: %+v", stats[2])
		}
	})

	t.Run("significantly worse variant never wins", func(t *testing.T) {
		stats, winner := variantStats(variants, []model.VariantCounts{
			{VariantKey: "a", Visitors: 1000, Converted: 200},
			{VariantKey: "b", Visitors: 1000, Converted: 100},
		})
		if !stats[1].Significant || stats[1].ZScore >= 0 || winner != "" {
			t.Errorf("stats=%+v winner=%q", stats[1], winner)
		}
	})

	t.Run("best of several significant variants wins", func(t *testing.T) {
		_, winner := variantStats(variants, []model.VariantCounts{
			{VariantKey: "a", Visitors: 1000, Converted: 100},
			{VariantKey: "b", Visitors: 1000, Converted: 160},
			{VariantKey: "c", Visitors: 1000, Converted: 200},
		})
		if winner != "c" {
			t.Errorf("winner = %q, want c", winner)
		}
	})
	t.Run("control without conversions has no winner", func(t *testing.T) {
		stats, winner := variantStats(variants, []model.VariantCounts{
			{VariantKey: "a", Visitors: 1000, Converted: 0},
			{VariantKey: "b", Visitors: 1000, Converted: 50},
		})
		if !stats[1].Significant {
			t.Fatalf("b should be significant: %+v", stats[1])
		}
		if stats[1].Lift != 0 || winner != "" {
			t.Errorf("lift=%v winner=%q, want 0 and no winner", stats[1].Lift, winner)
		}
	})
}

func TestZScore(t *testing.T) {
	// 10% vs 15% over 1000 visitors each: pooled p=0.125, se≈0.01479, z≈3.38
	z := zScore(100, 1000, 150, 1000)
	if math.Abs(z-3.38) > 0.01 {
		t.Errorf("z = %.4f, want ~3.38", z)
	}
	if zScore(0, 0, 5, 10) != 0 {
		t.Error("empty control must yield 0")
	}
	if zScore(0, 10, 0, 10) != 0 {
		t.Error("zero variance must yield 0")
	}
}
