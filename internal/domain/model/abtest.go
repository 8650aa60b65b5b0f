package model

import (
	"hash/fnv"
	"strings"
	"time"

	"adtopia/internal/domain"
)

type ABTestStatus string

const (
	ABTestDraft     ABTestStatus = "draft"
	ABTestRunning   ABTestStatus = "running"
	ABTestPaused    ABTestStatus = "paused"
	ABTestCompleted ABTestStatus = "completed"
)

func (s ABTestStatus) Valid() bool {
	switch s {
	case ABTestDraft, ABTestRunning, ABTestPaused, ABTestCompleted:
		return true
	}
	return false
}

// CanMoveTo reports whether a test in status s may be moved to next.
// Completed is terminal.
func (s ABTestStatus) CanMoveTo(next ABTestStatus) bool {
	switch s {
	case ABTestDraft:
		return next == ABTestRunning
	case ABTestRunning:
		return next == ABTestPaused || next == ABTestCompleted
	case ABTestPaused:
		return next == ABTestRunning || next == ABTestCompleted
	}
	return false
}

// MaxVariantWeight bounds a single weight so the total always fits the bucket math.
const MaxVariantWeight = 10000

// Variant is one arm of an experiment. The first variant is the control.
type Variant struct {
	Key    string `json:"key"`
	Weight int    `json:"weight"`
}

type ABTest struct {
	ID          string
	Name        string
	Description string
	Status      ABTestStatus
	Variants    []Variant
	CreatedAt   time.Time
	UpdatedAt   time.Time
	EndedAt     *time.Time
}

// NewABTest validates the definition and returns a draft test.
func NewABTest(id, name, description string, variants []Variant) (*ABTest, error) {
	name = strings.TrimSpace(name)
	if id == "" || name == "" || len(variants) < 2 {
		return nil, domain.ErrInvalidArgument
	}
	seen := make(map[string]struct{}, len(variants))
	cleaned := make([]Variant, 0, len(variants))
	for _, v := range variants {
		key := strings.TrimSpace(v.Key)
		if key == "" || v.Weight < 1 || v.Weight > MaxVariantWeight {
			return nil, domain.ErrInvalidArgument
		}
		if _, dup := seen[key]; dup {
			return nil, domain.ErrInvalidArgument
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, Variant{Key: key, Weight: v.Weight})
	}
	now := time.Now().UTC()
	return &ABTest{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(description),
		Status:      ABTestDraft,
		Variants:    cleaned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Pick deterministically maps a visitor onto a variant using the weights.
// The same (test, visitor) pair always yields the same key.
func (t *ABTest) Pick(visitorID string) string {
	total := 0
	for _, v := range t.Variants {
		total += v.Weight
	}
	if total == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(t.ID + ":" + visitorID))
	// multiply-shift uses the well-mixed high bits of the hash
	bucket := int((uint64(h.Sum32()) * uint64(total)) >> 32)
	for _, v := range t.Variants {
		if bucket < v.Weight {
			return v.Key
		}
		bucket -= v.Weight
	}
	return t.Variants[len(t.Variants)-1].Key
}

func (t *ABTest) HasVariant(key string) bool {
	for _, v := range t.Variants {
		if v.Key == key {
			return true
		}
	}
	return false
}

type Assignment struct {
	TestID     string    `json:"test_id"`
	VisitorID  string    `json:"visitor_id"`
	VariantKey string    `json:"variant"`
	AssignedAt time.Time `json:"assigned_at"`
}

type Conversion struct {
	ID         string
	TestID     string
	VariantKey string
	VisitorID  string
	EventName  string
	ValueCents int64
	CreatedAt  time.Time
}

// ConversionInput is what a tracking pixel or the webhook reports.
type ConversionInput struct {
	TestID     string
	VisitorID  string
	EventName  string
	ValueCents int64
}

// VariantCounts is the raw per-variant aggregate read from storage.
type VariantCounts struct {
	VariantKey   string
	Visitors     int64
	Converted    int64 // distinct converting visitors
	RevenueCents int64
}

type VariantStats struct {
	VariantKey     string  `json:"variant"`
	Visitors       int64   `json:"visitors"`
	Conversions    int64   `json:"conversions"`
	RevenueCents   int64   `json:"revenue_cents"`
	ConversionRate float64 `json:"conversion_rate"`
	Lift           float64 `json:"lift"`
	ZScore         float64 `json:"z_score"`
	Significant    bool    `json:"significant"`
}

type TestAnalytics struct {
	TestID   string         `json:"test_id"`
	Name     string         `json:"name"`
	Status   ABTestStatus   `json:"status"`
	Variants []VariantStats `json:"variants"`
	Winner   string         `json:"winner,omitempty"`
}
