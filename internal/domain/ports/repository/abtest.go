package repository

import (
	"context"

	"adtopia/internal/domain/model"
)

type ABTestRepository interface {
	Save(ctx context.Context, tx Tx, t *model.ABTest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ABTest, error)
	List(ctx context.Context, tx Tx) ([]*model.ABTest, error)
	UpdateStatus(ctx context.Context, tx Tx, t *model.ABTest) error

	// Assign stores the assignment unless one exists and returns the stored one.
	Assign(ctx context.Context, tx Tx, a *model.Assignment) (*model.Assignment, error)
	FindAssignment(ctx context.Context, tx Tx, testID, visitorID string) (*model.Assignment, error)

	SaveConversion(ctx context.Context, tx Tx, c *model.Conversion) error
	VariantCounts(ctx context.Context, tx Tx, testID string) ([]model.VariantCounts, error)
}
