package repository

import (
	"context"

	"adtopia/internal/domain/model"
)

type AdminUserRepository interface {
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.AdminUser, error)
	List(ctx context.Context, tx Tx) ([]*model.AdminUser, error)
	// Upsert grants or changes a role keyed by user_id.
	Upsert(ctx context.Context, tx Tx, u *model.AdminUser) error
	Delete(ctx context.Context, tx Tx, userID string) error
	CountByRole(ctx context.Context, tx Tx, role model.Role) (int, error)
}
