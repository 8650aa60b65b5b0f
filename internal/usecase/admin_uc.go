package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

type AdminUseCase interface {
	// Authorize resolves the admin row for a verified user id and checks its rank.
	Authorize(ctx context.Context, userID string, required model.Role) (*model.AdminUser, error)
	List(ctx context.Context) ([]*model.AdminUser, error)
	Grant(ctx context.Context, actor *model.AdminUser, email, userID string, role model.Role) (*model.AdminUser, error)
	Revoke(ctx context.Context, actor *model.AdminUser, userID string) error
}

type adminUC struct {
	admins repository.AdminUserRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewAdminUseCase(admins repository.AdminUserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *adminUC {
	return &adminUC{admins: admins, tm: tm, log: logger}
}

// role changes read-check-write the super_admin count
var serializable = pgx.TxOptions{IsoLevel: pgx.Serializable}

func (u *adminUC) Authorize(ctx context.Context, userID string, required model.Role) (*model.AdminUser, error) {
	if !isUUID(userID) {
		return nil, domain.ErrUnauthorized
	}
	a, err := u.admins.FindByUserID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, notFoundAs(err, domain.ErrForbidden)
	}
	if !a.Role.Allows(required) {
		return nil, domain.ErrForbidden
	}
	return a, nil
}

func (u *adminUC) List(ctx context.Context) ([]*model.AdminUser, error) {
	return u.admins.List(ctx, repository.NoTX)
}

func (u *adminUC) Grant(ctx context.Context, actor *model.AdminUser, email, userID string, role model.Role) (*model.AdminUser, error) {
	if actor == nil || !actor.Role.Allows(model.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !role.Valid() || !isUUID(userID) || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	if role == model.RoleSuperAdmin && actor.Role != model.RoleSuperAdmin {
		return nil, domain.ErrForbidden
	}

	var out *model.AdminUser
	err := u.tm.WithTx(ctx, serializable, func(ctx context.Context, tx repository.Tx) error {
		existing, err := u.admins.FindByUserID(ctx, tx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Role == model.RoleSuperAdmin && role != model.RoleSuperAdmin {
			if actor.Role != model.RoleSuperAdmin {
				return domain.ErrForbidden
			}
			if err := u.ensureAnotherSuperAdmin(ctx, tx); err != nil {
				return err
			}
		}
		a := &model.AdminUser{ID: uuid.NewString(), UserID: userID, Email: email, Role: role, CreatedAt: time.Now().UTC()}
		if existing != nil {
			a.ID, a.CreatedAt = existing.ID, existing.CreatedAt
		}
		if err := u.admins.Upsert(ctx, tx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("actor", actor.UserID).Str("user_id", userID).Str("role", string(role)).Msg("admin role granted")
	return out, nil
}

func (u *adminUC) Revoke(ctx context.Context, actor *model.AdminUser, userID string) error {
	if actor == nil || !actor.Role.Allows(model.RoleAdmin) {
		return domain.ErrForbidden
	}
	if !isUUID(userID) {
		return domain.ErrNotFound
	}
	err := u.tm.WithTx(ctx, serializable, func(ctx context.Context, tx repository.Tx) error {
		target, err := u.admins.FindByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if target.Role == model.RoleSuperAdmin {
			if actor.Role != model.RoleSuperAdmin {
				return domain.ErrForbidden
			}
			if err := u.ensureAnotherSuperAdmin(ctx, tx); err != nil {
				return err
			}
		}
		return u.admins.Delete(ctx, tx, userID)
	})
	if err != nil {
		return err
	}
	u.log.Info().Str("actor", actor.UserID).Str("user_id", userID).Msg("admin role revoked")
	return nil
}

func (u *adminUC) ensureAnotherSuperAdmin(ctx context.Context, tx repository.Tx) error {
	n, err := u.admins.CountByRole(ctx, tx, model.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("count super admins: %w", err)
	}
	if n <= 1 {
		return domain.ErrLastSuperAdmin
	}
	return nil
}
