package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/repository"
)

// Compile-time check
var _ AgencyUseCase = (*agencyUC)(nil)

type AgencyUseCase interface {
	// Apply registers a pending bronze partner and acknowledges by email.
	Apply(ctx context.Context, app model.AgencyApplication) (*model.AgencyPartner, error)
	List(ctx context.Context, status model.PartnerStatus) ([]*model.AgencyPartner, error)
	Get(ctx context.Context, id string) (*model.AgencyPartner, error)
	Update(ctx context.Context, id string, patch model.AgencyPatch) (*model.AgencyPartner, error)
	SetStatus(ctx context.Context, id string, status model.PartnerStatus) (*model.AgencyPartner, error)
	// Commission returns the active partner's share of amountCents.
	Commission(ctx context.Context, id string, amountCents int64) (int64, error)
}

type agencyUC struct {
	partners repository.AgencyPartnerRepository
	tm       repository.TransactionManager
	notifier NotificationUseCase
	validate *validator.Validate
	log      *zerolog.Logger
}

func NewAgencyUseCase(
	partners repository.AgencyPartnerRepository,
	tm repository.TransactionManager,
	notifier NotificationUseCase,
	logger *zerolog.Logger,
) *agencyUC {
	return &agencyUC{partners: partners, tm: tm, notifier: notifier, validate: validator.New(), log: logger}
}

func (u *agencyUC) Apply(ctx context.Context, app model.AgencyApplication) (*model.AgencyPartner, error) {
	name := strings.TrimSpace(app.Name)
	email := strings.ToLower(strings.TrimSpace(app.Email))
	website := strings.TrimSpace(app.Website)
	if name == "" || u.validate.Var(email, "required,email") != nil {
		return nil, domain.ErrInvalidArgument
	}
	if website != "" && u.validate.Var(website, "url") != nil {
		return nil, fmt.Errorf("%w: website", domain.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	p := &model.AgencyPartner{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		Website:       website,
		Tier:          model.TierBronze,
		CommissionBps: model.TierBronze.DefaultCommissionBps(),
		Status:        model.PartnerPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.partners.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	u.log.Info().Str("partner_id", p.ID).Msg("agency application received")

	if err := u.notifier.SendEmail(ctx, p.Email, "", model.TemplateAgencyApplication, map[string]string{"name": p.Name}); err != nil {
		u.log.Warn().Err(err).Str("partner_id", p.ID).Msg("queue application email")
	}
	return p, nil
}

func (u *agencyUC) List(ctx context.Context, status model.PartnerStatus) ([]*model.AgencyPartner, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return u.partners.List(ctx, repository.NoTX, status)
}

func (u *agencyUC) Get(ctx context.Context, id string) (*model.AgencyPartner, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	return u.partners.FindByID(ctx, repository.NoTX, id)
}

func (u *agencyUC) Update(ctx context.Context, id string, patch model.AgencyPatch) (*model.AgencyPartner, error) {
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	var out *model.AgencyPartner
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.partners.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := applyAgencyPatch(p, patch); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		if err := u.partners.Update(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyAgencyPatch(p *model.AgencyPartner, patch model.AgencyPatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return fmt.Errorf("%w: name", domain.ErrInvalidArgument)
		}
		p.Name = name
	}
	if patch.Website != nil {
		p.Website = strings.TrimSpace(*patch.Website)
	}
	if patch.Tier != nil {
		if !patch.Tier.Valid() {
			return fmt.Errorf("%w: tier", domain.ErrInvalidArgument)
		}
		if *patch.Tier != p.Tier && patch.CommissionBps == nil {
			p.CommissionBps = patch.Tier.DefaultCommissionBps()
		}
		p.Tier = *patch.Tier
	}
	if patch.CommissionBps != nil {
		bps := *patch.CommissionBps
		if bps < 0 || bps > model.MaxCommissionBps {
			return fmt.Errorf("%w: commission_bps must be within 0..%d", domain.ErrInvalidArgument, model.MaxCommissionBps)
		}
		p.CommissionBps = bps
	}
	return nil
}

func (u *agencyUC) SetStatus(ctx context.Context, id string, status model.PartnerStatus) (*model.AgencyPartner, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if !isUUID(id) {
		return nil, domain.ErrNotFound
	}
	var out *model.AgencyPartner
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.partners.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !p.Status.CanMoveTo(status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrConflict, p.Status, status)
		}
		p.Status = status
		p.UpdatedAt = time.Now().UTC()
		if err := u.partners.Update(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("partner_id", id).Str("status", string(status)).Msg("agency partner status changed")

	if status == model.PartnerActive {
		data := map[string]string{
			"name":       out.Name,
			"tier":       string(out.Tier),
			"commission": fmt.Sprintf("%d.%02d%%", out.CommissionBps/100, out.CommissionBps%100),
			"partner_id": out.ID,
		}
		if err := u.notifier.SendEmail(ctx, out.Email, "", model.TemplateAgencyWelcome, data); err != nil {
			u.log.Warn().Err(err).Str("partner_id", id).Msg("queue welcome email")
		}
	}
	return out, nil
}

func (u *agencyUC) Commission(ctx context.Context, id string, amountCents int64) (int64, error) {
	if amountCents < 0 {
		return 0, domain.ErrInvalidArgument
	}
	p, err := u.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if p.Status != model.PartnerActive {
		return 0, fmt.Errorf("%w: partner is %s", domain.ErrConflict, p.Status)
	}
	return p.Commission(amountCents), nil
}
