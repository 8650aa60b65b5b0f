package repository

import (
	"context"

	"adtopia/internal/domain/model"
)

type AgencyPartnerRepository interface {
	Save(ctx context.Context, tx Tx, p *model.AgencyPartner) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.AgencyPartner, error)
	List(ctx context.Context, tx Tx, status model.PartnerStatus) ([]*model.AgencyPartner, error)
	Update(ctx context.Context, tx Tx, p *model.AgencyPartner) error
}
