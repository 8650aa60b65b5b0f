package model

import "time"

type PartnerTier string

const (
	TierBronze PartnerTier = "bronze"
	TierSilver PartnerTier = "silver"
	TierGold   PartnerTier = "gold"
)

// MaxCommissionBps caps any partner commission at 50%.
const MaxCommissionBps = 5000

// DefaultCommissionBps returns the tier's commission in basis points, or -1 for an unknown tier.
func (t PartnerTier) DefaultCommissionBps() int {
	switch t {
	case TierBronze:
		return 1000
	case TierSilver:
		return 1500
	case TierGold:
		return 2000
	}
	return -1
}

func (t PartnerTier) Valid() bool { return t.DefaultCommissionBps() >= 0 }

type PartnerStatus string

const (
	PartnerPending   PartnerStatus = "pending"
	PartnerActive    PartnerStatus = "active"
	PartnerSuspended PartnerStatus = "suspended"
)

func (s PartnerStatus) Valid() bool {
	return s == PartnerPending || s == PartnerActive || s == PartnerSuspended
}

func (s PartnerStatus) CanMoveTo(next PartnerStatus) bool {
	switch s {
	case PartnerPending:
		return next == PartnerActive || next == PartnerSuspended
	case PartnerActive:
		return next == PartnerSuspended
	case PartnerSuspended:
		return next == PartnerActive
	}
	return false
}

type AgencyPartner struct {
	ID            string
	Name          string
	Email         string
	Website       string
	Tier          PartnerTier
	CommissionBps int
	Status        PartnerStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Commission returns amount*bps/10000 rounded half-up.
func (p *AgencyPartner) Commission(amountCents int64) int64 {
	if amountCents <= 0 || p.CommissionBps <= 0 {
		return 0
	}
	return (amountCents*int64(p.CommissionBps) + 5000) / 10000
}

type AgencyApplication struct {
	Name    string
	Email   string
	Website string
}

type AgencyPatch struct {
	Name          *string
	Website       *string
	Tier          *PartnerTier
	CommissionBps *int
}
