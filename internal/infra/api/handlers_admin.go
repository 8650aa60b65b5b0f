package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
)

// parseBound accepts RFC 3339 timestamps or plain dates (UTC midnight).
func parseBound(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, domain.ErrInvalidArgument
	}
	return t, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseBound(q.Get("from"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := parseBound(q.Get("to"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats, err := s.analytics.Dashboard(r.Context(), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*model.DashboardStats
		ConversionRate float64 `json:"conversion_rate"`
	}{stats, stats.ConversionRate()})
}

// ----- products -----

func (s *Server) handleAdminListProducts(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("active") != "true"
	products, err := s.products.List(r.Context(), includeInactive)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all(mapAll(products, productFromDomain)))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productPatchRequest
	if !s.bind(w, r, &req) {
		return
	}
	p, err := s.products.Update(r.Context(), chi.URLParam(r, "id"), model.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productFromDomain(p))
}

func (s *Server) handleSyncProducts(w http.ResponseWriter, r *http.Request) {
	report, err := s.products.Sync(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if report.Failures == nil {
		report.Failures = []model.SyncFailure{}
	}
	writeJSON(w, http.StatusOK, struct {
		model.SyncReport
		OK bool `json:"ok"`
	}{report, report.OK()})
}

// ----- purchases -----

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	items, total, err := s.checkout.List(r.Context(), model.PurchaseFilter{
		Status: model.PurchaseStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list(mapAll(items, purchaseFromDomain), total, limit, offset))
}

// ----- A/B tests -----

func (s *Server) handleListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := s.abtests.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all(mapAll(tests, abTestFromDomain)))
}

func (s *Server) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	var req createTestRequest
	if !s.bind(w, r, &req) {
		return
	}
	variants := make([]model.Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, model.Variant{Key: v.Key, Weight: v.Weight})
	}
	t, err := s.abtests.Create(r.Context(), req.Name, req.Description, variants)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, abTestFromDomain(t))
}

func (s *Server) handleGetTest(w http.ResponseWriter, r *http.Request) {
	t, err := s.abtests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, abTestFromDomain(t))
}

func (s *Server) handleSetTestStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.bind(w, r, &req) {
		return
	}
	t, err := s.abtests.SetStatus(r.Context(), chi.URLParam(r, "id"), model.ABTestStatus(req.Status))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, abTestFromDomain(t))
}

func (s *Server) handleTestAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.abtests.Analytics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ----- admin users -----

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.admins.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all(mapAll(admins, adminFromDomain)))
}

func (s *Server) handleGrantAdmin(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if !s.bind(w, r, &req) {
		return
	}
	a, err := s.admins.Grant(r.Context(), adminFrom(r.Context()), req.Email, req.UserID, model.Role(req.Role))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminFromDomain(a))
}

func (s *Server) handleRevokeAdmin(w http.ResponseWriter, r *http.Request) {
	if err := s.admins.Revoke(r.Context(), adminFrom(r.Context()), chi.URLParam(r, "userID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- agency partners -----

func (s *Server) handleListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := s.agency.List(r.Context(), model.PartnerStatus(r.URL.Query().Get("status")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all(mapAll(partners, partnerFromDomain)))
}

func (s *Server) handleUpdatePartner(w http.ResponseWriter, r *http.Request) {
	var req agencyPatchRequest
	if !s.bind(w, r, &req) {
		return
	}
	patch := model.AgencyPatch{Name: req.Name, Website: req.Website, CommissionBps: req.CommissionBps}
	if req.Tier != nil {
		tier := model.PartnerTier(*req.Tier)
		patch.Tier = &tier
	}
	p, err := s.agency.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, partnerFromDomain(p))
}

func (s *Server) handleSetPartnerStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.bind(w, r, &req) {
		return
	}
	p, err := s.agency.SetStatus(r.Context(), chi.URLParam(r, "id"), model.PartnerStatus(req.Status))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, partnerFromDomain(p))
}

func (s *Server) handleCommission(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount_cents"), 10, 64)
	if err != nil {
		s.fail(w, r, domain.ErrInvalidArgument)
		return
	}
	id := chi.URLParam(r, "id")
	c, err := s.agency.Commission(r.Context(), id, amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"partner_id": id, "amount_cents": amount, "commission_cents": c})
}

// ----- notifications -----

func (s *Server) handleRecentNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := pageParams(r)
	logs, err := s.notifications.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all(mapAll(logs, func(l *model.NotificationLog) notificationLogDTO {
		return notificationLogDTO{
			ID:        l.ID,
			Channel:   string(l.Channel),
			Recipient: l.Recipient,
			Template:  l.Template,
			Status:    string(l.Status),
			Error:     l.Error,
			CreatedAt: l.CreatedAt,
		}
	})))
}
