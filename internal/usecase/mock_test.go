//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
	"adtopia/internal/domain/ports/adapter"
	"adtopia/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu       sync.Mutex
	Sessions []adapter.CheckoutParams

	CreateCheckoutSessionFunc func(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutResult, error)
	ListCatalogFunc           func(ctx context.Context) ([]adapter.CatalogProduct, error)
	ParseWebhookFunc          func(payload []byte, signature string) (*adapter.WebhookEvent, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, p adapter.CheckoutParams) (*adapter.CheckoutResult, error) {
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions = append(m.Sessions, p)
	id := "cs_test_" + p.ClientReferenceID
	return &adapter.CheckoutResult{SessionID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

func (m *MockPaymentGateway) ListCatalog(ctx context.Context) ([]adapter.CatalogProduct, error) {
	if m.ListCatalogFunc != nil {
		return m.ListCatalogFunc(ctx)
	}
	return nil, nil
}

func (m *MockPaymentGateway) ParseWebhook(payload []byte, signature string) (*adapter.WebhookEvent, error) {
	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(payload, signature)
	}
	return nil, domain.ErrInvalidSignature
}

// ---- Mock NotificationQueue ----

type MockQueue struct {
	mu     sync.Mutex
	Queued []model.Notification

	EnqueueFunc func(ctx context.Context, n model.Notification) error
}

var _ adapter.NotificationQueue = (*MockQueue)(nil)

func (q *MockQueue) Enqueue(ctx context.Context, n model.Notification) error {
	if q.EnqueueFunc != nil {
		return q.EnqueueFunc(ctx, n)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Queued = append(q.Queued, n)
	return nil
}

func (q *MockQueue) byTemplate(template string) []model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []model.Notification
	for _, n := range q.Queued {
		if n.Template == template {
			out = append(out, n)
		}
	}
	return out
}

// ---- Mock Email / SMS senders ----

type sentMessage struct {
	To, Subject, Body string
}

type MockEmailSender struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendEmailFunc func(ctx context.Context, to, subject, html string) (string, error)
}

var _ adapter.EmailSender = (*MockEmailSender)(nil)

func (m *MockEmailSender) SendEmail(ctx context.Context, to, subject, html string) (string, error) {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, html)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{To: to, Subject: subject, Body: html})
	return "re_" + uuid.NewString(), nil
}

type MockSMSSender struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendSMSFunc func(ctx context.Context, to, body string) (string, error)
}

var _ adapter.SMSSender = (*MockSMSSender)(nil)

func (m *MockSMSSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, to, body)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{To: to, Body: body})
	return "SM" + uuid.NewString(), nil
}

// ---- Mock AlertNotifier ----

type MockAlerter struct {
	mu     sync.Mutex
	Alerts []string
	Err    error
}

var _ adapter.AlertNotifier = (*MockAlerter)(nil)

func (m *MockAlerter) Alert(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Alerts = append(m.Alerts, text)
	return m.Err
}

// ---- Mock AIServiceAdapter ----

type MockAI struct {
	mu       sync.Mutex
	Calls    [][]adapter.Message
	Reply    string
	Err      error
	Model    string
	Provider string
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

func (m *MockAI) Name() string {
	if m.Provider == "" {
		return "mock"
	}
	return m.Provider
}

func (m *MockAI) DefaultModel() string {
	if m.Model == "" {
		return "gpt-4o-mini"
	}
	return m.Model
}

func (m *MockAI) Complete(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", adapter.Usage{}, m.Err
	}
	return m.Reply, adapter.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}, nil
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", nil
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *MockLocker) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key] != ""
}

// ---- In-memory RateLimiter ----

type MockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	Err    error
}

var _ adapter.RateLimiter = (*MockLimiter)(nil)

func NewMockLimiter() *MockLimiter { return &MockLimiter{counts: map[string]int{}} }

func (l *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.Err != nil {
		return false, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

// =============================
// Repositories
// =============================

// ---- Products ----

type MockProductRepo struct {
	mu   sync.Mutex
	data map[string]*model.Product // by id

	UpsertFunc            func(ctx context.Context, tx repository.Tx, p *model.Product) (*model.Product, error)
	DeactivateMissingFunc func(ctx context.Context, tx repository.Tx, keep []string) (int, error)
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{data: map[string]*model.Product{}}
}

func (r *MockProductRepo) put(p *model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
}

func (r *MockProductRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Product) (*model.Product, error) {
	if r.UpsertFunc != nil {
		return r.UpsertFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	for id, existing := range r.data {
		if existing.StripeProductID == p.StripeProductID {
			cp.ID = id
			cp.CreatedAt = existing.CreatedAt
			break
		}
	}
	r.data[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockProductRepo) FindByStripeID(ctx context.Context, tx repository.Tx, stripeProductID string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.StripeProductID == stripeProductID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockProductRepo) List(ctx context.Context, tx repository.Tx, includeInactive bool) ([]*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Product{}
	for _, p := range r.data {
		if includeInactive || p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MockProductRepo) Update(ctx context.Context, tx repository.Tx, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockProductRepo) DeactivateMissing(ctx context.Context, tx repository.Tx, keep []string) (int, error) {
	if r.DeactivateMissingFunc != nil {
		return r.DeactivateMissingFunc(ctx, tx, keep)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := map[string]bool{}
	for _, k := range keep {
		kept[k] = true
	}
	n := 0
	for _, p := range r.data {
		if p.Active && !kept[p.StripeProductID] {
			p.Active = false
			n++
		}
	}
	return n, nil
}

func (r *MockProductRepo) SetActiveByStripeID(ctx context.Context, tx repository.Tx, stripeProductID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.StripeProductID == stripeProductID {
			p.Active = active
		}
	}
	return nil
}

// ---- Purchases ----

type MockPurchaseRepo struct {
	mu   sync.Mutex
	data map[string]*model.Purchase // by id

	SaveFunc                func(ctx context.Context, tx repository.Tx, p *model.Purchase) error
	TransitionBySessionFunc func(ctx context.Context, tx repository.Tx, sessionID string, from []model.PurchaseStatus, to model.PurchaseStatus, pi string, at time.Time) (bool, error)
	ExpirePendingBeforeFunc func(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error)
}

var _ repository.PurchaseRepository = (*MockPurchaseRepo)(nil)

func NewMockPurchaseRepo() *MockPurchaseRepo {
	return &MockPurchaseRepo{data: map[string]*model.Purchase{}}
}

func (r *MockPurchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPurchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPurchaseRepo) find(match func(*model.Purchase) bool) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPurchaseRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Purchase, error) {
	return r.find(func(p *model.Purchase) bool { return p.StripeSessionID == sessionID })
}

func (r *MockPurchaseRepo) FindByPaymentIntent(ctx context.Context, tx repository.Tx, pi string) (*model.Purchase, error) {
	if pi == "" {
		return nil, domain.ErrNotFound
	}
	return r.find(func(p *model.Purchase) bool { return p.StripePaymentIntentID == pi })
}

func (r *MockPurchaseRepo) List(ctx context.Context, tx repository.Tx, f model.PurchaseFilter) ([]*model.Purchase, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*model.Purchase
	for _, p := range r.data {
		if f.Status == "" || p.Status == f.Status {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if f.Offset >= total {
		return []*model.Purchase{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return all[f.Offset:end], total, nil
}

func (r *MockPurchaseRepo) transition(match func(*model.Purchase) bool, from []model.PurchaseStatus, to model.PurchaseStatus, pi string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if !match(p) {
			continue
		}
		for _, s := range from {
			if p.Status == s {
				p.Status = to
				p.UpdatedAt = at
				if to == model.PurchaseStatusPaid {
					p.PaidAt = &at
				}
				if pi != "" {
					p.StripePaymentIntentID = pi
				}
				return true
			}
		}
	}
	return false
}

func (r *MockPurchaseRepo) TransitionBySession(ctx context.Context, tx repository.Tx, sessionID string, from []model.PurchaseStatus, to model.PurchaseStatus, pi string, at time.Time) (bool, error) {
	if r.TransitionBySessionFunc != nil {
		return r.TransitionBySessionFunc(ctx, tx, sessionID, from, to, pi, at)
	}
	return r.transition(func(p *model.Purchase) bool { return p.StripeSessionID == sessionID }, from, to, pi, at), nil
}

func (r *MockPurchaseRepo) TransitionByPaymentIntent(ctx context.Context, tx repository.Tx, pi string, from []model.PurchaseStatus, to model.PurchaseStatus, at time.Time) (bool, error) {
	if pi == "" {
		return false, nil
	}
	return r.transition(func(p *model.Purchase) bool { return p.StripePaymentIntentID == pi }, from, to, "", at), nil
}

func (r *MockPurchaseRepo) ExpirePendingBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int, error) {
	if r.ExpirePendingBeforeFunc != nil {
		return r.ExpirePendingBeforeFunc(ctx, tx, cutoff)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.data {
		if p.Status == model.PurchaseStatusPending && p.CreatedAt.Before(cutoff) {
			p.Status = model.PurchaseStatusExpired
			n++
		}
	}
	return n, nil
}

// ---- Processed events ----

type MockEventRepo struct {
	mu   sync.Mutex
	seen map[string]bool

	MarkProcessedFunc func(ctx context.Context, tx repository.Tx, ev *model.ProcessedEvent) (bool, error)
}

var _ repository.ProcessedEventRepository = (*MockEventRepo)(nil)

func NewMockEventRepo() *MockEventRepo { return &MockEventRepo{seen: map[string]bool{}} }

func (r *MockEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, ev *model.ProcessedEvent) (bool, error) {
	if r.MarkProcessedFunc != nil {
		return r.MarkProcessedFunc(ctx, tx, ev)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[ev.EventID] {
		return false, nil
	}
	r.seen[ev.EventID] = true
	return true, nil
}

func (r *MockEventRepo) forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, id)
}

// ---- A/B tests ----

type MockABTestRepo struct {
	mu          sync.Mutex
	tests       map[string]*model.ABTest
	assignments map[string]*model.Assignment // testID:visitorID
	Conversions []*model.Conversion

	VariantCountsFunc func(ctx context.Context, tx repository.Tx, testID string) ([]model.VariantCounts, error)
}

var _ repository.ABTestRepository = (*MockABTestRepo)(nil)

func NewMockABTestRepo() *MockABTestRepo {
	return &MockABTestRepo{tests: map[string]*model.ABTest{}, assignments: map[string]*model.Assignment{}}
}

func (r *MockABTestRepo) Save(ctx context.Context, tx repository.Tx, t *model.ABTest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tests {
		if existing.Name == t.Name && existing.ID != t.ID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *t
	r.tests[t.ID] = &cp
	return nil
}

func (r *MockABTestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ABTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tests[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockABTestRepo) List(ctx context.Context, tx repository.Tx) ([]*model.ABTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.ABTest{}
	for _, t := range r.tests {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MockABTestRepo) UpdateStatus(ctx context.Context, tx repository.Tx, t *model.ABTest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tests[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Status, existing.UpdatedAt, existing.EndedAt = t.Status, t.UpdatedAt, t.EndedAt
	return nil
}

func (r *MockABTestRepo) Assign(ctx context.Context, tx repository.Tx, a *model.Assignment) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := a.TestID + ":" + a.VisitorID
	if existing, ok := r.assignments[key]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *a
	r.assignments[key] = &cp
	out := cp
	return &out, nil
}

func (r *MockABTestRepo) FindAssignment(ctx context.Context, tx repository.Tx, testID, visitorID string) (*model.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.assignments[testID+":"+visitorID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockABTestRepo) SaveConversion(ctx context.Context, tx repository.Tx, c *model.Conversion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.Conversions = append(r.Conversions, &cp)
	return nil
}

func (r *MockABTestRepo) VariantCounts(ctx context.Context, tx repository.Tx, testID string) ([]model.VariantCounts, error) {
	if r.VariantCountsFunc != nil {
		return r.VariantCountsFunc(ctx, tx, testID)
	}
	return nil, nil
}

// ---- Admin users ----

type MockAdminRepo struct {
	mu   sync.Mutex
	data map[string]*model.AdminUser // by user id
}

var _ repository.AdminUserRepository = (*MockAdminRepo)(nil)

func NewMockAdminRepo(users ...*model.AdminUser) *MockAdminRepo {
	r := &MockAdminRepo{data: map[string]*model.AdminUser{}}
	for _, u := range users {
		cp := *u
		r.data[u.UserID] = &cp
	}
	return r
}

func (r *MockAdminRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.data[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAdminRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.AdminUser{}
	for _, u := range r.data {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MockAdminRepo) Upsert(ctx context.Context, tx repository.Tx, u *model.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.data[u.UserID] = &cp
	return nil
}

func (r *MockAdminRepo) Delete(ctx context.Context, tx repository.Tx, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, userID)
	return nil
}

func (r *MockAdminRepo) CountByRole(ctx context.Context, tx repository.Tx, role model.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.data {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ---- Agency partners ----

type MockAgencyRepo struct {
	mu   sync.Mutex
	data map[string]*model.AgencyPartner
}

var _ repository.AgencyPartnerRepository = (*MockAgencyRepo)(nil)

func NewMockAgencyRepo() *MockAgencyRepo {
	return &MockAgencyRepo{data: map[string]*model.AgencyPartner{}}
}

func (r *MockAgencyRepo) Save(ctx context.Context, tx repository.Tx, p *model.AgencyPartner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.Email == p.Email {
			return domain.ErrAlreadyExists
		}
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockAgencyRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AgencyPartner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAgencyRepo) List(ctx context.Context, tx repository.Tx, status model.PartnerStatus) ([]*model.AgencyPartner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.AgencyPartner{}
	for _, p := range r.data {
		if status == "" || p.Status == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockAgencyRepo) Update(ctx context.Context, tx repository.Tx, p *model.AgencyPartner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

// ---- Analytics ----

type MockAnalyticsRepo struct {
	Counts       map[model.PurchaseStatus]int64
	RevenueCents int64
	Daily        []model.RevenuePoint
	Err          error

	gotFrom, gotTo time.Time
}

var _ repository.AnalyticsRepository = (*MockAnalyticsRepo)(nil)

func (r *MockAnalyticsRepo) PurchaseCounts(ctx context.Context, tx repository.Tx, from, to time.Time) (map[model.PurchaseStatus]int64, error) {
	r.gotFrom, r.gotTo = from, to
	return r.Counts, r.Err
}

func (r *MockAnalyticsRepo) Revenue(ctx context.Context, tx repository.Tx, from, to time.Time) (int64, error) {
	return r.RevenueCents, nil
}

func (r *MockAnalyticsRepo) DailyRevenue(ctx context.Context, tx repository.Tx, from, to time.Time) ([]model.RevenuePoint, error) {
	return r.Daily, nil
}

func (r *MockAnalyticsRepo) ConversionCount(ctx context.Context, tx repository.Tx, from, to time.Time) (int64, error) {
	return 7, nil
}

func (r *MockAnalyticsRepo) RunningTests(ctx context.Context, tx repository.Tx) (int64, error) {
	return 2, nil
}

func (r *MockAnalyticsRepo) ActivePartners(ctx context.Context, tx repository.Tx) (int64, error) {
	return 3, nil
}

// ---- Notification log ----

type MockNotificationLogRepo struct {
	mu      sync.Mutex
	Entries []*model.NotificationLog
}

var _ repository.NotificationLogRepository = (*MockNotificationLogRepo)(nil)

func (r *MockNotificationLogRepo) Save(ctx context.Context, tx repository.Tx, e *model.NotificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.Entries = append(r.Entries, &cp)
	return nil
}

func (r *MockNotificationLogRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.NotificationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.NotificationLog, 0, len(r.Entries))
	for i := len(r.Entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.Entries[i])
	}
	return out, nil
}

// ---- Transaction manager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
