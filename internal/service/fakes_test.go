package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"erp/internal/model"
	"erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memDB is the shared state behind the fake repositories.
type memDB struct {
	stocks    map[uuid.UUID]model.Stock
	ledger    []model.InventoryTransaction
	partners  map[uuid.UUID]model.Partner
	invoices  map[uuid.UUID]model.Invoice
	performas map[uuid.UUID]model.PerformaInvoice
	purchases map[uuid.UUID]model.Purchase
	payments  []model.Payment
	audits    []model.AuditLog
	seq       map[string]int64
}

func newMemDB() *memDB {
	return &memDB{
		stocks:    map[uuid.UUID]model.Stock{},
		partners:  map[uuid.UUID]model.Partner{},
		invoices:  map[uuid.UUID]model.Invoice{},
		performas: map[uuid.UUID]model.PerformaInvoice{},
		purchases: map[uuid.UUID]model.Purchase{},
		seq:       map[string]int64{},
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memDB) clone() memDB {
	return memDB{
		stocks:    copyMap(m.stocks),
		ledger:    append([]model.InventoryTransaction(nil), m.ledger...),
		partners:  copyMap(m.partners),
		invoices:  copyMap(m.invoices),
		performas: copyMap(m.performas),
		purchases: copyMap(m.purchases),
		payments:  append([]model.Payment(nil), m.payments...),
		audits:    append([]model.AuditLog(nil), m.audits...),
		seq:       copyMap(m.seq),
	}
}

// --- transactions ---

type fakeTxKey struct{}

// fakeTxManager restores the snapshot taken at the outermost RunInTx when fn fails.
type fakeTxManager struct {
	db *memDB
}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	snap := f.db.clone()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		*f.db = snap
		return err
	}
	return nil
}

// --- stocks ---

type fakeStockRepo struct {
	db *memDB
	// steal is removed from the row just before a Decrement runs.
	steal int
}

func (r *fakeStockRepo) Create(ctx context.Context, stock *model.Stock) error {
	for _, s := range r.db.stocks {
		if s.SKU == stock.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	if stock.ID == uuid.Nil {
		stock.ID = uuid.New()
	}
	r.db.stocks[stock.ID] = *stock
	return nil
}

func (r *fakeStockRepo) Update(ctx context.Context, stock *model.Stock) error {
	cur, ok := r.db.stocks[stock.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for id, s := range r.db.stocks {
		if id != stock.ID && s.SKU == stock.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	cur.SKU, cur.Name, cur.Unit = stock.SKU, stock.Name, stock.Unit
	cur.SellingPrice, cur.PurchasePrice = stock.SellingPrice, stock.PurchasePrice
	cur.LowStockThreshold = stock.LowStockThreshold
	r.db.stocks[stock.ID] = cur
	return nil
}

func (r *fakeStockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.db.stocks, id)
	return nil
}

func (r *fakeStockRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Stock, error) {
	s, ok := r.db.stocks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeStockRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Stock, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeStockRepo) List(ctx context.Context, filter repository.StockFilter) ([]model.Stock, int64, error) {
	out := make([]model.Stock, 0, len(r.db.stocks))
	for _, s := range r.db.stocks {
		if filter.LowOnly && !s.IsLow() {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *fakeStockRepo) Decrement(ctx context.Context, id uuid.UUID, qty int, at time.Time) (int64, error) {
	s, ok := r.db.stocks[id]
	if !ok {
		return 0, nil
	}
	s.Quantity -= r.steal
	r.db.stocks[id] = s
	if s.Quantity < qty {
		return 0, nil
	}
	s.Quantity -= qty
	s.LastUpdatedAt = at
	r.db.stocks[id] = s
	return 1, nil
}

func (r *fakeStockRepo) Increment(ctx context.Context, id uuid.UUID, qty int, at time.Time) error {
	s, ok := r.db.stocks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Quantity += qty
	s.LastUpdatedAt = at
	r.db.stocks[id] = s
	return nil
}

type fakeLedgerRepo struct {
	db *memDB
}

func (r *fakeLedgerRepo) Create(ctx context.Context, tx *model.InventoryTransaction) error {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	r.db.ledger = append(r.db.ledger, *tx)
	return nil
}

func (r *fakeLedgerRepo) ListByStock(ctx context.Context, filter repository.MovementFilter) ([]model.InventoryTransaction, int64, error) {
	var out []model.InventoryTransaction
	for _, row := range r.db.ledger {
		if row.StockID == filter.StockID && (filter.ReferenceType == "" || row.ReferenceType == filter.ReferenceType) {
			out = append(out, row)
		}
	}
	return out, int64(len(out)), nil
}

// --- partners ---

type fakePartnerRepo struct {
	db *memDB
}

func (r *fakePartnerRepo) Create(ctx context.Context, partner *model.Partner) error {
	if partner.ID == uuid.Nil {
		partner.ID = uuid.New()
	}
	r.db.partners[partner.ID] = *partner
	return nil
}

func (r *fakePartnerRepo) Update(ctx context.Context, partner *model.Partner) error {
	if _, ok := r.db.partners[partner.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.db.partners[partner.ID] = *partner
	return nil
}

func (r *fakePartnerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.db.partners, id)
	return nil
}

func (r *fakePartnerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	p, ok := r.db.partners[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakePartnerRepo) List(ctx context.Context, filter repository.PartnerFilter) ([]model.Partner, int64, error) {
	var out []model.Partner
	for _, p := range r.db.partners {
		if len(filter.Types) > 0 && !containsString(filter.Types, p.Type) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *fakePartnerRepo) ReplaceAddresses(ctx context.Context, partnerID uuid.UUID, addresses []model.PartnerAddress) error {
	p, ok := r.db.partners[partnerID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Addresses = addresses
	r.db.partners[partnerID] = p
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// --- invoices ---

type fakeInvoiceRepo struct {
	db *memDB
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	for _, inv := range r.db.invoices {
		if inv.InvoiceNo == invoice.InvoiceNo {
			return gorm.ErrDuplicatedKey
		}
		if invoice.ConvertedFromPerforma != nil && inv.ConvertedFromPerforma != nil &&
			*inv.ConvertedFromPerforma == *invoice.ConvertedFromPerforma {
			return gorm.ErrDuplicatedKey
		}
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	invoice.CreatedAt = time.Now()
	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
	}
	stored := *invoice
	stored.Items = append([]model.InvoiceItem(nil), invoice.Items...)
	r.db.invoices[invoice.ID] = stored
	return nil
}

func (r *fakeInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.db.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if p, ok := r.db.partners[inv.CustomerID]; ok {
		inv.Customer = &p
	}
	return &inv, nil
}

func (r *fakeInvoiceRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeInvoiceRepo) FindByPerforma(ctx context.Context, performaID uuid.UUID) (*model.Invoice, error) {
	for _, inv := range r.db.invoices {
		if inv.ConvertedFromPerforma != nil && *inv.ConvertedFromPerforma == performaID {
			return &inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInvoiceRepo) List(ctx context.Context, filter repository.InvoiceFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for _, inv := range r.db.invoices {
		if filter.PaymentStatus != "" && inv.PaymentStatus != filter.PaymentStatus {
			continue
		}
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) UpdatePayment(ctx context.Context, id uuid.UUID, totalPaid decimal.Decimal, status string) error {
	inv, ok := r.db.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inv.TotalPaid = totalPaid
	inv.PaymentStatus = status
	r.db.invoices[id] = inv
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.db.invoices, id)
	return nil
}

// --- performa invoices ---

type fakePerformaRepo struct {
	db *memDB
	// loseRace makes CompareAndSetStatus behave as if another request
	// changed the status first.
	loseRace bool
}

func (r *fakePerformaRepo) Create(ctx context.Context, performa *model.PerformaInvoice) error {
	if performa.ID == uuid.Nil {
		performa.ID = uuid.New()
	}
	performa.CreatedAt = time.Now()
	stored := *performa
	stored.Items = append([]model.PerformaItem(nil), performa.Items...)
	r.db.performas[performa.ID] = stored
	return nil
}

func (r *fakePerformaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PerformaInvoice, error) {
	p, ok := r.db.performas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.Items = append([]model.PerformaItem(nil), p.Items...)
	return &p, nil
}

func (r *fakePerformaRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PerformaInvoice, error) {
	return r.FindByID(ctx, id)
}

func (r *fakePerformaRepo) List(ctx context.Context, filter repository.PerformaFilter) ([]model.PerformaInvoice, int64, error) {
	var out []model.PerformaInvoice
	for _, p := range r.db.performas {
		if filter.Status != "" && p.PerformaStatus != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *fakePerformaRepo) Update(ctx context.Context, performa *model.PerformaInvoice) error {
	if _, ok := r.db.performas[performa.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *performa
	stored.Items = append([]model.PerformaItem(nil), performa.Items...)
	r.db.performas[performa.ID] = stored
	return nil
}

func (r *fakePerformaRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to string, convertedInvoiceID *uuid.UUID) (int64, error) {
	p, ok := r.db.performas[id]
	if !ok || p.PerformaStatus != from || r.loseRace {
		return 0, nil
	}
	p.PerformaStatus = to
	if convertedInvoiceID != nil {
		p.ConvertedInvoiceID = convertedInvoiceID
	}
	r.db.performas[id] = p
	return 1, nil
}

func (r *fakePerformaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.db.performas, id)
	return nil
}

// --- purchases ---

type fakePurchaseRepo struct {
	db *memDB
}

func (r *fakePurchaseRepo) Create(ctx context.Context, purchase *model.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	r.db.purchases[purchase.ID] = *purchase
	return nil
}

func (r *fakePurchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	p, ok := r.db.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakePurchaseRepo) List(ctx context.Context, filter repository.PurchaseFilter) ([]model.Purchase, int64, error) {
	var out []model.Purchase
	for _, p := range r.db.purchases {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

// --- payments ---

type fakePaymentRepo struct {
	db *memDB
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	for _, p := range r.db.payments {
		if payment.Reference != nil && p.Reference != nil && *p.Reference == *payment.Reference {
			return gorm.ErrDuplicatedKey
		}
	}
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	r.db.payments = append(r.db.payments, *payment)
	return nil
}

func (r *fakePaymentRepo) List(ctx context.Context, filter repository.PaymentFilter) ([]model.Payment, int64, error) {
	var out []model.Payment
	for _, p := range r.db.payments {
		if filter.InvoiceID != nil && p.InvoiceID != *filter.InvoiceID {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

// --- audit, numbering, events ---

type fakeAuditRepo struct {
	db *memDB
}

func (r *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	entry.ID = uuid.New()
	r.db.audits = append(r.db.audits, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, a := range r.db.audits {
		if filter.Action != "" && a.Action != filter.Action {
			continue
		}
		if filter.UserID != nil && (a.UserID == nil || *a.UserID != *filter.UserID) {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

type fakeNumberer struct {
	db *memDB
}

func (n *fakeNumberer) Next(ctx context.Context, kind repository.DocumentKind, now time.Time) (string, error) {
	prefix := repository.DocumentPrefix(kind, now)
	n.db.seq[prefix]++
	return repository.FormatDocumentNo(prefix, n.db.seq[prefix]), nil
}

type publishedEvent struct {
	name string
	data interface{}
}

type fakeEvents struct {
	events []publishedEvent
}

func (f *fakeEvents) Publish(event string, data interface{}) {
	f.events = append(f.events, publishedEvent{name: event, data: data})
}

func (f *fakeEvents) count(name string) int {
	n := 0
	for _, e := range f.events {
		if e.name == name {
			n++
		}
	}
	return n
}

// --- fixture ---

type fixture struct {
	db        *memDB
	tx        *fakeTxManager
	stockRepo *fakeStockRepo
	performas *fakePerformaRepo
	events    *fakeEvents

	guard           StockGuard
	invoiceService  InvoiceService
	performaService PerformaService
	paymentService  PaymentService
	purchaseService PurchaseService
	stockService    StockService
	partnerService  PartnerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newMemDB()
	f := &fixture{
		db:        db,
		tx:        &fakeTxManager{db: db},
		stockRepo: &fakeStockRepo{db: db},
		performas: &fakePerformaRepo{db: db},
		events:    &fakeEvents{},
	}
	ledger := &fakeLedgerRepo{db: db}
	partners := &fakePartnerRepo{db: db}
	invoices := &fakeInvoiceRepo{db: db}
	audit := &fakeAuditRepo{db: db}
	numberer := &fakeNumberer{db: db}

	f.guard = NewStockGuard(f.stockRepo, ledger, f.tx)
	f.invoiceService = NewInvoiceService(invoices, partners, f.stockRepo, audit, numberer, f.guard, f.tx, f.events)
	f.performaService = NewPerformaService(f.performas, invoices, partners, f.stockRepo, audit, numberer, f.guard, f.tx, f.events)
	f.paymentService = NewPaymentService(&fakePaymentRepo{db: db}, invoices, audit, f.tx, f.events)
	f.purchaseService = NewPurchaseService(&fakePurchaseRepo{db: db}, partners, audit, numberer, f.guard, f.tx, f.events)
	f.stockService = NewStockService(f.stockRepo, ledger, audit, f.guard, f.tx, f.events, 5)
	f.partnerService = NewPartnerService(partners, audit, f.tx)
	return f
}

func (f *fixture) addStock(t *testing.T, name string, qty int) model.Stock {
	t.Helper()
	s := model.Stock{
		ID:                uuid.New(),
		SKU:               "SKU-" + name,
		Name:              name,
		Quantity:          qty,
		SellingPrice:      decimal.NewFromInt(100),
		LowStockThreshold: 1,
	}
	f.db.stocks[s.ID] = s
	return s
}

func (f *fixture) addPartner(t *testing.T, name, partnerType string) model.Partner {
	t.Helper()
	p := model.Partner{ID: uuid.New(), Name: name, Type: partnerType, IsActive: true}
	f.db.partners[p.ID] = p
	return p
}

func (f *fixture) quantity(id uuid.UUID) int {
	return f.db.stocks[id].Quantity
}

// addDraft creates a pending performa invoice selling qty of stock at 100 + 18% GST.
func (f *fixture) addDraft(t *testing.T, customer model.Partner, stock model.Stock, qty int) PerformaResponse {
	t.Helper()
	resp, err := f.performaService.CreatePerforma(context.Background(), "", PerformaRequest{
		CustomerID: customer.ID.String(),
		Items: []LineItemRequest{{
			Name:      stock.Name,
			Quantity:  qty,
			UnitPrice: "100",
			GSTRate:   "18",
			StockID:   stock.ID.String(),
		}},
	})
	if err != nil {
		t.Fatalf("CreatePerforma: %v", err)
	}
	return resp
}
