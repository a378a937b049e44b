package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"impact-platform/internal/catalog"
	"impact-platform/internal/giftcard"
	"impact-platform/internal/pricing"
	"impact-platform/internal/wallet"
	"impact-platform/pkg/utils"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func th(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Valid: true, Decimal: d(s)}
}

type stubRates struct {
	rate      decimal.Decimal
	threshold decimal.NullDecimal
}

func (s stubRates) Rate(ctx context.Context) (decimal.Decimal, error) { return s.rate, nil }
func (s stubRates) CertifiedThreshold(ctx context.Context) (decimal.NullDecimal, error) {
	return s.threshold, nil
}

type recordingEvents struct {
	created   []Transaction
	completed []Transaction
	failed    []Transaction
}

func (r *recordingEvents) TransactionCreated(ctx context.Context, t Transaction) {
	r.created = append(r.created, t)
}

func (r *recordingEvents) TransactionCompleted(ctx context.Context, t Transaction) {
	r.completed = append(r.completed, t)
}

func (r *recordingEvents) TransactionFailed(ctx context.Context, t Transaction) {
	r.failed = append(r.failed, t)
}

func seedCatalog(s *MemoryStore) {
	s.PutSKU(catalog.SKU{
		ID: "sku-claim", Code: "BOTTLE_CLAIM", Name: "Bottle claim",
		Mode: catalog.ModeClaim, Price: d("1.10"), Multiplier: d("1"), Active: true,
	})
	s.PutSKU(catalog.SKU{
		ID: "sku-pay", Code: "CHECKOUT", Name: "Checkout conversion",
		Mode: catalog.ModePay, Multiplier: d("1"),
		ConnectThreshold: th("10.00"), Active: true,
	})
	s.PutSKU(catalog.SKU{
		ID: "sku-gift", Code: "GIFT50", Name: "Gift card",
		Mode: catalog.ModeGiftCard, Price: d("5.50"), Multiplier: d("1"), Active: true,
	})
	s.PutSKU(catalog.SKU{
		ID: "sku-alloc", Code: "PARTNER_ALLOC", Name: "Partner allocation",
		Mode: catalog.ModeAllocation, Multiplier: d("1"), Active: true,
	})
	s.PutSKU(catalog.SKU{
		ID: "sku-retired", Code: "RETIRED", Name: "Retired",
		Mode: catalog.ModeClaim, Price: d("1"), Multiplier: d("1"), Active: false,
	})
}

func seedGiftCode(t *testing.T, s *MemoryStore, id, secret string) {
	t.Helper()
	err := s.InsertBatch(context.Background(),
		giftcard.Batch{ID: "batch-1", SKUID: "sku-gift", CodeCount: 1, IssuedBy: "admin-1"},
		[]giftcard.Code{{ID: id, Code: secret, SKUID: "sku-gift", BatchID: "batch-1"}})
	if err != nil {
		t.Fatalf("seed gift code: %v", err)
	}
}

func TestCreate_ClaimCreditsImmediately(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	events := &recordingEvents{}
	m := NewManager(store, stubRates{rate: d("0.11")}, events)

	tr, err := m.Create(ctx, CreateRequest{UserID: "user-1", SKUCode: "BOTTLE_CLAIM"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !tr.Amount.Equal(d("1.10")) {
		t.Fatalf("amount = %s, want SKU price 1.10", tr.Amount)
	}
	if !tr.Impact.Equal(d("10")) {
		t.Fatalf("impact = %s, want 10", tr.Impact)
	}
	if tr.PaymentStatus != StatusNA {
		t.Fatalf("status = %s, want %s", tr.PaymentStatus, StatusNA)
	}
	if !tr.WalletCredited {
		t.Fatal("claim transaction should credit the wallet at creation")
	}

	w, err := store.Get(ctx, wallet.UserHolder("user-1"))
	if err != nil {
		t.Fatalf("Get wallet: %v", err)
	}
	if !w.TotalAccumulated.Equal(d("10")) || !w.CurrentBalance.Equal(d("10")) {
		t.Fatalf("wallet accumulated/balance = %s/%s, want 10/10", w.TotalAccumulated, w.CurrentBalance)
	}
	if !w.TotalAmountSpent.Equal(d("1.10")) {
		t.Fatalf("amount spent = %s, want 1.10", w.TotalAmountSpent)
	}
	if len(events.created) != 1 {
		t.Fatalf("created events = %d, want 1", len(events.created))
	}
}

func TestCreate_PayStaysPendingAndUncredited(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	tr, err := m.Create(ctx, CreateRequest{
		UserID: "user-1", SKUID: "sku-pay",
		Amount: d("5.00"), ProcessorRef: "ps_1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tr.PaymentStatus != StatusPending {
		t.Fatalf("status = %s, want pending", tr.PaymentStatus)
	}
	if tr.WalletCredited {
		t.Fatal("pay transaction must not credit before completion")
	}
	if tr.ConnectFlag {
		t.Fatal("connect flag must stay false under the 10.00 threshold")
	}
	if !tr.Impact.Equal(d("20")) {
		t.Fatalf("impact = %s, want 20", tr.Impact)
	}

	if _, err := store.Get(ctx, wallet.UserHolder("user-1")); !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("wallet err = %v, want ErrNotFound before completion", err)
	}

	above, err := m.Create(ctx, CreateRequest{
		UserID: "user-1", SKUID: "sku-pay",
		Amount: d("12.00"), ProcessorRef: "ps_2",
	})
	if err != nil {
		t.Fatalf("Create above threshold: %v", err)
	}
	if !above.ConnectFlag {
		t.Fatal("connect flag must be set at or above the threshold")
	}
}

func TestCreate_GiftCardTakesPriceAndConsumesCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	seedGiftCode(t, store, "code-1", "ABC123")
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	// The request amount is ignored for gift cards and the code input is
	// normalized before the lookup.
	tr, err := m.Create(ctx, CreateRequest{
		UserID: "user-1", SKUID: "sku-gift",
		Amount: d("999"), GiftCode: " abc123 ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !tr.Amount.Equal(d("5.50")) {
		t.Fatalf("amount = %s, want SKU price 5.50", tr.Amount)
	}
	if tr.PaymentStatus != StatusNA || !tr.WalletCredited {
		t.Fatalf("status/credited = %s/%t, want n/a and credited", tr.PaymentStatus, tr.WalletCredited)
	}
	if tr.GiftCodeID == nil || *tr.GiftCodeID != "code-1" {
		t.Fatalf("gift code id = %v, want code-1", tr.GiftCodeID)
	}

	code, err := store.FindCode(ctx, "ABC123")
	if err != nil {
		t.Fatalf("FindCode: %v", err)
	}
	if !code.Redeemed || code.RedeemedBy != "user:user-1" || code.RedeemedTx != tr.ID {
		t.Fatalf("code after redeem = %+v", code)
	}

	if _, err := m.Create(ctx, CreateRequest{
		UserID: "user-2", SKUID: "sku-gift", GiftCode: "ABC123",
	}); !errors.Is(err, giftcard.ErrAlreadyRedeemed) {
		t.Fatalf("second redeem err = %v, want ErrAlreadyRedeemed", err)
	}
}

func TestCreate_GiftCodeMustMatchSKU(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	store.PutSKU(catalog.SKU{
		ID: "sku-gift-rich", Code: "GIFT500", Name: "Large gift card",
		Mode: catalog.ModeGiftCard, Price: d("500.00"), Multiplier: d("1"), Active: true,
	})
	seedGiftCode(t, store, "code-1", "CHEAP1")
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	// The code was minted for sku-gift; naming the pricier SKU must not
	// consume it at the higher price.
	_, err := m.Create(ctx, CreateRequest{UserID: "user-1", SKUID: "sku-gift-rich", GiftCode: "CHEAP1"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	code, err := store.FindCode(ctx, "CHEAP1")
	if err != nil {
		t.Fatalf("FindCode: %v", err)
	}
	if code.Redeemed {
		t.Fatal("mismatched redemption must release the code")
	}
	txs, err := store.ListTransactionsForHolder(ctx, wallet.UserHolder("user-1"), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("mismatched redemption persisted %d transactions", len(txs))
	}
	if _, err := store.Get(ctx, wallet.UserHolder("user-1")); !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("wallet err = %v, want ErrNotFound (no credit may land)", err)
	}

	// The released code still redeems against its own SKU.
	tr, err := m.Create(ctx, CreateRequest{UserID: "user-1", SKUID: "sku-gift", GiftCode: "CHEAP1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !tr.Amount.Equal(d("5.50")) || !tr.Impact.Equal(d("22")) {
		t.Fatalf("amount/impact = %s/%s, want 5.50/22", tr.Amount, tr.Impact)
	}
}

func TestCreate_RollbackReleasesGiftCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	seedGiftCode(t, store, "code-1", "ABC123")
	events := &recordingEvents{}

	// A zero rate passes the oracle stub but fails the impact computation,
	// which runs after the code was consumed inside the unit of work.
	m := NewManager(store, stubRates{rate: decimal.Zero}, events)

	_, err := m.Create(ctx, CreateRequest{UserID: "user-1", SKUID: "sku-gift", GiftCode: "ABC123"})
	if !errors.Is(err, pricing.ErrInvalidValue) {
		t.Fatalf("err = %v, want pricing.ErrInvalidValue", err)
	}

	code, err := store.FindCode(ctx, "ABC123")
	if err != nil {
		t.Fatalf("FindCode: %v", err)
	}
	if code.Redeemed {
		t.Fatal("rollback must release the gift code")
	}
	txs, err := store.ListTransactionsForHolder(ctx, wallet.UserHolder("user-1"), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("transactions persisted across rollback: %d", len(txs))
	}
	if len(events.created) != 0 {
		t.Fatal("no event may be published for a rolled-back creation")
	}
}

func TestCreate_AllocationCreditsAtCreation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	tr, err := m.Create(ctx, CreateRequest{
		MerchantID: "merchant-1", SKUID: "sku-alloc",
		Amount: d("3.00"), ProcessorRef: "ps_alloc", PartnerID: "partner-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tr.PaymentStatus != StatusPending || !tr.WalletCredited {
		t.Fatalf("status/credited = %s/%t, want pending and credited", tr.PaymentStatus, tr.WalletCredited)
	}
	if !tr.Impact.Equal(d("12")) {
		t.Fatalf("impact = %s, want 12", tr.Impact)
	}

	w, err := store.Get(ctx, wallet.MerchantHolder("merchant-1"))
	if err != nil {
		t.Fatalf("Get wallet: %v", err)
	}
	if !w.CurrentBalance.Equal(d("12")) || !w.TotalAmountSpent.Equal(d("3.00")) {
		t.Fatalf("wallet = %s/%s, want 12/3.00", w.CurrentBalance, w.TotalAmountSpent)
	}
}

func TestCreate_RejectsInvalidRequests(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	cases := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"no holder", CreateRequest{SKUID: "sku-claim"}, ErrValidation},
		{"no sku reference", CreateRequest{UserID: "user-1"}, ErrValidation},
		{"unknown sku", CreateRequest{UserID: "user-1", SKUID: "nope"}, catalog.ErrSKUNotFound},
		{"inactive sku", CreateRequest{UserID: "user-1", SKUID: "sku-retired"}, catalog.ErrSKUNotFound},
		{"pay without amount", CreateRequest{UserID: "user-1", SKUID: "sku-pay"}, ErrInvalidValue},
		{"pay negative amount", CreateRequest{UserID: "user-1", SKUID: "sku-pay", Amount: d("-1")}, ErrInvalidValue},
		{"gift without code", CreateRequest{UserID: "user-1", SKUID: "sku-gift"}, ErrValidation},
		{"gift unknown code", CreateRequest{UserID: "user-1", SKUID: "sku-gift", GiftCode: "NOPE"}, giftcard.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := m.Create(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	txs, err := store.ListTransactionsForHolder(ctx, wallet.UserHolder("user-1"), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("rejected requests persisted %d transactions", len(txs))
	}
}

func TestCreate_DuplicateProcessorRef(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	if _, err := m.Create(ctx, CreateRequest{
		UserID: "user-1", SKUID: "sku-pay", Amount: d("5"), ProcessorRef: "ps_dup",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := m.Create(ctx, CreateRequest{
		UserID: "user-2", SKUID: "sku-pay", Amount: d("7"), ProcessorRef: "ps_dup",
	})
	if !errors.Is(err, utils.ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}
}

func TestCreateManual_RequiresJustificationAndActor(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	if _, err := m.CreateManual(ctx, ManualRequest{
		UserID: "user-1", SKUID: "sku-claim", Actor: "admin-1",
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing justification: err = %v, want ErrValidation", err)
	}
	if _, err := m.CreateManual(ctx, ManualRequest{
		UserID: "user-1", SKUID: "sku-claim", Justification: "support ticket 4711",
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing actor: err = %v, want ErrValidation", err)
	}

	if _, err := store.Get(ctx, wallet.UserHolder("user-1")); !errors.Is(err, wallet.ErrNotFound) {
		t.Fatalf("rejected manual entries must not touch the wallet, got %v", err)
	}
}

func TestCreateManual_CreditsAndDefaultsToSKUPrice(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	events := &recordingEvents{}
	m := NewManager(store, stubRates{rate: d("0.11")}, events)

	tr, err := m.CreateManual(ctx, ManualRequest{
		UserID: "user-1", SKUID: "sku-claim",
		Justification: "support ticket 4711", Actor: "admin-1",
	})
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}
	if !tr.Amount.Equal(d("1.10")) {
		t.Fatalf("amount = %s, want SKU price fallback 1.10", tr.Amount)
	}
	if tr.PaymentStatus != StatusNA || !tr.WalletCredited {
		t.Fatalf("status/credited = %s/%t, want n/a and credited", tr.PaymentStatus, tr.WalletCredited)
	}

	w, err := store.Get(ctx, wallet.UserHolder("user-1"))
	if err != nil {
		t.Fatalf("Get wallet: %v", err)
	}
	if !w.CurrentBalance.Equal(d("10")) {
		t.Fatalf("balance = %s, want 10", w.CurrentBalance)
	}
	if len(events.created) != 1 {
		t.Fatalf("created events = %d, want 1", len(events.created))
	}

	if _, err := m.CreateManual(ctx, ManualRequest{
		UserID: "user-1", SKUID: "sku-claim", Amount: d("-2"),
		Justification: "bad", Actor: "admin-1",
	}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("negative amount: err = %v, want ErrInvalidValue", err)
	}
}

func TestListForHolder_OrderSidesAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedCatalog(store)
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	m.clock = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	first, err := m.Create(ctx, CreateRequest{UserID: "user-1", SKUID: "sku-claim"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Merchant next to a user is attribution; the transaction stays
	// user-held.
	attributed, err := m.Create(ctx, CreateRequest{UserID: "user-1", MerchantID: "merchant-1", SKUID: "sku-claim"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(ctx, CreateRequest{MerchantID: "merchant-1", SKUID: "sku-claim"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mine, err := m.ListForHolder(ctx, wallet.UserHolder("user-1"), 0)
	if err != nil {
		t.Fatalf("ListForHolder: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("user transactions = %d, want 2", len(mine))
	}
	if mine[0].ID != attributed.ID || mine[1].ID != first.ID {
		t.Fatal("transactions must come back newest first")
	}

	theirs, err := m.ListForHolder(ctx, wallet.MerchantHolder("merchant-1"), 0)
	if err != nil {
		t.Fatalf("ListForHolder: %v", err)
	}
	if len(theirs) != 1 {
		t.Fatalf("merchant transactions = %d, want 1 (attributed rows are user-held)", len(theirs))
	}

	limited, err := m.ListForHolder(ctx, wallet.UserHolder("user-1"), 1)
	if err != nil {
		t.Fatalf("ListForHolder: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != attributed.ID {
		t.Fatal("limit must keep the newest row")
	}
}

func TestGet_UnknownTransaction(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, stubRates{rate: d("0.25")}, nil)

	if _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
