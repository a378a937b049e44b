package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"impact-platform/internal/catalog"
	"impact-platform/internal/pricing"
	"impact-platform/internal/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Manager owns the transaction lifecycle: creation in all four modes,
// manual administrative entries, and processor-driven status transitions.
type Manager struct {
	store  Store
	rates  RateSource
	events Publisher

	clock func() time.Time
}

// NewManager wires the ledger. events may be nil, which disables
// lifecycle publishing.
func NewManager(store Store, rates RateSource, events Publisher) *Manager {
	return &Manager{
		store:  store,
		rates:  rates,
		events: events,
		clock:  time.Now,
	}
}

// Create runs the conversion flow: resolve the SKU, fix amount and status
// by mode, redeem the gift code for GIFT_CARD, compute the impact, persist,
// and credit the wallet unless the mode defers to a processor callback.
// Every persistent step happens in one unit of work.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (Transaction, error) {
	holder, err := holderFrom(req.UserID, req.MerchantID)
	if err != nil {
		return Transaction{}, err
	}

	rate, err := m.rates.Rate(ctx)
	if err != nil {
		return Transaction{}, err
	}
	threshold, err := m.rates.CertifiedThreshold(ctx)
	if err != nil {
		return Transaction{}, err
	}

	now := m.clock().UTC()

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	sku, err := resolveSKU(ctx, tx, req.SKUID, req.SKUCode)
	if err != nil {
		return Transaction{}, err
	}

	amount, status, err := amountAndStatus(sku, req.Amount)
	if err != nil {
		return Transaction{}, err
	}

	t := Transaction{
		ID:              uuid.NewString(),
		UserID:          nullable(req.UserID),
		MerchantID:      nullable(req.MerchantID),
		SKUID:           sku.ID,
		SKUCode:         sku.Code,
		PartnerID:       nullable(req.PartnerID),
		OrderRef:        nullable(req.OrderRef),
		Amount:          amount,
		PaymentStatus:   status,
		ProcessorRef:    nullable(req.ProcessorRef),
		CreatedAt:       now,
		StatusChangedAt: now,
	}

	if sku.Mode == catalog.ModeGiftCard {
		// Codes are issued as uppercase hex; tolerate pasted whitespace
		// and lowercase input.
		giftCode := strings.ToUpper(strings.TrimSpace(req.GiftCode))
		if giftCode == "" {
			return Transaction{}, fmt.Errorf("%w: gift code required", ErrValidation)
		}
		code, err := tx.RedeemGiftCode(ctx, giftCode, holder.Ref(), t.ID)
		if err != nil {
			return Transaction{}, err
		}
		if code.SKUID != sku.ID {
			// A code is only worth its own SKU's price. Aborting the
			// unit of work releases the code unredeemed.
			return Transaction{}, fmt.Errorf("%w: gift code not issued for sku %s", ErrValidation, sku.ID)
		}
		t.GiftCodeID = &code.ID
	}

	impact, err := pricing.Impact(amount, rate, sku.Multiplier)
	if err != nil {
		return Transaction{}, err
	}
	t.Impact = impact
	t.ConnectFlag = pricing.ConnectFlag(amount, sku.ConnectThreshold)

	// PAY credits on the completion callback; the other three modes
	// credit here, inside the same unit of work as the insert.
	creditNow := sku.Mode != catalog.ModePay
	t.WalletCredited = creditNow

	if err := tx.InsertTransaction(ctx, t); err != nil {
		return Transaction{}, err
	}
	if creditNow {
		if _, err := tx.CreditWallet(ctx, holder, t.Impact, t.Amount, threshold); err != nil {
			return Transaction{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Transaction{}, err
	}

	if m.events != nil {
		m.events.TransactionCreated(ctx, t)
	}
	return t, nil
}

// CreateManual is the administrative entry: same resolution, pricing and
// credit path as Create, but no gift code and no processor. The entry is
// terminal (n/a) and credits immediately. Justification and actor are
// mandatory; the HTTP layer records them on the audit trail.
func (m *Manager) CreateManual(ctx context.Context, req ManualRequest) (Transaction, error) {
	if strings.TrimSpace(req.Justification) == "" {
		return Transaction{}, fmt.Errorf("%w: justification required", ErrValidation)
	}
	if strings.TrimSpace(req.Actor) == "" {
		return Transaction{}, fmt.Errorf("%w: actor required", ErrValidation)
	}
	holder, err := holderFrom(req.UserID, req.MerchantID)
	if err != nil {
		return Transaction{}, err
	}

	rate, err := m.rates.Rate(ctx)
	if err != nil {
		return Transaction{}, err
	}
	threshold, err := m.rates.CertifiedThreshold(ctx)
	if err != nil {
		return Transaction{}, err
	}

	now := m.clock().UTC()

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return Transaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	sku, err := resolveSKU(ctx, tx, req.SKUID, req.SKUCode)
	if err != nil {
		return Transaction{}, err
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = sku.Price
	}
	if amount.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: negative amount", ErrInvalidValue)
	}

	impact, err := pricing.Impact(amount, rate, sku.Multiplier)
	if err != nil {
		return Transaction{}, err
	}

	t := Transaction{
		ID:              uuid.NewString(),
		UserID:          nullable(req.UserID),
		MerchantID:      nullable(req.MerchantID),
		SKUID:           sku.ID,
		SKUCode:         sku.Code,
		PartnerID:       nullable(req.PartnerID),
		OrderRef:        nullable(req.OrderRef),
		Amount:          amount,
		Impact:          impact,
		PaymentStatus:   StatusNA,
		ConnectFlag:     pricing.ConnectFlag(amount, sku.ConnectThreshold),
		WalletCredited:  true,
		CreatedAt:       now,
		StatusChangedAt: now,
	}

	if err := tx.InsertTransaction(ctx, t); err != nil {
		return Transaction{}, err
	}
	if _, err := tx.CreditWallet(ctx, holder, t.Impact, t.Amount, threshold); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return Transaction{}, err
	}

	if m.events != nil {
		m.events.TransactionCreated(ctx, t)
	}
	return t, nil
}

// Get returns a single transaction by id.
func (m *Manager) Get(ctx context.Context, id string) (Transaction, error) {
	if id == "" {
		return Transaction{}, ErrNotFound
	}
	return m.store.GetTransaction(ctx, id)
}

// ListForHolder returns the holder's transactions, newest first.
func (m *Manager) ListForHolder(ctx context.Context, h wallet.Holder, limit int) ([]Transaction, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return m.store.ListTransactionsForHolder(ctx, h, limit)
}

func holderFrom(userID, merchantID string) (wallet.Holder, error) {
	h := wallet.Holder{UserID: userID, MerchantID: merchantID}
	// A user id next to a merchant id means a user-held transaction with
	// merchant attribution; the wallet holder is the user.
	if userID != "" {
		h = wallet.UserHolder(userID)
	}
	if err := h.Validate(); err != nil {
		return wallet.Holder{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return h, nil
}

func resolveSKU(ctx context.Context, tx Tx, id, code string) (catalog.SKU, error) {
	var (
		sku catalog.SKU
		err error
	)
	switch {
	case id != "":
		sku, err = tx.FindSKUByID(ctx, id)
	case code != "":
		sku, err = tx.FindSKUByCode(ctx, code)
	default:
		return catalog.SKU{}, fmt.Errorf("%w: sku reference required", ErrValidation)
	}
	if err != nil {
		return catalog.SKU{}, err
	}
	if !sku.Active {
		return catalog.SKU{}, catalog.ErrSKUNotFound
	}
	return sku, nil
}

// amountAndStatus fixes the effective amount and the initial payment
// status by mode. CLAIM and GIFT_CARD take the SKU price and never touch a
// processor; PAY and ALLOCATION take the request amount and await the
// processor callback.
func amountAndStatus(sku catalog.SKU, reqAmount decimal.Decimal) (decimal.Decimal, Status, error) {
	switch sku.Mode {
	case catalog.ModeClaim, catalog.ModeGiftCard:
		return sku.Price, StatusNA, nil
	case catalog.ModePay, catalog.ModeAllocation:
		if !reqAmount.IsPositive() {
			return decimal.Decimal{}, "", fmt.Errorf("%w: amount must be positive for %s", ErrInvalidValue, sku.Mode)
		}
		return reqAmount, StatusPending, nil
	default:
		return decimal.Decimal{}, "", fmt.Errorf("%w: sku %s has unknown mode %q", ErrValidation, sku.ID, sku.Mode)
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
