package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"impact-platform/internal/catalog"
	"impact-platform/internal/giftcard"
	"impact-platform/internal/wallet"
	"impact-platform/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is a self-contained in-memory world. Besides ledger.Store it
// implements catalog.Repository, giftcard.Store and wallet.Store, so tests
// can run every service against one shared state. Not intended for
// production use.
//
// Begin holds the store lock until Commit or Rollback, which serializes
// units of work the way the database would.
type MemoryStore struct {
	mu sync.Mutex

	skus    map[string]catalog.SKU   // by id
	codes   map[string]giftcard.Code // by secret
	wallets map[string]wallet.Wallet // by Holder.Ref()
	txs     map[string]Transaction   // by id
	byRef   map[string]string        // processor_ref -> transaction id

	batches     []giftcard.Batch
	adjustments []wallet.Adjustment

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		skus:    make(map[string]catalog.SKU),
		codes:   make(map[string]giftcard.Code),
		wallets: make(map[string]wallet.Wallet),
		txs:     make(map[string]Transaction),
		byRef:   make(map[string]string),
		clock:   time.Now,
	}
}

// PutSKU seeds the catalog.
func (s *MemoryStore) PutSKU(sku catalog.SKU) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skus[sku.ID] = sku
}

func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memoryTx{
		s: s,
		snap: memSnapshot{
			txs:     cloneMap(s.txs),
			byRef:   cloneMap(s.byRef),
			codes:   cloneMap(s.codes),
			wallets: cloneMap(s.wallets),
		},
	}, nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) GetTransactionByProcessorRef(ctx context.Context, ref string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byProcessorRefLocked(ref)
}

func (s *MemoryStore) ListTransactionsForHolder(ctx context.Context, h wallet.Holder, limit int) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Transaction{}
	for _, t := range s.txs {
		if heldBy(t, h) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindByID implements catalog.Repository.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (catalog.SKU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skuByIDLocked(id)
}

// FindByCode implements catalog.Repository.
func (s *MemoryStore) FindByCode(ctx context.Context, code string) (catalog.SKU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skuByCodeLocked(code)
}

// InsertBatch implements giftcard.Store.
func (s *MemoryStore) InsertBatch(ctx context.Context, b giftcard.Batch, codes []giftcard.Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range codes {
		if _, dup := s.codes[c.Code]; dup {
			return fmt.Errorf("%w: gift_card_codes_code_key", utils.ErrConstraintViolation)
		}
	}
	s.batches = append(s.batches, b)
	for _, c := range codes {
		s.codes[c.Code] = c
	}
	return nil
}

// FindCode implements giftcard.Store.
func (s *MemoryStore) FindCode(ctx context.Context, code string) (giftcard.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[code]
	if !ok {
		return giftcard.Code{}, giftcard.ErrNotFound
	}
	return c, nil
}

// Get implements wallet.Store.
func (s *MemoryStore) Get(ctx context.Context, h wallet.Holder) (wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[h.Ref()]
	if !ok {
		return wallet.Wallet{}, wallet.ErrNotFound
	}
	return w, nil
}

// Adjust implements wallet.Store.
func (s *MemoryStore) Adjust(ctx context.Context, h wallet.Holder, a wallet.Adjustment, threshold decimal.NullDecimal) (wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.getOrCreateWalletLocked(h)
	a.WalletID = w.ID
	s.adjustments = append(s.adjustments, a)

	w = w.Apply(wallet.Delta{Accumulated: a.ImpactDelta, Spent: a.AmountDelta}, threshold, s.clock().UTC())
	s.wallets[h.Ref()] = w
	return w, nil
}

// Adjustments returns recorded wallet adjustments, oldest first.
func (s *MemoryStore) Adjustments() []wallet.Adjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wallet.Adjustment, len(s.adjustments))
	copy(out, s.adjustments)
	return out
}

// Batches returns issued gift-code batches, oldest first.
func (s *MemoryStore) Batches() []giftcard.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]giftcard.Batch, len(s.batches))
	copy(out, s.batches)
	return out
}

func (s *MemoryStore) skuByIDLocked(id string) (catalog.SKU, error) {
	sku, ok := s.skus[id]
	if !ok {
		return catalog.SKU{}, catalog.ErrSKUNotFound
	}
	return sku, nil
}

func (s *MemoryStore) skuByCodeLocked(code string) (catalog.SKU, error) {
	for _, sku := range s.skus {
		if sku.Code == code {
			return sku, nil
		}
	}
	return catalog.SKU{}, catalog.ErrSKUNotFound
}

func (s *MemoryStore) byProcessorRefLocked(ref string) (Transaction, error) {
	id, ok := s.byRef[ref]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return s.txs[id], nil
}

func (s *MemoryStore) getOrCreateWalletLocked(h wallet.Holder) wallet.Wallet {
	if w, ok := s.wallets[h.Ref()]; ok {
		return w
	}
	now := s.clock().UTC()
	w := wallet.Wallet{
		ID:         uuid.NewString(),
		UserID:     nullable(h.UserID),
		MerchantID: nullable(h.MerchantID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.wallets[h.Ref()] = w
	return w
}

func heldBy(t Transaction, h wallet.Holder) bool {
	if h.UserID != "" {
		return t.UserID != nil && *t.UserID == h.UserID
	}
	return t.UserID == nil && t.MerchantID != nil && *t.MerchantID == h.MerchantID
}

type memSnapshot struct {
	txs     map[string]Transaction
	byRef   map[string]string
	codes   map[string]giftcard.Code
	wallets map[string]wallet.Wallet
}

// memoryTx mutates the store in place under the lock taken by Begin;
// Rollback restores the snapshot.
type memoryTx struct {
	s    *MemoryStore
	snap memSnapshot
	done bool
}

func (t *memoryTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.s.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.s.txs = t.snap.txs
	t.s.byRef = t.snap.byRef
	t.s.codes = t.snap.codes
	t.s.wallets = t.snap.wallets
	t.s.mu.Unlock()
	return nil
}

func (t *memoryTx) FindSKUByID(ctx context.Context, id string) (catalog.SKU, error) {
	return t.s.skuByIDLocked(id)
}

func (t *memoryTx) FindSKUByCode(ctx context.Context, code string) (catalog.SKU, error) {
	return t.s.skuByCodeLocked(code)
}

func (t *memoryTx) RedeemGiftCode(ctx context.Context, code, redeemedBy, txID string) (giftcard.Code, error) {
	c, ok := t.s.codes[code]
	if !ok {
		return giftcard.Code{}, giftcard.ErrNotFound
	}
	if c.Redeemed {
		return giftcard.Code{}, giftcard.ErrAlreadyRedeemed
	}
	now := t.s.clock().UTC()
	c.Redeemed = true
	c.RedeemedBy = redeemedBy
	c.RedeemedTx = txID
	c.RedeemedAt = &now
	t.s.codes[code] = c
	return c, nil
}

func (t *memoryTx) InsertTransaction(ctx context.Context, tr Transaction) error {
	if _, dup := t.s.txs[tr.ID]; dup {
		return fmt.Errorf("%w: transactions_pkey", utils.ErrConstraintViolation)
	}
	if tr.ProcessorRef != nil {
		if _, dup := t.s.byRef[*tr.ProcessorRef]; dup {
			return fmt.Errorf("%w: transactions_processor_ref_key", utils.ErrConstraintViolation)
		}
		t.s.byRef[*tr.ProcessorRef] = tr.ID
	}
	t.s.txs[tr.ID] = tr
	return nil
}

func (t *memoryTx) GetTransactionByProcessorRef(ctx context.Context, ref string) (Transaction, error) {
	return t.s.byProcessorRefLocked(ref)
}

func (t *memoryTx) TransitionStatus(ctx context.Context, id string, target Status, walletCredited bool, at time.Time) (bool, error) {
	tr, ok := t.s.txs[id]
	if !ok {
		return false, nil
	}
	if tr.PaymentStatus != StatusPending {
		return false, nil
	}
	tr.PaymentStatus = target
	tr.WalletCredited = walletCredited
	tr.StatusChangedAt = at
	t.s.txs[id] = tr
	return true, nil
}

func (t *memoryTx) CreditWallet(ctx context.Context, h wallet.Holder, impact, amount decimal.Decimal, threshold decimal.NullDecimal) (wallet.Wallet, error) {
	w := t.s.getOrCreateWalletLocked(h)
	w = w.Apply(wallet.CreditDelta(impact, amount), threshold, t.s.clock().UTC())
	t.s.wallets[h.Ref()] = w
	return w, nil
}

func (t *memoryTx) ApplyWalletDelta(ctx context.Context, h wallet.Holder, d wallet.Delta, threshold decimal.NullDecimal) (wallet.Wallet, error) {
	w, ok := t.s.wallets[h.Ref()]
	if !ok {
		return wallet.Wallet{}, wallet.ErrNotFound
	}
	w = w.Apply(d, threshold, t.s.clock().UTC())
	t.s.wallets[h.Ref()] = w
	return w, nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
