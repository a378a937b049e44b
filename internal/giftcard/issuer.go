package giftcard

import (
	"context"
	"errors"
	"strings"
	"time"

	"impact-platform/internal/catalog"

	"github.com/google/uuid"
)

var (
	ErrInvalidBatch = errors.New("invalid batch request")
	ErrNotGiftSKU   = errors.New("sku does not issue gift codes")
)

// MaxBatchSize bounds one issuance run. Larger campaigns are split into
// multiple batches by the caller.
const MaxBatchSize = 10000

// Store is the persistence contract for issuance and direct code reads.
// Redemption does not go through it; the ledger composes RedeemCode inside
// its own unit of work.
type Store interface {
	InsertBatch(ctx context.Context, b Batch, codes []Code) error
	FindCode(ctx context.Context, code string) (Code, error)
}

// Issuer generates gift code batches for GIFT_CARD SKUs.
type Issuer struct {
	store Store
	skus  catalog.Repository
	clock func() time.Time
}

func NewIssuer(store Store, skus catalog.Repository) *Issuer {
	return &Issuer{store: store, skus: skus, clock: time.Now}
}

// IssueBatch creates count fresh unredeemed codes bound to the SKU. The SKU
// must exist, be active and be GIFT_CARD mode.
func (i *Issuer) IssueBatch(ctx context.Context, skuID string, count int, actor string) (Batch, []Code, error) {
	if count <= 0 || count > MaxBatchSize {
		return Batch{}, nil, ErrInvalidBatch
	}
	if actor == "" {
		return Batch{}, nil, ErrInvalidBatch
	}

	sku, err := i.skus.FindByID(ctx, skuID)
	if err != nil {
		return Batch{}, nil, err
	}
	if !sku.Active || sku.Mode != catalog.ModeGiftCard {
		return Batch{}, nil, ErrNotGiftSKU
	}

	now := i.clock().UTC()
	b := Batch{
		ID:        uuid.NewString(),
		SKUID:     sku.ID,
		CodeCount: count,
		IssuedBy:  actor,
		CreatedAt: now,
	}

	codes := make([]Code, 0, count)
	for n := 0; n < count; n++ {
		codes = append(codes, Code{
			ID:        uuid.NewString(),
			Code:      newCode(),
			SKUID:     sku.ID,
			BatchID:   b.ID,
			CreatedAt: now,
		})
	}

	if err := i.store.InsertBatch(ctx, b, codes); err != nil {
		return Batch{}, nil, err
	}
	return b, codes, nil
}

// FindCode resolves a secret to its code record, normalizing pasted input.
// Callers that intend to redeem must still go through the ledger; this read
// only tells them which SKU the code belongs to.
func (i *Issuer) FindCode(ctx context.Context, code string) (Code, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Code{}, ErrNotFound
	}
	return i.store.FindCode(ctx, code)
}

// newCode derives a 32-char uppercase secret from a v4 UUID. Uniqueness is
// enforced by the codes table; a collision fails the whole batch insert.
func newCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
