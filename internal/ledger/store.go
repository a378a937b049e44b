package ledger

import (
	"context"
	"errors"
	"time"

	"impact-platform/internal/catalog"
	"impact-platform/internal/giftcard"
	"impact-platform/internal/wallet"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("transaction not found")
	ErrInvalidValue      = errors.New("invalid amount")
	ErrInvalidTransition = errors.New("invalid payment status transition")
	ErrValidation        = errors.New("validation failed")
)

// Store is the ledger's persistence boundary. Begin opens the atomic unit
// of work every creation and every status transition runs inside.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	GetTransaction(ctx context.Context, id string) (Transaction, error)
	GetTransactionByProcessorRef(ctx context.Context, ref string) (Transaction, error)
	ListTransactionsForHolder(ctx context.Context, h wallet.Holder, limit int) ([]Transaction, error)
}

// Tx is one unit of work over the SKU catalog, the gift-code pool, the
// transactions table and the wallets. Rollback after a partial failure
// leaves no trace: no transaction row, no consumed gift code, no wallet
// movement. Rollback after Commit is a no-op.
type Tx interface {
	Commit() error
	Rollback() error

	FindSKUByID(ctx context.Context, id string) (catalog.SKU, error)
	FindSKUByCode(ctx context.Context, code string) (catalog.SKU, error)

	// RedeemGiftCode atomically flips the code to redeemed; a code that
	// was already consumed yields giftcard.ErrAlreadyRedeemed.
	RedeemGiftCode(ctx context.Context, code, redeemedBy, txID string) (giftcard.Code, error)

	InsertTransaction(ctx context.Context, t Transaction) error

	GetTransactionByProcessorRef(ctx context.Context, ref string) (Transaction, error)

	// TransitionStatus performs the guarded pending->target update and
	// reports whether this call won the transition. A false return means
	// the transaction was not pending anymore; the caller re-reads to
	// distinguish replay from conflict.
	TransitionStatus(ctx context.Context, id string, target Status, walletCredited bool, at time.Time) (bool, error)

	CreditWallet(ctx context.Context, h wallet.Holder, impact, amount decimal.Decimal, threshold decimal.NullDecimal) (wallet.Wallet, error)
	ApplyWalletDelta(ctx context.Context, h wallet.Holder, d wallet.Delta, threshold decimal.NullDecimal) (wallet.Wallet, error)
}

// RateSource supplies the pricing inputs a conversion needs. Both values
// are read before the unit of work opens; any committed rate is valid for
// the computation that observes it.
type RateSource interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
	CertifiedThreshold(ctx context.Context) (decimal.NullDecimal, error)
}

// Publisher receives lifecycle notifications after the owning unit of work
// commits. Implementations must not block the request path on broker
// trouble; delivery is best effort.
type Publisher interface {
	TransactionCreated(ctx context.Context, t Transaction)
	TransactionCompleted(ctx context.Context, t Transaction)
	TransactionFailed(ctx context.Context, t Transaction)
}
