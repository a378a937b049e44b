package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var ErrConfigNotFound = errors.New("config key not found")

// ConfigStore is the persistence contract for global config.
//
// SetValue must be atomic with its audit record: the previous value is read,
// the key is upserted, and a ConfigAudit row is appended, all in one
// transaction. A failed audit insert aborts the write.
type ConfigStore interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value, actor string) (old string, err error)
}

// Oracle serves the global conversion rate and the certified-asset threshold.
//
// Contract:
// - Rate returns the most recently committed positive rate. Reads may be
//   served from cache; a stale-but-committed value is acceptable because
//   transactions snapshot the rate they used at creation.
// - SetRate rejects non-positive rates before touching storage.
type Oracle struct {
	store    ConfigStore
	cache    *redis.Client
	cacheTTL time.Duration
}

const (
	rateCacheKey      = "pricing:rate"
	thresholdCacheKey = "pricing:certified_threshold"
)

// NewOracle wires the oracle. cache may be nil to disable caching (tests,
// local development).
func NewOracle(store ConfigStore, cache *redis.Client, cacheTTL time.Duration) *Oracle {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Oracle{store: store, cache: cache, cacheTTL: cacheTTL}
}

// Rate returns the currency cost of one impact unit.
func (o *Oracle) Rate(ctx context.Context) (decimal.Decimal, error) {
	if v, ok := o.cacheGet(ctx, rateCacheKey); ok {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			return d, nil
		}
	}

	raw, err := o.store.GetValue(ctx, KeyCurrentRate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("load current rate: %w", err)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse current rate %q: %w", raw, err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("stored rate %q: %w", raw, ErrInvalidValue)
	}

	o.cacheSet(ctx, rateCacheKey, raw)
	return d, nil
}

// SetRate replaces the global rate and returns the previous one (zero when
// the key was unset). Non-positive rates are rejected with ErrInvalidValue
// and leave storage untouched. A stored previous value that fails to parse
// is surfaced as an error; the replacement itself has already committed.
func (o *Oracle) SetRate(ctx context.Context, rate decimal.Decimal, actor string) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Decimal{}, ErrInvalidValue
	}
	if actor == "" {
		return decimal.Decimal{}, errors.New("actor required")
	}

	old, err := o.store.SetValue(ctx, KeyCurrentRate, rate.String(), actor)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("set current rate: %w", err)
	}

	o.cacheSet(ctx, rateCacheKey, rate.String())

	if old == "" {
		return decimal.Decimal{}, nil
	}
	prev, err := decimal.NewFromString(old)
	if err != nil {
		// A previous value that does not parse is a corrupt config row,
		// not a first-time write.
		return decimal.Decimal{}, fmt.Errorf("parse previous rate %q: %w", old, err)
	}
	return prev, nil
}

// CertifiedThreshold returns the lifetime-spend threshold, invalid when the
// key is unset. Callers treat non-positive values as disabled.
func (o *Oracle) CertifiedThreshold(ctx context.Context) (decimal.NullDecimal, error) {
	if v, ok := o.cacheGet(ctx, thresholdCacheKey); ok {
		if d, err := decimal.NewFromString(v); err == nil {
			return decimal.NullDecimal{Decimal: d, Valid: true}, nil
		}
	}

	raw, err := o.store.GetValue(ctx, KeyCertifiedThreshold)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NullDecimal{}, fmt.Errorf("load certified threshold: %w", err)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse certified threshold %q: %w", raw, err)
	}

	o.cacheSet(ctx, thresholdCacheKey, raw)
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// SetCertifiedThreshold replaces the certification threshold through the same
// audited write path as the rate. Zero disables certification; negatives are
// rejected.
func (o *Oracle) SetCertifiedThreshold(ctx context.Context, v decimal.Decimal, actor string) (decimal.NullDecimal, error) {
	if v.IsNegative() {
		return decimal.NullDecimal{}, ErrInvalidValue
	}
	if actor == "" {
		return decimal.NullDecimal{}, errors.New("actor required")
	}

	old, err := o.store.SetValue(ctx, KeyCertifiedThreshold, v.String(), actor)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("set certified threshold: %w", err)
	}

	o.cacheSet(ctx, thresholdCacheKey, v.String())

	if old == "" {
		return decimal.NullDecimal{}, nil
	}
	prev, err := decimal.NewFromString(old)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse previous threshold %q: %w", old, err)
	}
	return decimal.NullDecimal{Decimal: prev, Valid: true}, nil
}

// cacheGet treats any cache error as a miss; the store remains the source of
// truth and cache trouble must never fail a read.
func (o *Oracle) cacheGet(ctx context.Context, key string) (string, bool) {
	if o.cache == nil {
		return "", false
	}
	v, err := o.cache.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (o *Oracle) cacheSet(ctx context.Context, key, value string) {
	if o.cache == nil {
		return
	}
	// Best-effort: an unreachable cache only costs the next reader a store
	// round trip.
	o.cache.Set(ctx, key, value, o.cacheTTL)
}
