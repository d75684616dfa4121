package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"gorm.io/gorm"
)

// Counter names recognized by NextOrderNumber.
const (
	CounterSalesOrder    = "salesOrder"
	CounterPurchaseOrder = "purchaseOrder"
)

// counterMaxSequence is the last value the 6-digit zero-padded order number
// format can represent. Passing it is a hard error, not a silent wrap.
const counterMaxSequence = 999999

// OrderNumberCounter is a single atomically-updated row per order type.
// It is never mirrored into an in-process counter, so numbering stays
// correct across multiple server instances.
type OrderNumberCounter struct {
	Name          string    `gorm:"primaryKey;size:50" json:"name"`
	Prefix        string    `gorm:"size:10;not null" json:"prefix"`
	SequenceValue int64     `gorm:"not null;default:0" json:"sequence_value"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

var counterPrefixes = map[string]string{
	CounterSalesOrder:    "SO",
	CounterPurchaseOrder: "PO",
}

const counterPrefixCacheKey = "orderNumberPrefixes"

// SeedOrderNumberCounters creates the two counter rows if absent and drops
// the cached prefix map so the next lookup reads the seeded rows.
func SeedOrderNumberCounters(ctx context.Context, db *gorm.DB) error {
	for name, prefix := range counterPrefixes {
		counter := OrderNumberCounter{Name: name, Prefix: prefix}
		if err := db.WithContext(ctx).
			Where("name = ?", name).
			FirstOrCreate(&counter).Error; err != nil {
			return err
		}
	}
	return config.RemoveRedisKey(counterPrefixCacheKey)
}

// get the display prefix for a counter, redis or db
func counterPrefix(ctx context.Context, tx *gorm.DB, counterName string) (string, error) {
	prefixes := make(map[string]string)
	exists, err := config.GetRedisObject(counterPrefixCacheKey, &prefixes)
	if err != nil {
		return "", err
	}
	if !exists {
		var counters []OrderNumberCounter
		if err := tx.WithContext(ctx).Find(&counters).Error; err != nil {
			return "", err
		}
		for _, counter := range counters {
			prefixes[counter.Name] = counter.Prefix
		}
		if err := config.SetRedisObject(counterPrefixCacheKey, &prefixes, 0); err != nil {
			return "", err
		}
	}

	prefix, ok := prefixes[counterName]
	if !ok || prefix == "" {
		return "", utils.ErrorInvalidCounterName
	}
	return prefix, nil
}

// NextOrderNumber atomically increments the named counter and returns the
// formatted post-increment number ("SO-000001" / "PO-000001").
//
// The increment-and-read is a single UPDATE using MySQL's LAST_INSERT_ID
// expression, never a read followed by a write, so concurrent order creation
// cannot observe duplicate numbers. It must run inside the caller's
// transaction: LAST_INSERT_ID is connection-scoped and the follow-up SELECT
// has to see the same connection.
func NextOrderNumber(ctx context.Context, tx *gorm.DB, counterName string) (string, error) {
	// Name validation never touches the database; the seed map is the set of
	// counters this codebase knows about.
	if _, ok := counterPrefixes[counterName]; !ok {
		return "", utils.ErrorInvalidCounterName
	}

	result := tx.WithContext(ctx).Exec(
		"UPDATE order_number_counters SET sequence_value = LAST_INSERT_ID(sequence_value + 1) WHERE name = ?",
		counterName,
	)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", fmt.Errorf("counter row %q is not seeded", counterName)
	}

	var seq int64
	if err := tx.WithContext(ctx).Raw("SELECT LAST_INSERT_ID()").Scan(&seq).Error; err != nil {
		return "", err
	}
	if seq > counterMaxSequence {
		return "", utils.ErrorCounterExhausted
	}

	prefix, err := counterPrefix(ctx, tx, counterName)
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(prefix, seq), nil
}

// FormatOrderNumber renders `<PREFIX>-<6-digit zero-padded sequence>`.
func FormatOrderNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%06d", prefix, seq)
}
