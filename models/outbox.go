package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllocationEventRecord is the transactional outbox row for allocation
// events. It is written inside the same transaction as the allocation
// itself, so an event exists if and only if the allocation committed. A
// separate processor claims pending rows and publishes them.
type AllocationEventRecord struct {
	ID            int        `gorm:"primary_key" json:"id"`
	SalesOrderId  int        `gorm:"index;not null" json:"sales_order_id"`
	EventType     string     `gorm:"size:30;not null" json:"event_type"`
	Payload       []byte     `gorm:"type:json" json:"payload"`
	CorrelationId string     `gorm:"size:40;not null" json:"correlation_id"`
	PublishStatus string     `gorm:"size:10;index;not null;default:'PENDING'" json:"publish_status"`
	PublishedId   string     `gorm:"size:40" json:"published_id"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	PublishedAt   *time.Time `json:"published_at"`
}

type allocationEventPayload struct {
	OrderNumber string `json:"order_number,omitempty"`
	Status      string `json:"status,omitempty"`
	StateIndex  *int   `json:"state_index,omitempty"`
	LineCount   int    `json:"line_count,omitempty"`
}

func createAllocationEventTx(ctx context.Context, tx *gorm.DB, salesOrderId int,
	eventType string, saleOrder *SalesOrder, state *SalesOrderState) error {

	payload := allocationEventPayload{}
	if saleOrder != nil {
		payload.OrderNumber = saleOrder.OrderNumber
		payload.Status = string(saleOrder.LatestStatus)
	}
	if state != nil {
		idx := state.StateIndex
		payload.StateIndex = &idx
		payload.LineCount = len(state.Parts)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	if correlationId == "" {
		correlationId = uuid.NewString()
	}

	return tx.Create(&AllocationEventRecord{
		SalesOrderId:  salesOrderId,
		EventType:     eventType,
		Payload:       body,
		CorrelationId: correlationId,
		PublishStatus: OutboxPublishStatusPending,
	}).Error
}

// ClaimPendingAllocationEvents picks up to batchSize pending rows with a
// SKIP LOCKED read so concurrent processors never fight over the same row,
// and marks them in one round trip by bumping Attempts.
func ClaimPendingAllocationEvents(ctx context.Context, batchSize int) ([]AllocationEventRecord, error) {
	db := config.GetDB()

	var claimed []AllocationEventRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`
			SELECT * FROM allocation_event_records
			WHERE publish_status = ?
			ORDER BY id
			LIMIT ?
			FOR UPDATE SKIP LOCKED`, OutboxPublishStatusPending, batchSize).
			Scan(&claimed).Error; err != nil {
			return err
		}
		for i := range claimed {
			claimed[i].Attempts++
			if err := tx.Model(&AllocationEventRecord{}).
				Where("id = ?", claimed[i].ID).
				Update("attempts", claimed[i].Attempts).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkAllocationEventPublished records the broker-assigned message id.
func MarkAllocationEventPublished(ctx context.Context, id int, publishedId string) error {
	db := config.GetDB()
	now := time.Now()
	return db.WithContext(ctx).Model(&AllocationEventRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"publish_status": OutboxPublishStatusSent,
			"published_id":   publishedId,
			"published_at":   &now,
		}).Error
}

// MarkAllocationEventFailed parks the row after too many attempts; rows
// under the cap fall back to pending and get claimed again.
func MarkAllocationEventFailed(ctx context.Context, id int, attempts int, maxAttempts int) error {
	db := config.GetDB()
	status := OutboxPublishStatusPending
	if attempts >= maxAttempts {
		status = OutboxPublishStatusFailed
	}
	return db.WithContext(ctx).Model(&AllocationEventRecord{}).
		Where("id = ?", id).
		Update("publish_status", status).Error
}

// ToMessage converts an outbox row into the wire payload.
func (r AllocationEventRecord) ToMessage() config.AllocationMessage {
	return config.AllocationMessage{
		ID:            r.ID,
		SalesOrderId:  r.SalesOrderId,
		EventType:     r.EventType,
		OccurredAt:    r.CreatedAt,
		Payload:       r.Payload,
		CorrelationId: r.CorrelationId,
	}
}
