package models

import (
	"fmt"

	"bitbucket.org/mmdatafocus/orders_backend/utils"
)

type SalesOrderStatus string

const (
	SalesOrderStatusQuotation  SalesOrderStatus = "Quotation"
	SalesOrderStatusConfirmed  SalesOrderStatus = "Confirmed"
	SalesOrderStatusPreparing  SalesOrderStatus = "Preparing"
	SalesOrderStatusInDelivery SalesOrderStatus = "InDelivery"
	SalesOrderStatusReceived   SalesOrderStatus = "Received"
	SalesOrderStatusFulfilled  SalesOrderStatus = "Fulfilled"
)

// salesOrderLifecycle is the closed, linear status sequence. No transition
// moves backward; the only operation is appending a state with the next
// status (or the same status, for a revision snapshot).
var salesOrderLifecycle = []SalesOrderStatus{
	SalesOrderStatusQuotation,
	SalesOrderStatusConfirmed,
	SalesOrderStatusPreparing,
	SalesOrderStatusInDelivery,
	SalesOrderStatusReceived,
	SalesOrderStatusFulfilled,
}

func ParseSalesOrderStatus(s string) (SalesOrderStatus, error) {
	for _, status := range salesOrderLifecycle {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown sales order status %q", s)
}

// ValidateSalesOrderTransition allows either a revision at the current
// status or the single defined successor.
func ValidateSalesOrderTransition(current, next SalesOrderStatus) error {
	if current == next {
		return nil
	}
	for i, status := range salesOrderLifecycle {
		if status == current {
			if i+1 < len(salesOrderLifecycle) && salesOrderLifecycle[i+1] == next {
				return nil
			}
			return utils.ErrorIllegalStatusTransition
		}
	}
	return utils.ErrorIllegalStatusTransition
}

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusNew       PurchaseOrderStatus = "New"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "Confirmed"
	PurchaseOrderStatusSend      PurchaseOrderStatus = "Send"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "Received"
	PurchaseOrderStatusFulfilled PurchaseOrderStatus = "Fulfilled"
)

var purchaseOrderLifecycle = []PurchaseOrderStatus{
	PurchaseOrderStatusNew,
	PurchaseOrderStatusConfirmed,
	PurchaseOrderStatusSend,
	PurchaseOrderStatusReceived,
	PurchaseOrderStatusFulfilled,
}

func ParsePurchaseOrderStatus(s string) (PurchaseOrderStatus, error) {
	for _, status := range purchaseOrderLifecycle {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown purchase order status %q", s)
}

func ValidatePurchaseOrderTransition(current, next PurchaseOrderStatus) error {
	if current == next {
		return nil
	}
	for i, status := range purchaseOrderLifecycle {
		if status == current {
			if i+1 < len(purchaseOrderLifecycle) && purchaseOrderLifecycle[i+1] == next {
				return nil
			}
			return utils.ErrorIllegalStatusTransition
		}
	}
	return utils.ErrorIllegalStatusTransition
}

// Allocation event types written to the outbox.
const (
	AllocationEventApplied  = "ALLOCATION_APPLIED"
	AllocationEventReverted = "ALLOCATION_REVERTED"
)

// Outbox publish statuses for AllocationEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending = "PENDING"
	OutboxPublishStatusSent    = "SENT"
	OutboxPublishStatusFailed  = "FAILED"
)
