package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const allocationMaxRetries = 3

// ApplyAllocation replaces the sales order's fulfillment picture in one
// atomic step: strip every backward link the order currently holds, then
// write the links the new snapshot declares, then append the snapshot
// itself. Either every write lands or none does; a reader never observes a
// half-stripped order.
//
// Deadlocks and lock-wait timeouts from concurrent allocations against
// shared purchase orders are retried a bounded number of times before
// surfacing as ErrorConflictRetryExhausted.
func ApplyAllocation(ctx context.Context, salesOrderId int, input *NewSalesOrderState) (*SalesOrder, error) {
	newStatus, err := ParseSalesOrderStatus(input.Status)
	if err != nil {
		return nil, err
	}
	if err := validateLineAllocations(input.Parts); err != nil {
		return nil, err
	}

	release, err := utils.OrderLock(ctx, "salesOrderAllocation", salesOrderId, "Allocation", "ApplyAllocation")
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := otel.Tracer("allocation").Start(ctx, "ApplyAllocation")
	defer span.End()

	db := config.GetDB()
	userId, _ := utils.GetUserIdFromContext(ctx)

	var saleOrder *SalesOrder
	for attempt := 0; attempt < allocationMaxRetries; attempt++ {
		saleOrder = nil
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result, txErr := applyAllocationTx(ctx, tx, salesOrderId, userId, newStatus, input)
			if txErr != nil {
				return txErr
			}
			saleOrder = result
			return nil
		})
		if err == nil {
			return saleOrder, nil
		}
		if !retryableMySQLError(err) {
			return nil, err
		}
		config.LogWarn(config.GetLogger(), "Allocation", "ApplyAllocation",
			"retrying after serialization conflict", map[string]any{
				"salesOrderId": salesOrderId,
				"attempt":      attempt + 1,
			})
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}

	config.LogError(config.GetLogger(), "Allocation", "ApplyAllocation",
		"retries exhausted", map[string]any{"salesOrderId": salesOrderId}, err)
	return nil, utils.ErrorConflictRetryExhausted
}

func applyAllocationTx(ctx context.Context, tx *gorm.DB, salesOrderId int, userId int,
	newStatus SalesOrderStatus, input *NewSalesOrderState) (*SalesOrder, error) {

	var saleOrder SalesOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&saleOrder, salesOrderId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		// Deadlocks and lost connections must reach the retry loop intact.
		return nil, err
	}

	if err := ValidateSalesOrderTransition(saleOrder.LatestStatus, newStatus); err != nil {
		return nil, err
	}

	// Strip first. The order's previous links vanish before any new link is
	// written, so replacing an allocation never double-counts on the
	// purchase order side.
	if err := revertAllocationsTx(ctx, tx, salesOrderId); err != nil {
		return nil, err
	}

	prev, err := latestSalesOrderStateTx(tx, salesOrderId)
	if err != nil {
		return nil, err
	}

	state := SalesOrderState{
		SalesOrderId:   salesOrderId,
		StateIndex:     nextSalesStateIndex(prev),
		Status:         newStatus,
		UpdatedBy:      userId,
		AdditionalInfo: input.AdditionalInfo,
	}
	for _, line := range input.Parts {
		if err := utils.ValidateResourceId[Part](ctx, line.PartId); err != nil {
			return nil, errors.New("part not found")
		}
		part := SalesOrderStatePart{
			PartId:          line.PartId,
			QuantityOrdered: line.QuantityOrdered,
			AdditionalInfo:  line.AdditionalInfo,
		}
		for _, alloc := range line.FulfilledBy {
			if err := writeBackwardLink(tx, salesOrderId, line.PartId, alloc); err != nil {
				return nil, err
			}
			part.FulfilledBy = append(part.FulfilledBy, SalesOrderAllocation{
				PurchaseOrderId:   alloc.PurchaseOrderId,
				QuantityAllocated: alloc.QuantityAllocated,
			})
		}
		state.Parts = append(state.Parts, part)
	}

	if err := tx.Create(&state).Error; err != nil {
		return nil, err
	}

	saleOrder.LatestStatus = newStatus
	if err := tx.Model(&saleOrder).Update("LatestStatus", newStatus).Error; err != nil {
		return nil, err
	}

	if err := createAllocationEventTx(ctx, tx, salesOrderId, AllocationEventApplied, &saleOrder, &state); err != nil {
		return nil, err
	}

	return &saleOrder, nil
}

// writeBackwardLink records on the purchase order's latest state that the
// given sales order draws from it. The target must carry a line for the
// same part with enough unallocated quantity left.
func writeBackwardLink(tx *gorm.DB, salesOrderId int, partId int, alloc NewAllocation) error {
	var purchaseOrder PurchaseOrder
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&purchaseOrder, alloc.PurchaseOrderId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorAllocationTargetMismatch
		}
		return err
	}

	poLatest, err := latestPurchaseOrderStateTx(tx, alloc.PurchaseOrderId)
	if err != nil {
		return err
	}
	if poLatest == nil {
		return utils.ErrorAllocationTargetMismatch
	}

	for _, line := range poLatest.Parts {
		if line.PartId != partId {
			continue
		}

		allocated := decimal.Zero
		for _, existing := range line.FulfilledFor {
			allocated = allocated.Add(existing.QuantityAllocated)
		}
		if allocated.Add(alloc.QuantityAllocated).GreaterThan(line.QuantityOrdered) {
			return utils.ErrorOverAllocation
		}

		return tx.Create(&PurchaseOrderAllocation{
			StatePartId:       line.ID,
			SalesOrderId:      salesOrderId,
			QuantityAllocated: alloc.QuantityAllocated,
		}).Error
	}

	return utils.ErrorAllocationTargetMismatch
}

// validateLineAllocations rejects snapshots where a line promises more
// fulfillment than it orders, before any database work starts.
func validateLineAllocations(parts []NewSalesOrderStatePart) error {
	for _, line := range parts {
		if line.QuantityOrdered.LessThanOrEqual(decimal.Zero) {
			return errors.New("quantity ordered must be positive")
		}
		total := decimal.Zero
		for _, alloc := range line.FulfilledBy {
			if alloc.QuantityAllocated.LessThanOrEqual(decimal.Zero) {
				return errors.New("allocated quantity must be positive")
			}
			total = total.Add(alloc.QuantityAllocated)
		}
		if total.GreaterThan(line.QuantityOrdered) {
			return utils.ErrorOverAllocation
		}
	}
	return nil
}

// RevertAllocations strips the order's backward links without appending a
// new snapshot, for callers that need a bare un-link (the delete path uses
// it too).
func RevertAllocations(ctx context.Context, salesOrderId int) error {
	if err := utils.ValidateResourceId[SalesOrder](ctx, salesOrderId); err != nil {
		return utils.ErrorRecordNotFound
	}

	release, err := utils.OrderLock(ctx, "salesOrderAllocation", salesOrderId, "Allocation", "RevertAllocations")
	if err != nil {
		return err
	}
	defer release()

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := revertAllocationsTx(ctx, tx, salesOrderId); err != nil {
			return err
		}
		return createAllocationEventTx(ctx, tx, salesOrderId, AllocationEventReverted, nil, nil)
	})
}

func retryableMySQLError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	// 1213 deadlock, 1205 lock wait timeout
	return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
}
