package models

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// revertAllocationsTx removes every backward link this sales order holds on
// the purchase orders named by its current latest state. Deletion happens in
// place on each purchase order's latest state; no new history entry is
// appended on either side.
//
// A forward link whose target purchase order no longer exists is skipped
// with a warning. Reversion must not fail because the counterparty was
// deleted out from under the sales order.
func revertAllocationsTx(ctx context.Context, tx *gorm.DB, salesOrderId int) error {
	latest, err := latestSalesOrderStateTx(tx, salesOrderId)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	purchaseOrderIds := referencedPurchaseOrderIds(latest)
	for _, purchaseOrderId := range purchaseOrderIds {
		var purchaseOrder PurchaseOrder
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&purchaseOrder, purchaseOrderId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			config.LogWarn(config.GetLogger(), "Allocation", "revertAllocationsTx",
				fmt.Sprintf("skipping dangling purchase order %d referenced by sales order %d",
					purchaseOrderId, salesOrderId), nil)
			continue
		}
		if err != nil {
			return err
		}

		poLatest, err := latestPurchaseOrderStateTx(tx, purchaseOrderId)
		if err != nil {
			return err
		}
		if poLatest == nil {
			continue
		}

		// Every backward entry pointing at this sales order goes, across all
		// lines of the latest snapshot. Entries for other sales orders stay.
		for _, line := range poLatest.Parts {
			if err := tx.Where("state_part_id = ? AND sales_order_id = ?", line.ID, salesOrderId).
				Delete(&PurchaseOrderAllocation{}).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// referencedPurchaseOrderIds collects the distinct purchase orders the given
// snapshot points at through its forward links, in first-seen order.
func referencedPurchaseOrderIds(state *SalesOrderState) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, line := range state.Parts {
		for _, alloc := range line.FulfilledBy {
			if seen[alloc.PurchaseOrderId] {
				continue
			}
			seen[alloc.PurchaseOrderId] = true
			ids = append(ids, alloc.PurchaseOrderId)
		}
	}
	return ids
}
