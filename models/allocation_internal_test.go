package models

import (
	"errors"
	"fmt"
	"testing"

	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

func TestValidateLineAllocations(t *testing.T) {
	ok := []NewSalesOrderStatePart{
		{PartId: 1, QuantityOrdered: decimal.NewFromInt(10), FulfilledBy: []NewAllocation{
			{PurchaseOrderId: 1, QuantityAllocated: decimal.NewFromInt(4)},
			{PurchaseOrderId: 2, QuantityAllocated: decimal.NewFromInt(6)},
		}},
		{PartId: 2, QuantityOrdered: decimal.NewFromInt(3)},
	}
	if err := validateLineAllocations(ok); err != nil {
		t.Fatalf("exact and partial allocations should validate: %v", err)
	}

	over := []NewSalesOrderStatePart{
		{PartId: 1, QuantityOrdered: decimal.NewFromInt(5), FulfilledBy: []NewAllocation{
			{PurchaseOrderId: 1, QuantityAllocated: decimal.NewFromInt(3)},
			{PurchaseOrderId: 2, QuantityAllocated: decimal.NewFromInt(3)},
		}},
	}
	if err := validateLineAllocations(over); !errors.Is(err, utils.ErrorOverAllocation) {
		t.Fatalf("want ErrorOverAllocation, got %v", err)
	}

	zeroQty := []NewSalesOrderStatePart{
		{PartId: 1, QuantityOrdered: decimal.Zero},
	}
	if err := validateLineAllocations(zeroQty); err == nil {
		t.Fatal("zero ordered quantity should not validate")
	}

	negativeAlloc := []NewSalesOrderStatePart{
		{PartId: 1, QuantityOrdered: decimal.NewFromInt(5), FulfilledBy: []NewAllocation{
			{PurchaseOrderId: 1, QuantityAllocated: decimal.NewFromInt(-1)},
		}},
	}
	if err := validateLineAllocations(negativeAlloc); err == nil {
		t.Fatal("negative allocated quantity should not validate")
	}
}

func TestReferencedPurchaseOrderIds(t *testing.T) {
	state := &SalesOrderState{
		Parts: []SalesOrderStatePart{
			{FulfilledBy: []SalesOrderAllocation{
				{PurchaseOrderId: 7, QuantityAllocated: decimal.NewFromInt(2)},
				{PurchaseOrderId: 3, QuantityAllocated: decimal.NewFromInt(1)},
			}},
			{FulfilledBy: []SalesOrderAllocation{
				{PurchaseOrderId: 7, QuantityAllocated: decimal.NewFromInt(5)},
			}},
			{},
		},
	}

	got := referencedPurchaseOrderIds(state)
	want := []int{7, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	if ids := referencedPurchaseOrderIds(&SalesOrderState{}); len(ids) != 0 {
		t.Fatalf("empty state should reference nothing, got %v", ids)
	}
}

func TestNextStateIndex(t *testing.T) {
	if idx := nextSalesStateIndex(nil); idx != 0 {
		t.Fatalf("first state index = %d, want 0", idx)
	}
	if idx := nextSalesStateIndex(&SalesOrderState{StateIndex: 4}); idx != 5 {
		t.Fatalf("got %d, want 5", idx)
	}
	if idx := nextPurchaseStateIndex(&PurchaseOrderState{StateIndex: 0}); idx != 1 {
		t.Fatalf("got %d, want 1", idx)
	}
}

// Only deadlocks and lock-wait timeouts re-enter the retry loop; everything
// else, domain errors included, surfaces to the caller as-is.
func TestRetryableMySQLError(t *testing.T) {
	if !retryableMySQLError(&mysql.MySQLError{Number: 1213}) {
		t.Fatal("deadlock (1213) should be retryable")
	}
	if !retryableMySQLError(fmt.Errorf("apply allocation: %w", &mysql.MySQLError{Number: 1205})) {
		t.Fatal("wrapped lock wait timeout (1205) should be retryable")
	}
	if retryableMySQLError(&mysql.MySQLError{Number: 1062}) {
		t.Fatal("duplicate key (1062) is not a serialization conflict")
	}
	if retryableMySQLError(utils.ErrorRecordNotFound) {
		t.Fatal("domain errors must not be retried")
	}
	if retryableMySQLError(errors.New("connection refused")) {
		t.Fatal("plain errors must not be retried")
	}
}
