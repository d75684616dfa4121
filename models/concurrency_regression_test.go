package models_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/models"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"github.com/shopspring/decimal"
)

// Several sales orders hammer the same purchase order line at once. The row
// locks serialize the writers, so afterwards every order's backward entry is
// present exactly once and the line's total matches the sum of the requests.
func TestConcurrentAllocationSharedPurchaseOrder(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "orders_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := config.ClearRedis(ctx); err != nil {
		t.Fatalf("ClearRedis: %v", err)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Parallel Trading"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Parallel Supply"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	part, err := models.CreatePart(ctx, &models.NewPart{
		SupplierId: supplier.ID,
		Name:       "Bearing",
		UnitPrice:  decimal.NewFromInt(700),
	})
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}

	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{SupplierId: supplier.ID})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if _, err := models.AppendPurchaseOrderState(ctx, po.ID, &models.NewPurchaseOrderState{
		Status: string(models.PurchaseOrderStatusNew),
		Parts: []models.NewPurchaseOrderStatePart{
			{PartId: part.ID, QuantityOrdered: decimal.NewFromInt(100)},
		},
	}); err != nil {
		t.Fatalf("AppendPurchaseOrderState: %v", err)
	}

	const writers = 8
	perOrder := decimal.NewFromInt(5)

	salesOrders := make([]*models.SalesOrder, writers)
	for i := range salesOrders {
		so, err := models.CreateSalesOrder(ctx, &models.NewSalesOrder{CustomerId: customer.ID})
		if err != nil {
			t.Fatalf("CreateSalesOrder(%d): %v", i, err)
		}
		salesOrders[i] = so
	}

	var wg sync.WaitGroup
	allocErrs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, allocErrs[i] = models.ApplyAllocation(ctx, salesOrders[i].ID, &models.NewSalesOrderState{
				Status: string(models.SalesOrderStatusQuotation),
				Parts: []models.NewSalesOrderStatePart{
					{PartId: part.ID, QuantityOrdered: perOrder, FulfilledBy: []models.NewAllocation{
						{PurchaseOrderId: po.ID, QuantityAllocated: perOrder},
					}},
				},
			})
		}(i)
	}
	wg.Wait()

	for i, err := range allocErrs {
		if err != nil {
			t.Fatalf("ApplyAllocation for order %d: %v", salesOrders[i].ID, err)
		}
	}

	// No lost updates: one backward entry per sales order, full total.
	state, err := models.GetLatestPurchaseOrderState(ctx, po.ID)
	if err != nil || state == nil {
		t.Fatalf("GetLatestPurchaseOrderState: state=%v err=%v", state, err)
	}
	if len(state.Parts) != 1 {
		t.Fatalf("purchase order latest state has %d lines", len(state.Parts))
	}
	entries := make(map[int]int)
	total := decimal.Zero
	for _, alloc := range state.Parts[0].FulfilledFor {
		entries[alloc.SalesOrderId]++
		total = total.Add(alloc.QuantityAllocated)
	}
	for _, so := range salesOrders {
		if entries[so.ID] != 1 {
			t.Fatalf("sales order %d has %d backward entries, want 1", so.ID, entries[so.ID])
		}
	}
	want := perOrder.Mul(decimal.NewFromInt(writers))
	if !total.Equal(want) {
		t.Fatalf("allocated total = %s, want %s", total, want)
	}

	// Every order also holds its forward link.
	for _, so := range salesOrders {
		soState, err := models.GetLatestSalesOrderState(ctx, so.ID)
		if err != nil || soState == nil {
			t.Fatalf("GetLatestSalesOrderState(%d): state=%v err=%v", so.ID, soState, err)
		}
		if len(soState.Parts) != 1 || len(soState.Parts[0].FulfilledBy) != 1 {
			t.Fatalf("order %d forward links: %+v", so.ID, soState.Parts)
		}
	}
}

// Concurrent order creation pulls from the shared counter; the single-UPDATE
// increment means the sequence values come out dense and unique even under
// contention.
func TestConcurrentOrderNumberAssignment(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "orders_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := config.ClearRedis(ctx); err != nil {
		t.Fatalf("ClearRedis: %v", err)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Burst Orders"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	created := make([]*models.SalesOrder, writers)
	createErrs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created[i], createErrs[i] = models.CreateSalesOrder(ctx, &models.NewSalesOrder{CustomerId: customer.ID})
		}(i)
	}
	wg.Wait()

	for i, err := range createErrs {
		if err != nil {
			t.Fatalf("CreateSalesOrder(%d): %v", i, err)
		}
	}

	sequences := make([]int64, 0, writers)
	numbers := make(map[string]bool)
	for _, so := range created {
		if numbers[so.OrderNumber] {
			t.Fatalf("duplicate order number %s", so.OrderNumber)
		}
		numbers[so.OrderNumber] = true
		if want := models.FormatOrderNumber("SO", so.SequenceNo); so.OrderNumber != want {
			t.Fatalf("order number %q does not match sequence %d", so.OrderNumber, so.SequenceNo)
		}
		sequences = append(sequences, so.SequenceNo)
	}

	// The counter started fresh, so the values are exactly 1..writers with
	// no gaps and no duplicates.
	sort.Slice(sequences, func(i, j int) bool { return sequences[i] < sequences[j] })
	for i, seq := range sequences {
		if seq != int64(i+1) {
			t.Fatalf("sequence values not dense: %v", sequences)
		}
	}
}
