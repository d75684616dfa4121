package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/models"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"github.com/shopspring/decimal"
)

// End-to-end allocation flow against real MySQL + Redis: create orders,
// allocate a sales order against purchase orders, reallocate, tolerate a
// deleted counterparty, and roll fulfilled value up into statistics.
func TestAllocationLifecycle(t *testing.T) {
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
	// A recycled host port must not leak cached prefixes into this run.
	if err := config.ClearRedis(ctx); err != nil {
		t.Fatalf("ClearRedis: %v", err)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Shwe Trading"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Golden Supply"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	bolt, err := models.CreatePart(ctx, &models.NewPart{
		SupplierId: supplier.ID,
		Name:       "Hex Bolt M8",
		Sku:        "BOLT-M8",
		UnitPrice:  decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}

	// Order numbers come from the shared counters and are dense.
	so1, err := models.CreateSalesOrder(ctx, &models.NewSalesOrder{CustomerId: customer.ID})
	if err != nil {
		t.Fatalf("CreateSalesOrder: %v", err)
	}
	so2, err := models.CreateSalesOrder(ctx, &models.NewSalesOrder{CustomerId: customer.ID})
	if err != nil {
		t.Fatalf("CreateSalesOrder: %v", err)
	}
	numberRe := regexp.MustCompile(`^SO-\d{6}$`)
	if !numberRe.MatchString(so1.OrderNumber) || !numberRe.MatchString(so2.OrderNumber) {
		t.Fatalf("bad order numbers: %q %q", so1.OrderNumber, so2.OrderNumber)
	}
	if so2.SequenceNo != so1.SequenceNo+1 {
		t.Fatalf("sales order numbers not sequential: %d then %d", so1.SequenceNo, so2.SequenceNo)
	}
	if so1.LatestStatus != models.SalesOrderStatusQuotation {
		t.Fatalf("new sales order status = %q", so1.LatestStatus)
	}

	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{SupplierId: supplier.ID})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if !strings.HasPrefix(po.OrderNumber, "PO-") {
		t.Fatalf("purchase order number %q", po.OrderNumber)
	}

	// Give the purchase order capacity: 10 bolts on its first state.
	if _, err := models.AppendPurchaseOrderState(ctx, po.ID, &models.NewPurchaseOrderState{
		Status: string(models.PurchaseOrderStatusNew),
		Parts: []models.NewPurchaseOrderStatePart{
			{PartId: bolt.ID, QuantityOrdered: decimal.NewFromInt(10)},
		},
	}); err != nil {
		t.Fatalf("AppendPurchaseOrderState: %v", err)
	}

	// so1 takes 4 of the 10.
	if _, err := models.ApplyAllocation(ctx, so1.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusQuotation),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: bolt.ID, QuantityOrdered: decimal.NewFromInt(4), FulfilledBy: []models.NewAllocation{
				{PurchaseOrderId: po.ID, QuantityAllocated: decimal.NewFromInt(4)},
			}},
		},
	}); err != nil {
		t.Fatalf("ApplyAllocation(so1): %v", err)
	}

	soState, err := models.GetLatestSalesOrderState(ctx, so1.ID)
	if err != nil || soState == nil {
		t.Fatalf("GetLatestSalesOrderState: state=%v err=%v", soState, err)
	}
	if len(soState.Parts) != 1 || len(soState.Parts[0].FulfilledBy) != 1 {
		t.Fatalf("forward links not written: %+v", soState.Parts)
	}
	if soState.Parts[0].FulfilledBy[0].PurchaseOrderId != po.ID {
		t.Fatalf("forward link points at %d, want %d", soState.Parts[0].FulfilledBy[0].PurchaseOrderId, po.ID)
	}

	if got := backwardQuantity(t, ctx, po.ID, so1.ID); !got.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("backward quantity for so1 = %s, want 4", got)
	}

	// so2 takes 3 from the same purchase order.
	if _, err := models.ApplyAllocation(ctx, so2.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusQuotation),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: bolt.ID, QuantityOrdered: decimal.NewFromInt(3), FulfilledBy: []models.NewAllocation{
				{PurchaseOrderId: po.ID, QuantityAllocated: decimal.NewFromInt(3)},
			}},
		},
	}); err != nil {
		t.Fatalf("ApplyAllocation(so2): %v", err)
	}

	// Reallocating so1 down to 2 must strip only so1's old entry; so2's
	// entry on the shared purchase order survives the round trip.
	if _, err := models.ApplyAllocation(ctx, so1.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusQuotation),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: bolt.ID, QuantityOrdered: decimal.NewFromInt(4), FulfilledBy: []models.NewAllocation{
				{PurchaseOrderId: po.ID, QuantityAllocated: decimal.NewFromInt(2)},
			}},
		},
	}); err != nil {
		t.Fatalf("ApplyAllocation(so1 reallocate): %v", err)
	}

	if got := backwardQuantity(t, ctx, po.ID, so1.ID); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("after reallocation, backward quantity for so1 = %s, want 2", got)
	}
	if got := backwardQuantity(t, ctx, po.ID, so2.ID); !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("so2's backward entry was clobbered: got %s, want 3", got)
	}

	// A target with no matching part line is rejected outright.
	emptyPo, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{SupplierId: supplier.ID})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder(empty): %v", err)
	}
	_, err = models.ApplyAllocation(ctx, so2.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusQuotation),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: bolt.ID, QuantityOrdered: decimal.NewFromInt(3), FulfilledBy: []models.NewAllocation{
				{PurchaseOrderId: emptyPo.ID, QuantityAllocated: decimal.NewFromInt(1)},
			}},
		},
	})
	if !errors.Is(err, utils.ErrorAllocationTargetMismatch) {
		t.Fatalf("want ErrorAllocationTargetMismatch, got %v", err)
	}

	// So is a target id that never existed.
	_, err = models.ApplyAllocation(ctx, so2.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusQuotation),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: bolt.ID, QuantityOrdered: decimal.NewFromInt(3), FulfilledBy: []models.NewAllocation{
				{PurchaseOrderId: 999999, QuantityAllocated: decimal.NewFromInt(1)},
			}},
		},
	})
	if !errors.Is(err, utils.ErrorAllocationTargetMismatch) {
		t.Fatalf("nonexistent target should be a mismatch, got %v", err)
	}

	// Asking for more than the purchase order line has left is rejected.
	_, err = models.ApplyAllocation(ctx, so2.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusQuotation),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: bolt.ID, QuantityOrdered: decimal.NewFromInt(100), FulfilledBy: []models.NewAllocation{
				{PurchaseOrderId: po.ID, QuantityAllocated: decimal.NewFromInt(100)},
			}},
		},
	})
	if !errors.Is(err, utils.ErrorOverAllocation) {
		t.Fatalf("want ErrorOverAllocation, got %v", err)
	}

	// State history: out-of-range index answers nil without an error.
	state, err := models.GetSalesOrderState(ctx, so1.ID, 99)
	if err != nil {
		t.Fatalf("GetSalesOrderState(99): %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state for out-of-range index, got %+v", state)
	}
	if _, err := models.GetSalesOrderState(ctx, 424242, 0); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("missing order should be NotFound, got %v", err)
	}

	// Every committed allocation left an outbox row behind, correlation id
	// and all; nothing publishes in tests, so they sit pending.
	var events []models.AllocationEventRecord
	if err := config.GetDB().WithContext(ctx).
		Where("sales_order_id = ?", so1.ID).Find(&events).Error; err != nil {
		t.Fatalf("load outbox rows: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("so1 committed 2 allocations, outbox has %d rows", len(events))
	}
	for _, event := range events {
		if event.PublishStatus != models.OutboxPublishStatusPending {
			t.Fatalf("outbox row %d status = %q", event.ID, event.PublishStatus)
		}
		if event.EventType != models.AllocationEventApplied {
			t.Fatalf("outbox row %d type = %q", event.ID, event.EventType)
		}
		if event.CorrelationId == "" {
			t.Fatalf("outbox row %d has no correlation id", event.ID)
		}
	}
}

// A deleted purchase order must not break reversion for the sales orders
// still pointing at it.
func TestRevertToleratesDanglingPurchaseOrder(t *testing.T) {
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
	// A recycled host port must not leak cached prefixes into this run.
	if err := config.ClearRedis(ctx); err != nil {
		t.Fatalf("ClearRedis: %v", err)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Dangling Co"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Vanishing Supply"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	part, err := models.CreatePart(ctx, &models.NewPart{
		SupplierId: supplier.ID,
		Name:       "Washer",
		UnitPrice:  decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}

	so, err := models.CreateSalesOrder(ctx, &models.NewSalesOrder{CustomerId: customer.ID})
	if err != nil {
		t.Fatalf("CreateSalesOrder: %v", err)
	}
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{SupplierId: supplier.ID})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if _, err := models.AppendPurchaseOrderState(ctx, po.ID, &models.NewPurchaseOrderState{
		Status: string(models.PurchaseOrderStatusNew),
		Parts: []models.NewPurchaseOrderStatePart{
			{PartId: part.ID, QuantityOrdered: decimal.NewFromInt(5)},
		},
	}); err != nil {
		t.Fatalf("AppendPurchaseOrderState: %v", err)
	}
	if _, err := models.ApplyAllocation(ctx, so.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusQuotation),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: part.ID, QuantityOrdered: decimal.NewFromInt(2), FulfilledBy: []models.NewAllocation{
				{PurchaseOrderId: po.ID, QuantityAllocated: decimal.NewFromInt(2)},
			}},
		},
	}); err != nil {
		t.Fatalf("ApplyAllocation: %v", err)
	}

	// Purchase orders can be deleted independently; the sales order's forward
	// links now dangle.
	if _, err := models.DeletePurchaseOrder(ctx, po.ID); err != nil {
		t.Fatalf("DeletePurchaseOrder: %v", err)
	}

	if err := models.RevertAllocations(ctx, so.ID); err != nil {
		t.Fatalf("RevertAllocations over a dangling target: %v", err)
	}

	// A fresh allocation with no links also succeeds after the dangle.
	if _, err := models.ApplyAllocation(ctx, so.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusConfirmed),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: part.ID, QuantityOrdered: decimal.NewFromInt(2)},
		},
	}); err != nil {
		t.Fatalf("ApplyAllocation after dangle: %v", err)
	}
}

func TestFulfilledValueStatistics(t *testing.T) {
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
	// A recycled host port must not leak cached prefixes into this run.
	if err := config.ClearRedis(ctx); err != nil {
		t.Fatalf("ClearRedis: %v", err)
	}
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Stats Co"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Stats Supply"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	part, err := models.CreatePart(ctx, &models.NewPart{
		SupplierId: supplier.ID,
		Name:       "Gear",
		UnitPrice:  decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	// Price history is append-only; the newest price is the one statistics use.
	if _, err := models.AppendPartPrice(ctx, part.ID, &models.NewPartPrice{
		UnitPrice: decimal.NewFromInt(1200),
	}); err != nil {
		t.Fatalf("AppendPartPrice: %v", err)
	}

	so, err := models.CreateSalesOrder(ctx, &models.NewSalesOrder{CustomerId: customer.ID})
	if err != nil {
		t.Fatalf("CreateSalesOrder: %v", err)
	}
	if _, err := models.ApplyAllocation(ctx, so.ID, &models.NewSalesOrderState{
		Status: string(models.SalesOrderStatusQuotation),
		Parts: []models.NewSalesOrderStatePart{
			{PartId: part.ID, QuantityOrdered: decimal.NewFromInt(3)},
		},
	}); err != nil {
		t.Fatalf("ApplyAllocation: %v", err)
	}

	// Not fulfilled yet: contributes nothing.
	total, err := models.SumFulfilledSalesOrderValue(ctx)
	if err != nil {
		t.Fatalf("SumFulfilledSalesOrderValue: %v", err)
	}
	if !total.IsZero() {
		t.Fatalf("fulfilled value before fulfillment = %s, want 0", total)
	}

	// Walk the whole lifecycle; each step is a single-successor transition.
	for _, status := range []models.SalesOrderStatus{
		models.SalesOrderStatusConfirmed,
		models.SalesOrderStatusPreparing,
		models.SalesOrderStatusInDelivery,
		models.SalesOrderStatusReceived,
		models.SalesOrderStatusFulfilled,
	} {
		if _, err := models.AppendSalesOrderState(ctx, so.ID, string(status), ""); err != nil {
			t.Fatalf("AppendSalesOrderState(%s): %v", status, err)
		}
	}

	// Skipping stages is rejected on both order types.
	if _, err := models.AppendSalesOrderState(ctx, so.ID, string(models.SalesOrderStatusQuotation), ""); !errors.Is(err, utils.ErrorIllegalStatusTransition) {
		t.Fatalf("backward transition should fail, got %v", err)
	}
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{SupplierId: supplier.ID})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	_, err = models.AppendPurchaseOrderState(ctx, po.ID, &models.NewPurchaseOrderState{
		Status: string(models.PurchaseOrderStatusSend),
	})
	if !errors.Is(err, utils.ErrorIllegalStatusTransition) {
		t.Fatalf("New -> Send should be rejected, got %v", err)
	}

	total, err = models.SumFulfilledSalesOrderValue(ctx)
	if err != nil {
		t.Fatalf("SumFulfilledSalesOrderValue: %v", err)
	}
	want := decimal.NewFromInt(3600) // 3 x 1200, latest price wins
	if !total.Equal(want) {
		t.Fatalf("fulfilled value = %s, want %s", total, want)
	}

	stats, err := models.GetOrderStatistics(ctx)
	if err != nil {
		t.Fatalf("GetOrderStatistics: %v", err)
	}
	if !stats.FulfilledValue.Equal(want) {
		t.Fatalf("statistics fulfilled value = %s, want %s", stats.FulfilledValue, want)
	}

	byCustomer, err := models.GetCustomerOrderValues(ctx)
	if err != nil {
		t.Fatalf("GetCustomerOrderValues: %v", err)
	}
	found := false
	for _, row := range byCustomer {
		if row.CustomerId == customer.ID {
			found = true
			if !row.TotalValue.Equal(want) {
				t.Fatalf("customer total = %s, want %s", row.TotalValue, want)
			}
		}
	}
	if !found {
		t.Fatalf("customer %d missing from breakdown: %+v", customer.ID, byCustomer)
	}
}

func backwardQuantity(t *testing.T, ctx context.Context, purchaseOrderId, salesOrderId int) decimal.Decimal {
	t.Helper()
	state, err := models.GetLatestPurchaseOrderState(ctx, purchaseOrderId)
	if err != nil {
		t.Fatalf("GetLatestPurchaseOrderState: %v", err)
	}
	if state == nil {
		t.Fatalf("purchase order %d has no states", purchaseOrderId)
	}
	total := decimal.Zero
	for _, line := range state.Parts {
		for _, alloc := range line.FulfilledFor {
			if alloc.SalesOrderId == salesOrderId {
				total = total.Add(alloc.QuantityAllocated)
			}
		}
	}
	return total
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("orders-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("orders-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=orders_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
