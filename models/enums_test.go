package models_test

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/orders_backend/models"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
)

func TestValidateSalesOrderTransition(t *testing.T) {
	cases := []struct {
		name    string
		current models.SalesOrderStatus
		next    models.SalesOrderStatus
		wantErr bool
	}{
		{"successor", models.SalesOrderStatusQuotation, models.SalesOrderStatusConfirmed, false},
		{"revision at same status", models.SalesOrderStatusPreparing, models.SalesOrderStatusPreparing, false},
		{"last to last", models.SalesOrderStatusFulfilled, models.SalesOrderStatusFulfilled, false},
		{"skipping a stage", models.SalesOrderStatusQuotation, models.SalesOrderStatusPreparing, true},
		{"backward", models.SalesOrderStatusInDelivery, models.SalesOrderStatusConfirmed, true},
		{"past the end", models.SalesOrderStatusFulfilled, models.SalesOrderStatusQuotation, true},
	}

	for _, tc := range cases {
		err := models.ValidateSalesOrderTransition(tc.current, tc.next)
		if tc.wantErr {
			if !errors.Is(err, utils.ErrorIllegalStatusTransition) {
				t.Errorf("%s: %s -> %s: want ErrorIllegalStatusTransition, got %v", tc.name, tc.current, tc.next, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %s -> %s: unexpected error %v", tc.name, tc.current, tc.next, err)
		}
	}
}

func TestValidatePurchaseOrderTransition(t *testing.T) {
	cases := []struct {
		name    string
		current models.PurchaseOrderStatus
		next    models.PurchaseOrderStatus
		wantErr bool
	}{
		{"successor", models.PurchaseOrderStatusNew, models.PurchaseOrderStatusConfirmed, false},
		{"revision at same status", models.PurchaseOrderStatusSend, models.PurchaseOrderStatusSend, false},
		{"skipping a stage", models.PurchaseOrderStatusNew, models.PurchaseOrderStatusSend, true},
		{"backward", models.PurchaseOrderStatusReceived, models.PurchaseOrderStatusConfirmed, true},
	}

	for _, tc := range cases {
		err := models.ValidatePurchaseOrderTransition(tc.current, tc.next)
		if tc.wantErr {
			if !errors.Is(err, utils.ErrorIllegalStatusTransition) {
				t.Errorf("%s: %s -> %s: want ErrorIllegalStatusTransition, got %v", tc.name, tc.current, tc.next, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %s -> %s: unexpected error %v", tc.name, tc.current, tc.next, err)
		}
	}
}

func TestParseSalesOrderStatus(t *testing.T) {
	status, err := models.ParseSalesOrderStatus("InDelivery")
	if err != nil {
		t.Fatalf("ParseSalesOrderStatus: %v", err)
	}
	if status != models.SalesOrderStatusInDelivery {
		t.Fatalf("got %q", status)
	}

	if _, err := models.ParseSalesOrderStatus("indelivery"); err == nil {
		t.Fatal("lowercase input should not parse")
	}
	if _, err := models.ParseSalesOrderStatus("Cancelled"); err == nil {
		t.Fatal("unknown status should not parse")
	}
}

func TestParsePurchaseOrderStatus(t *testing.T) {
	status, err := models.ParsePurchaseOrderStatus("Send")
	if err != nil {
		t.Fatalf("ParsePurchaseOrderStatus: %v", err)
	}
	if status != models.PurchaseOrderStatusSend {
		t.Fatalf("got %q", status)
	}

	if _, err := models.ParsePurchaseOrderStatus("Shipped"); err == nil {
		t.Fatal("unknown status should not parse")
	}
}
