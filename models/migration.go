package models

import (
	"context"
	"log"

	"bitbucket.org/mmdatafocus/orders_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Customer{}, &Supplier{},
		&Part{}, &PartPrice{},
		&OrderNumberCounter{},
		&SalesOrder{}, &SalesOrderState{}, &SalesOrderStatePart{}, &SalesOrderAllocation{},
		&PurchaseOrder{}, &PurchaseOrderState{}, &PurchaseOrderStatePart{}, &PurchaseOrderAllocation{},
		&AllocationEventRecord{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := SeedOrderNumberCounters(context.Background(), db); err != nil {
		log.Fatal(err)
	}
}
