package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalesOrder is the stable identity record for a demand-side order. Its
// lifecycle lives entirely in the append-only States history; the meta row
// only mirrors the last state's status.
type SalesOrder struct {
	ID             int               `gorm:"primary_key" json:"id"`
	CreatedBy      int               `gorm:"not null" json:"created_by"`
	OrderNumber    string            `gorm:"size:20;uniqueIndex;not null" json:"order_number"`
	SequenceNo     int64             `gorm:"not null" json:"sequence_no"`
	CustomerId     int               `gorm:"index;not null" json:"customer_id" binding:"required"`
	LatestStatus   SalesOrderStatus  `gorm:"type:enum('Quotation','Confirmed','Preparing','InDelivery','Received','Fulfilled');not null" json:"latest_status"`
	AdditionalInfo string            `gorm:"type:text" json:"additional_info"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	States         []SalesOrderState `gorm:"foreignKey:SalesOrderId" json:"states"`
}

// SalesOrderState is one immutable snapshot in the order's history. It is
// created once and never edited; superseding it means appending a new state.
type SalesOrderState struct {
	ID             int                   `gorm:"primary_key" json:"id"`
	SalesOrderId   int                   `gorm:"index:idx_so_state,unique,priority:1;not null" json:"sales_order_id"`
	StateIndex     int                   `gorm:"index:idx_so_state,unique,priority:2;not null" json:"state_index"`
	Status         SalesOrderStatus      `gorm:"type:enum('Quotation','Confirmed','Preparing','InDelivery','Received','Fulfilled');not null" json:"status"`
	UpdatedBy      int                   `gorm:"not null" json:"updated_by"`
	AdditionalInfo string                `gorm:"type:text" json:"additional_info"`
	CreatedAt      time.Time             `gorm:"autoCreateTime" json:"created_at"`
	Parts          []SalesOrderStatePart `gorm:"foreignKey:StateId" json:"parts"`
}

type SalesOrderStatePart struct {
	ID              int                    `gorm:"primary_key" json:"id"`
	StateId         int                    `gorm:"index;not null" json:"state_id"`
	PartId          int                    `gorm:"index;not null" json:"part_id"`
	QuantityOrdered decimal.Decimal        `gorm:"type:decimal(20,4);not null" json:"quantity_ordered"`
	AdditionalInfo  string                 `gorm:"size:255" json:"additional_info"`
	FulfilledBy     []SalesOrderAllocation `gorm:"foreignKey:StatePartId" json:"fulfilled_by"`
}

// SalesOrderAllocation is a forward link: this sales order line is supplied
// by the referenced purchase order. The purchase order is referenced by id
// only, never embedded.
type SalesOrderAllocation struct {
	ID                int             `gorm:"primary_key" json:"id"`
	StatePartId       int             `gorm:"index;not null" json:"state_part_id"`
	PurchaseOrderId   int             `gorm:"index;not null" json:"purchase_order_id"`
	QuantityAllocated decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_allocated"`
}

type NewSalesOrder struct {
	CustomerId     int    `json:"customer_id" binding:"required"`
	AdditionalInfo string `json:"additional_info"`
}

type NewSalesOrderState struct {
	Status         string                   `json:"status" binding:"required"`
	AdditionalInfo string                   `json:"additional_info"`
	Parts          []NewSalesOrderStatePart `json:"parts"`
}

type NewSalesOrderStatePart struct {
	PartId          int             `json:"part_id" binding:"required"`
	QuantityOrdered decimal.Decimal `json:"quantity_ordered" binding:"required"`
	AdditionalInfo  string          `json:"additional_info"`
	FulfilledBy     []NewAllocation `json:"fulfilled_by"`
}

type NewAllocation struct {
	PurchaseOrderId   int             `json:"purchase_order_id" binding:"required"`
	QuantityAllocated decimal.Decimal `json:"quantity_allocated" binding:"required"`
}

type SalesOrdersConnection struct {
	Edges    []*SalesOrdersEdge `json:"edges"`
	PageInfo *PageInfo          `json:"pageInfo"`
}

type SalesOrdersEdge Edge[SalesOrder]

func (so SalesOrder) GetCursor() string {
	return so.CreatedAt.String()
}

func (so SalesOrder) GetId() int {
	return so.ID
}

// CreateSalesOrder assigns the order number and starts an empty history.
// LatestStatus begins at Quotation; line items arrive with the first state.
func CreateSalesOrder(ctx context.Context, input *NewSalesOrder) (*SalesOrder, error) {
	db := config.GetDB()

	userId, _ := utils.GetUserIdFromContext(ctx)

	// exists customer
	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return nil, errors.New("customer not found")
	}

	saleOrder := SalesOrder{
		CreatedBy:      userId,
		CustomerId:     input.CustomerId,
		LatestStatus:   SalesOrderStatusQuotation,
		AdditionalInfo: input.AdditionalInfo,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderNumber, err := NextOrderNumber(ctx, tx, CounterSalesOrder)
		if err != nil {
			return err
		}
		saleOrder.OrderNumber = orderNumber
		saleOrder.SequenceNo = sequenceFromOrderNumber(orderNumber)
		return tx.Create(&saleOrder).Error
	})
	if err != nil {
		return nil, err
	}

	return &saleOrder, nil
}

func GetSalesOrder(ctx context.Context, id int) (*SalesOrder, error) {
	db := config.GetDB()

	var result SalesOrder
	err := db.WithContext(ctx).
		Preload("States", func(db *gorm.DB) *gorm.DB { return db.Order("state_index") }).
		Preload("States.Parts").
		Preload("States.Parts.FulfilledBy").
		First(&result, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetSalesOrderState returns the snapshot at the given history index, or
// nil when the index is out of range. Out-of-range is an explicit non-error:
// "nothing at this index" is distinct from "this order does not exist".
func GetSalesOrderState(ctx context.Context, salesOrderId int, index int) (*SalesOrderState, error) {
	if err := utils.ValidateResourceId[SalesOrder](ctx, salesOrderId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if index < 0 {
		return nil, nil
	}

	db := config.GetDB()
	var state SalesOrderState
	err := db.WithContext(ctx).
		Preload("Parts").
		Preload("Parts.FulfilledBy").
		Where("sales_order_id = ? AND state_index = ?", salesOrderId, index).
		Limit(1).
		Find(&state).Error
	if err != nil {
		return nil, err
	}
	if state.ID == 0 {
		return nil, nil
	}
	return &state, nil
}

// GetLatestSalesOrderState is state-at-index for index = len(states)-1.
func GetLatestSalesOrderState(ctx context.Context, salesOrderId int) (*SalesOrderState, error) {
	if err := utils.ValidateResourceId[SalesOrder](ctx, salesOrderId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	db := config.GetDB()
	return latestSalesOrderStateTx(db.WithContext(ctx), salesOrderId)
}

// latestSalesOrderStateTx loads the newest state with its lines and forward
// links, or nil when the history is still empty.
func latestSalesOrderStateTx(tx *gorm.DB, salesOrderId int) (*SalesOrderState, error) {
	var state SalesOrderState
	err := tx.
		Preload("Parts").
		Preload("Parts.FulfilledBy").
		Where("sales_order_id = ?", salesOrderId).
		Order("state_index DESC").
		Limit(1).
		Find(&state).Error
	if err != nil {
		return nil, err
	}
	if state.ID == 0 {
		return nil, nil
	}
	return &state, nil
}

// AppendSalesOrderState appends a plain status-transition snapshot. Line
// items and forward links are carried over unchanged from the previous
// latest state; allocation changes must go through ApplyAllocation.
func AppendSalesOrderState(ctx context.Context, salesOrderId int, status string, additionalInfo string) (*SalesOrder, error) {
	newStatus, err := ParseSalesOrderStatus(status)
	if err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	db := config.GetDB()

	var saleOrder SalesOrder
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&saleOrder, salesOrderId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		if err := ValidateSalesOrderTransition(saleOrder.LatestStatus, newStatus); err != nil {
			return err
		}

		prev, err := latestSalesOrderStateTx(tx, salesOrderId)
		if err != nil {
			return err
		}

		state := SalesOrderState{
			SalesOrderId:   salesOrderId,
			StateIndex:     nextSalesStateIndex(prev),
			Status:         newStatus,
			UpdatedBy:      userId,
			AdditionalInfo: additionalInfo,
		}
		if prev != nil {
			for _, line := range prev.Parts {
				part := SalesOrderStatePart{
					PartId:          line.PartId,
					QuantityOrdered: line.QuantityOrdered,
					AdditionalInfo:  line.AdditionalInfo,
				}
				for _, alloc := range line.FulfilledBy {
					part.FulfilledBy = append(part.FulfilledBy, SalesOrderAllocation{
						PurchaseOrderId:   alloc.PurchaseOrderId,
						QuantityAllocated: alloc.QuantityAllocated,
					})
				}
				state.Parts = append(state.Parts, part)
			}
		}

		if err := tx.Create(&state).Error; err != nil {
			return err
		}

		saleOrder.LatestStatus = newStatus
		return tx.Model(&saleOrder).Update("LatestStatus", newStatus).Error
	})
	if err != nil {
		return nil, err
	}

	return &saleOrder, nil
}

func nextSalesStateIndex(prev *SalesOrderState) int {
	if prev == nil {
		return 0
	}
	return prev.StateIndex + 1
}

// DeleteSalesOrder removes the order and strips every backward link it
// still holds on purchase orders, so no counterparty keeps referencing a
// dead order.
func DeleteSalesOrder(ctx context.Context, id int) (*SalesOrder, error) {
	result, err := GetSalesOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := revertAllocationsTx(ctx, tx, id); err != nil {
			return err
		}
		for i := range result.States {
			for j := range result.States[i].Parts {
				if err := tx.Where("state_part_id = ?", result.States[i].Parts[j].ID).
					Delete(&SalesOrderAllocation{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("state_id = ?", result.States[i].ID).
				Delete(&SalesOrderStatePart{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("sales_order_id = ?", id).
			Delete(&SalesOrderState{}).Error; err != nil {
			return err
		}
		return tx.Delete(&SalesOrder{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func PaginateSalesOrder(ctx context.Context, limit *int, after *string,
	orderNumber *string,
	customerID *int,
	createdBy *int,
	status *string) (*SalesOrdersConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&SalesOrder{})

	if orderNumber != nil && *orderNumber != "" {
		dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%")
	}
	if customerID != nil && *customerID > 0 {
		dbCtx.Where("customer_id = ?", *customerID)
	}
	if createdBy != nil && *createdBy > 0 {
		// Hierarchy expansion is the caller's job; the store only filters
		// on the plain creator id.
		dbCtx.Where("created_by = ?", *createdBy)
	}
	if status != nil && *status != "" {
		parsed, err := ParseSalesOrderStatus(*status)
		if err != nil {
			return nil, err
		}
		dbCtx.Where("latest_status = ?", parsed)
	}

	pageSize := config.SearchLimit
	if l := utils.DereferencePtr(limit); l > 0 {
		pageSize = l
	}

	edges, pageInfo, err := FetchPageCompositeCursor[SalesOrder](dbCtx, pageSize, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var connection SalesOrdersConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		salesOrdersEdge := SalesOrdersEdge(edge)
		connection.Edges = append(connection.Edges, &salesOrdersEdge)
	}

	return &connection, nil
}

func sequenceFromOrderNumber(orderNumber string) int64 {
	// order numbers are always `<PREFIX>-<6 digits>`
	var seq int64
	for i := len(orderNumber) - 6; i < len(orderNumber); i++ {
		seq = seq*10 + int64(orderNumber[i]-'0')
	}
	return seq
}
