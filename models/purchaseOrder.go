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

// PurchaseOrder is the supply-side counterpart of SalesOrder: same identity
// plus append-only history shape, but its lines carry backward links
// (FulfilledFor) written by the allocation engine rather than forward ones.
type PurchaseOrder struct {
	ID             int                  `gorm:"primary_key" json:"id"`
	CreatedBy      int                  `gorm:"not null" json:"created_by"`
	OrderNumber    string               `gorm:"size:20;uniqueIndex;not null" json:"order_number"`
	SequenceNo     int64                `gorm:"not null" json:"sequence_no"`
	SupplierId     int                  `gorm:"index;not null" json:"supplier_id"`
	LatestStatus   PurchaseOrderStatus  `gorm:"type:enum('New','Confirmed','Send','Received','Fulfilled');not null" json:"latest_status"`
	AdditionalInfo string               `gorm:"type:text" json:"additional_info"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
	States         []PurchaseOrderState `gorm:"foreignKey:PurchaseOrderId" json:"states"`
}

type PurchaseOrderState struct {
	ID              int                      `gorm:"primary_key" json:"id"`
	PurchaseOrderId int                      `gorm:"index:idx_po_state,unique,priority:1;not null" json:"purchase_order_id"`
	StateIndex      int                      `gorm:"index:idx_po_state,unique,priority:2;not null" json:"state_index"`
	Status          PurchaseOrderStatus      `gorm:"type:enum('New','Confirmed','Send','Received','Fulfilled');not null" json:"status"`
	UpdatedBy       int                      `gorm:"not null" json:"updated_by"`
	AdditionalInfo  string                   `gorm:"type:text" json:"additional_info"`
	CreatedAt       time.Time                `gorm:"autoCreateTime" json:"created_at"`
	Parts           []PurchaseOrderStatePart `gorm:"foreignKey:StateId" json:"parts"`
}

type PurchaseOrderStatePart struct {
	ID              int                       `gorm:"primary_key" json:"id"`
	StateId         int                       `gorm:"index;not null" json:"state_id"`
	PartId          int                       `gorm:"index;not null" json:"part_id"`
	QuantityOrdered decimal.Decimal           `gorm:"type:decimal(20,4);not null" json:"quantity_ordered"`
	AdditionalInfo  string                    `gorm:"size:255" json:"additional_info"`
	FulfilledFor    []PurchaseOrderAllocation `gorm:"foreignKey:StatePartId" json:"fulfilled_for"`
}

// PurchaseOrderAllocation is a backward link: the referenced sales order
// draws QuantityAllocated of this line. Only the allocation engine and the
// reversion pass write or delete these rows.
type PurchaseOrderAllocation struct {
	ID                int             `gorm:"primary_key" json:"id"`
	StatePartId       int             `gorm:"index;not null" json:"state_part_id"`
	SalesOrderId      int             `gorm:"index;not null" json:"sales_order_id"`
	QuantityAllocated decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_allocated"`
}

type NewPurchaseOrder struct {
	SupplierId     int    `json:"supplier_id" binding:"required"`
	AdditionalInfo string `json:"additional_info"`
}

type NewPurchaseOrderState struct {
	Status         string                      `json:"status" binding:"required"`
	AdditionalInfo string                      `json:"additional_info"`
	Parts          []NewPurchaseOrderStatePart `json:"parts"`
}

type NewPurchaseOrderStatePart struct {
	PartId          int             `json:"part_id" binding:"required"`
	QuantityOrdered decimal.Decimal `json:"quantity_ordered" binding:"required"`
	AdditionalInfo  string          `json:"additional_info"`
}

type PurchaseOrdersConnection struct {
	Edges    []*PurchaseOrdersEdge `json:"edges"`
	PageInfo *PageInfo             `json:"pageInfo"`
}

type PurchaseOrdersEdge Edge[PurchaseOrder]

func (po PurchaseOrder) GetCursor() string {
	return po.CreatedAt.String()
}

func (po PurchaseOrder) GetId() int {
	return po.ID
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	db := config.GetDB()

	userId, _ := utils.GetUserIdFromContext(ctx)

	// exists supplier
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return nil, errors.New("supplier not found")
	}

	purchaseOrder := PurchaseOrder{
		CreatedBy:      userId,
		SupplierId:     input.SupplierId,
		LatestStatus:   PurchaseOrderStatusNew,
		AdditionalInfo: input.AdditionalInfo,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderNumber, err := NextOrderNumber(ctx, tx, CounterPurchaseOrder)
		if err != nil {
			return err
		}
		purchaseOrder.OrderNumber = orderNumber
		purchaseOrder.SequenceNo = sequenceFromOrderNumber(orderNumber)
		return tx.Create(&purchaseOrder).Error
	})
	if err != nil {
		return nil, err
	}

	return &purchaseOrder, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	db := config.GetDB()

	var result PurchaseOrder
	err := db.WithContext(ctx).
		Preload("States", func(db *gorm.DB) *gorm.DB { return db.Order("state_index") }).
		Preload("States.Parts").
		Preload("States.Parts.FulfilledFor").
		First(&result, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// GetPurchaseOrderState mirrors the sales-order accessor: nil for an index
// past the end of the history, NotFound only when the order itself is gone.
func GetPurchaseOrderState(ctx context.Context, purchaseOrderId int, index int) (*PurchaseOrderState, error) {
	if err := utils.ValidateResourceId[PurchaseOrder](ctx, purchaseOrderId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if index < 0 {
		return nil, nil
	}

	db := config.GetDB()
	var state PurchaseOrderState
	err := db.WithContext(ctx).
		Preload("Parts").
		Preload("Parts.FulfilledFor").
		Where("purchase_order_id = ? AND state_index = ?", purchaseOrderId, index).
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

func GetLatestPurchaseOrderState(ctx context.Context, purchaseOrderId int) (*PurchaseOrderState, error) {
	if err := utils.ValidateResourceId[PurchaseOrder](ctx, purchaseOrderId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	db := config.GetDB()
	return latestPurchaseOrderStateTx(db.WithContext(ctx), purchaseOrderId)
}

func latestPurchaseOrderStateTx(tx *gorm.DB, purchaseOrderId int) (*PurchaseOrderState, error) {
	var state PurchaseOrderState
	err := tx.
		Preload("Parts").
		Preload("Parts.FulfilledFor").
		Where("purchase_order_id = ?", purchaseOrderId).
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

// AppendPurchaseOrderState validates the transition and appends a snapshot.
// Backward links on matching lines are copied forward from the previous
// latest state so the sales orders drawing on this order stay linked.
func AppendPurchaseOrderState(ctx context.Context, purchaseOrderId int, input *NewPurchaseOrderState) (*PurchaseOrder, error) {
	newStatus, err := ParsePurchaseOrderStatus(input.Status)
	if err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	db := config.GetDB()

	var purchaseOrder PurchaseOrder
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&purchaseOrder, purchaseOrderId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		if err := ValidatePurchaseOrderTransition(purchaseOrder.LatestStatus, newStatus); err != nil {
			return err
		}

		for _, line := range input.Parts {
			if err := utils.ValidateResourceId[Part](ctx, line.PartId); err != nil {
				return errors.New("part not found")
			}
		}

		prev, err := latestPurchaseOrderStateTx(tx, purchaseOrderId)
		if err != nil {
			return err
		}

		state := PurchaseOrderState{
			PurchaseOrderId: purchaseOrderId,
			StateIndex:      nextPurchaseStateIndex(prev),
			Status:          newStatus,
			UpdatedBy:       userId,
			AdditionalInfo:  input.AdditionalInfo,
		}
		for _, line := range input.Parts {
			part := PurchaseOrderStatePart{
				PartId:          line.PartId,
				QuantityOrdered: line.QuantityOrdered,
				AdditionalInfo:  line.AdditionalInfo,
			}
			if prev != nil {
				for _, prevLine := range prev.Parts {
					if prevLine.PartId != line.PartId {
						continue
					}
					for _, alloc := range prevLine.FulfilledFor {
						part.FulfilledFor = append(part.FulfilledFor, PurchaseOrderAllocation{
							SalesOrderId:      alloc.SalesOrderId,
							QuantityAllocated: alloc.QuantityAllocated,
						})
					}
					break
				}
			}
			state.Parts = append(state.Parts, part)
		}

		if err := tx.Create(&state).Error; err != nil {
			return err
		}

		purchaseOrder.LatestStatus = newStatus
		return tx.Model(&purchaseOrder).Update("LatestStatus", newStatus).Error
	})
	if err != nil {
		return nil, err
	}

	return &purchaseOrder, nil
}

func nextPurchaseStateIndex(prev *PurchaseOrderState) int {
	if prev == nil {
		return 0
	}
	return prev.StateIndex + 1
}

// DeletePurchaseOrder removes the order without touching the sales orders
// that reference it. Forward links pointing here go dangling; the reversion
// pass tolerates them.
func DeletePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	result, err := GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range result.States {
			for j := range result.States[i].Parts {
				if err := tx.Where("state_part_id = ?", result.States[i].Parts[j].ID).
					Delete(&PurchaseOrderAllocation{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("state_id = ?", result.States[i].ID).
				Delete(&PurchaseOrderStatePart{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("purchase_order_id = ?", id).
			Delete(&PurchaseOrderState{}).Error; err != nil {
			return err
		}
		return tx.Delete(&PurchaseOrder{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func PaginatePurchaseOrder(ctx context.Context, limit *int, after *string,
	orderNumber *string,
	supplierID *int,
	createdBy *int,
	status *string) (*PurchaseOrdersConnection, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&PurchaseOrder{})

	if orderNumber != nil && *orderNumber != "" {
		dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%")
	}
	if supplierID != nil && *supplierID > 0 {
		dbCtx.Where("supplier_id = ?", *supplierID)
	}
	if createdBy != nil && *createdBy > 0 {
		dbCtx.Where("created_by = ?", *createdBy)
	}
	if status != nil && *status != "" {
		parsed, err := ParsePurchaseOrderStatus(*status)
		if err != nil {
			return nil, err
		}
		dbCtx.Where("latest_status = ?", parsed)
	}

	pageSize := config.SearchLimit
	if l := utils.DereferencePtr(limit); l > 0 {
		pageSize = l
	}

	edges, pageInfo, err := FetchPageCompositeCursor[PurchaseOrder](dbCtx, pageSize, after, "created_at", "<")
	if err != nil {
		return nil, err
	}
	var connection PurchaseOrdersConnection
	connection.PageInfo = pageInfo
	for _, edge := range edges {
		purchaseOrdersEdge := PurchaseOrdersEdge(edge)
		connection.Edges = append(connection.Edges, &purchaseOrdersEdge)
	}

	return &connection, nil
}
