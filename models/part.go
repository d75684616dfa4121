package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
	"github.com/shopspring/decimal"
)

// Part identity is independent of its supplier: order line items keep
// referencing a part even if the owning supplier record goes away.
type Part struct {
	ID             int         `gorm:"primary_key" json:"id"`
	SupplierId     int         `gorm:"index;not null" json:"supplier_id" binding:"required"`
	Name           string      `gorm:"size:255;not null" json:"name" binding:"required"`
	Sku            string      `gorm:"size:100" json:"sku"`
	AdditionalInfo string      `gorm:"type:text" json:"additional_info"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	PriceHistory   []PartPrice `gorm:"foreignKey:PartId" json:"price_history"`
}

// PartPrice rows are append-only; the newest row is the authoritative price.
type PartPrice struct {
	ID        int             `gorm:"primary_key" json:"id"`
	PartId    int             `gorm:"index;not null" json:"part_id" binding:"required"`
	CreatedBy int             `gorm:"not null" json:"created_by"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price" binding:"required"`
	Note      string          `gorm:"size:255" json:"note"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPart struct {
	SupplierId     int             `json:"supplier_id" binding:"required"`
	Name           string          `json:"name" binding:"required"`
	Sku            string          `json:"sku"`
	AdditionalInfo string          `json:"additional_info"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	PriceNote      string          `json:"price_note"`
}

type NewPartPrice struct {
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	Note      string          `json:"note"`
}

func (p Part) GetCursor() string {
	return p.CreatedAt.String()
}

func (p Part) GetId() int {
	return p.ID
}

func CreatePart(ctx context.Context, input *NewPart) (*Part, error) {
	userId, _ := utils.GetUserIdFromContext(ctx)

	// exists supplier
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return nil, errors.New("supplier not found")
	}

	part := Part{
		SupplierId:     input.SupplierId,
		Name:           input.Name,
		Sku:            input.Sku,
		AdditionalInfo: input.AdditionalInfo,
	}
	if !input.UnitPrice.IsZero() {
		part.PriceHistory = []PartPrice{{
			CreatedBy: userId,
			UnitPrice: input.UnitPrice,
			Note:      input.PriceNote,
		}}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&part).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// AppendPartPrice records a new authoritative price. Prior rows are never
// touched.
func AppendPartPrice(ctx context.Context, partId int, input *NewPartPrice) (*PartPrice, error) {
	userId, _ := utils.GetUserIdFromContext(ctx)

	if err := utils.ValidateResourceId[Part](ctx, partId); err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	price := PartPrice{
		PartId:    partId,
		CreatedBy: userId,
		UnitPrice: input.UnitPrice,
		Note:      input.Note,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&price).Error; err != nil {
		return nil, err
	}
	return &price, nil
}

// LatestPartPrice returns the newest price row, or nil when the part has no
// price history yet.
func LatestPartPrice(ctx context.Context, partId int) (*PartPrice, error) {
	db := config.GetDB()
	var price PartPrice
	err := db.WithContext(ctx).
		Where("part_id = ?", partId).
		Order("id DESC").
		Limit(1).
		Find(&price).Error
	if err != nil {
		return nil, err
	}
	if price.ID == 0 {
		return nil, nil
	}
	return &price, nil
}

func GetPart(ctx context.Context, id int) (*Part, error) {
	return utils.FetchModel[Part](ctx, id, "PriceHistory")
}

func GetParts(ctx context.Context, supplierId *int, name *string) ([]*Part, error) {
	db := config.GetDB()
	var results []*Part

	dbCtx := db.WithContext(ctx)
	if supplierId != nil && *supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}

	err := dbCtx.Preload("PriceHistory").Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func DeletePart(ctx context.Context, id int) (*Part, error) {
	result, err := utils.FetchModel[Part](ctx, id, "PriceHistory")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// Do not delete while order lines still reference the part.
	var count int64
	if err := db.WithContext(ctx).Model(&SalesOrderStatePart{}).
		Where("part_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		if err := db.WithContext(ctx).Model(&PurchaseOrderStatePart{}).
			Where("part_id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
	}
	if count > 0 {
		return nil, errors.New("part is referenced by order line items")
	}

	if err := db.WithContext(ctx).Select("PriceHistory").Delete(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
