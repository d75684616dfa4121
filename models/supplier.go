package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/orders_backend/config"
	"bitbucket.org/mmdatafocus/orders_backend/utils"
)

type Supplier struct {
	ID             int       `gorm:"primary_key" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name" binding:"required"`
	Email          string    `gorm:"size:255" json:"email"`
	Phone          string    `gorm:"size:50" json:"phone"`
	AdditionalInfo string    `gorm:"type:text" json:"additional_info"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AdditionalInfo string `json:"additional_info"`
}

func (s Supplier) GetCursor() string {
	return s.CreatedAt.String()
}

func (s Supplier) GetId() int {
	return s.ID
}

func (input *NewSupplier) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Supplier](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		AdditionalInfo: input.AdditionalInfo,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(supplier).
		Updates(map[string]interface{}{
			"Name":           input.Name,
			"Email":          input.Email,
			"Phone":          input.Phone,
			"AdditionalInfo": input.AdditionalInfo,
		}).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {
	result, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// Do not delete if any part or purchase order still points here.
	var count int64
	if err := db.WithContext(ctx).Model(&Part{}).
		Where("supplier_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		if err := db.WithContext(ctx).Model(&PurchaseOrder{}).
			Where("supplier_id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
	}
	if count > 0 {
		return nil, errors.New("supplier is in use")
	}

	if err := db.WithContext(ctx).Delete(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id)
}

func GetSuppliers(ctx context.Context, name *string) ([]*Supplier, error) {
	if name == nil || len(*name) == 0 {
		return utils.FetchAllModels[Supplier](ctx)
	}

	db := config.GetDB()
	var results []*Supplier
	err := db.WithContext(ctx).
		Where("name LIKE ?", "%"+*name+"%").
		Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
