package repository

import (
	"context"

	"erpledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SalesOrderListFilter narrows sales order listings
type SalesOrderListFilter struct {
	CustomerID *uuid.UUID
	ProjectID  *uuid.UUID
	Status     string
	Page       int
	Limit      int
}

type SalesOrderRepository interface {
	Create(ctx context.Context, order *model.SalesOrder) error
	Update(ctx context.Context, order *model.SalesOrder) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.SalesOrderItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	List(ctx context.Context, filter SalesOrderListFilter) ([]model.SalesOrder, int64, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type salesOrderRepository struct {
	db *gorm.DB
}

func NewSalesOrderRepository(db *gorm.DB) SalesOrderRepository {
	return &salesOrderRepository{db: db}
}

func (r *salesOrderRepository) Create(ctx context.Context, order *model.SalesOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *salesOrderRepository) Update(ctx context.Context, order *model.SalesOrder) error {
	return GetDB(ctx, r.db).Omit("Items").Save(order).Error
}

func (r *salesOrderRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.SalesOrderItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("sales_order_id = ?", orderID).Delete(&model.SalesOrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].SalesOrderID = orderID
	}
	return db.Create(&items).Error
}

func (r *salesOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.SalesOrder{}).Where("id = ?", id).Update("status", status).Error
}

func (r *salesOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.SalesOrder{}).Error
}

func (r *salesOrderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var order model.SalesOrder
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Customer").
		Preload("Project").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *salesOrderRepository) List(ctx context.Context, filter SalesOrderListFilter) ([]model.SalesOrder, int64, error) {
	var orders []model.SalesOrder
	var total int64

	db := GetDB(ctx, r.db)
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.CustomerID != nil {
			q = q.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.ProjectID != nil {
			q = q.Where("project_id = ?", *filter.ProjectID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}

	if err := applyFilter(db.Model(&model.SalesOrder{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := applyFilter(db).
		Preload("Customer").
		Order("created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *salesOrderRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.SalesOrder{}).Where("order_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
