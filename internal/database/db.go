package database

import (
	"log"

	"erpledger/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Project{},
		&model.Partner{},
		&model.BOQ{},
		&model.BOQItem{},
		&model.SalesOrder{},
		&model.SalesOrderItem{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.Invoice{},
		&model.Payment{},
		&model.Expense{},
		&model.TaxRule{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
