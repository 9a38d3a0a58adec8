package persistence

import (
	"context"

	"gorm.io/gorm"

	appstock "github.com/logistics/backend/internal/application/stock"
	"github.com/logistics/backend/internal/domain/stock"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// A balance update and its ledger entry commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides repositories scoped to one transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// StockRepo returns the balance repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockRepo() stock.WarehouseStockRepository {
	return NewGormWarehouseStockRepository(r.tx)
}

// MovementRepo returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MovementRepo() stock.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// AlertRepo returns the alert repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AlertRepo() stock.StockAlertRepository {
	return NewGormStockAlertRepository(r.tx)
}

var _ appstock.TransactionScope = (*GormTransactionScope)(nil)
var _ appstock.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
