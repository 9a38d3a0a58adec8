package stock

import (
	"context"

	"github.com/logistics/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to stock repositories.
// Repository operations inside Execute share one database transaction and
// commit or roll back atomically; the ledger append and the balance update
// for a mutation always live in the same scope.
type TransactionScope interface {
	// Execute runs fn within a database transaction. An error from fn rolls
	// the transaction back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the stock repositories scoped to the
// current transaction.
type TransactionalRepositories interface {
	// StockRepo returns the warehouse stock repository.
	StockRepo() stock.WarehouseStockRepository
	// MovementRepo returns the movement ledger repository.
	MovementRepo() stock.StockMovementRepository
	// AlertRepo returns the stock alert repository.
	AlertRepo() stock.StockAlertRepository
}

// NoOpTransactionScope runs functions without a real transaction. Used in
// tests and wherever transactional guarantees come from elsewhere.
type NoOpTransactionScope struct {
	stockRepo    stock.WarehouseStockRepository
	movementRepo stock.StockMovementRepository
	alertRepo    stock.StockAlertRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(
	stockRepo stock.WarehouseStockRepository,
	movementRepo stock.StockMovementRepository,
	alertRepo stock.StockAlertRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		alertRepo:    alertRepo,
	}
}

// Execute runs fn directly, without a transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the warehouse stock repository.
func (s *NoOpTransactionScope) StockRepo() stock.WarehouseStockRepository {
	return s.stockRepo
}

// MovementRepo returns the movement ledger repository.
func (s *NoOpTransactionScope) MovementRepo() stock.StockMovementRepository {
	return s.movementRepo
}

// AlertRepo returns the stock alert repository.
func (s *NoOpTransactionScope) AlertRepo() stock.StockAlertRepository {
	return s.alertRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
