package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logistics/backend/internal/domain/catalog"
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/stock"
	"github.com/logistics/backend/internal/infrastructure/telemetry"
)

// MutationService is the single entry point for stock mutations. Every
// mutation runs under the per-key lock, applies the balance change and the
// ledger append in one transaction, and publishes domain events before the
// lock is released so alert evaluation observes a settled balance.
type MutationService struct {
	scope          TransactionScope
	reference      catalog.Reference
	locks          *KeyedLock
	eventPublisher shared.EventPublisher
	stockMetrics   *telemetry.StockMetrics
	logger         *zap.Logger
}

// NewMutationService creates a MutationService.
func NewMutationService(
	scope TransactionScope,
	reference catalog.Reference,
	locks *KeyedLock,
	logger *zap.Logger,
) *MutationService {
	return &MutationService{
		scope:     scope,
		reference: reference,
		locks:     locks,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events.
func (s *MutationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetStockMetrics sets the stock metrics collector.
func (s *MutationService) SetStockMetrics(metrics *telemetry.StockMetrics) {
	s.stockMetrics = metrics
}

// MutationRejectedError reports a rejected mutation together with the
// unchanged balance snapshot, so the caller can decide to retry or adjust.
// errors.Is and errors.As see through it to the underlying domain error.
type MutationRejectedError struct {
	Err     error
	Balance BalanceResponse
}

// Error implements the error interface.
func (e *MutationRejectedError) Error() string { return e.Err.Error() }

// Unwrap exposes the underlying domain error.
func (e *MutationRejectedError) Unwrap() error { return e.Err }

// rejected wraps a domain rejection with the balance it left untouched.
func rejected(err error, balance *stock.WarehouseStock) error {
	return &MutationRejectedError{Err: err, Balance: ToBalanceResponse(balance)}
}

// ApplyMovement validates, serializes, and applies one stock movement.
// Transfers go through Transfer; requesting the transfer type here fails.
// Non-trackable items short-circuit as a no-op success: nothing is locked,
// no movement is recorded, and no balance is touched.
func (s *MutationService) ApplyMovement(ctx context.Context, req MovementRequest) (*MovementResponse, error) {
	start := time.Now()
	if err := s.validateMovement(req); err != nil {
		return nil, err
	}
	item, _, err := s.resolveKey(ctx, req.ItemID, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !item.Trackable {
		return s.skipUntracked(req), nil
	}

	release, err := s.locks.Acquire(ctx, LockKey(req.ItemID, req.WarehouseID))
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		balance  *stock.WarehouseStock
		movement *stock.StockMovement
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		balance, movement, txErr = s.applyToBalance(ctx, repos, req)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, balance)
	s.publishMovementRecorded(ctx, movement)
	s.recordMovementMetrics(ctx, movement)
	s.recordMutationDuration(ctx, "apply_movement", start)

	resp := ToMovementResponse(movement, balance)
	return &resp, nil
}

// applyToBalance mutates the balance row and appends the ledger entry inside
// the caller's transaction.
func (s *MutationService) applyToBalance(ctx context.Context, repos TransactionalRepositories, req MovementRequest) (*stock.WarehouseStock, *stock.StockMovement, error) {
	balance, err := repos.StockRepo().GetOrCreate(ctx, req.ItemID, req.WarehouseID)
	if err != nil {
		return nil, nil, err
	}

	before := balance.QuantityAvailable

	var batchInfo *stock.BatchInfo
	if req.BatchNumber != "" {
		batchInfo = &stock.BatchInfo{BatchNumber: req.BatchNumber, ExpiryDate: req.ExpiryDate}
	}

	switch req.Type {
	case stock.MovementTypeIn:
		err = balance.Receive(req.Quantity, req.UnitCost, batchInfo)
	case stock.MovementTypeFound:
		err = balance.Found(req.Quantity, req.UnitCost, batchInfo)
	case stock.MovementTypeOut:
		err = balance.Ship(req.Quantity)
	case stock.MovementTypeDamaged:
		err = balance.MarkDamaged(req.Quantity)
	case stock.MovementTypeLost:
		err = balance.MarkLost(req.Quantity)
	case stock.MovementTypeAdjustment:
		err = balance.AdjustBy(req.Delta)
	default:
		err = shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if err != nil {
		return nil, nil, rejected(err, balance)
	}

	if err := repos.StockRepo().SaveWithLock(ctx, balance); err != nil {
		return nil, nil, err
	}

	quantity, delta := movementMagnitude(req)
	movement, err := stock.NewStockMovement(
		req.ItemID, req.WarehouseID, req.Type,
		quantity, delta,
		before, balance.QuantityAvailable,
		req.Actor,
	)
	if err != nil {
		return nil, nil, err
	}
	if req.UnitCost != nil {
		movement.WithUnitCost(*req.UnitCost)
	}
	if !req.Reference.IsZero() {
		movement.WithReference(req.Reference)
	}
	if req.BatchNumber != "" {
		movement.WithBatch(req.BatchNumber, req.ExpiryDate)
	}
	if req.Notes != "" {
		movement.WithNotes(req.Notes)
	}
	if req.MovementDate != nil {
		movement.WithMovementDate(*req.MovementDate)
	}

	if err := repos.MovementRepo().Create(ctx, movement); err != nil {
		return nil, nil, err
	}
	return balance, movement, nil
}

// Transfer atomically moves stock from one warehouse to another. Both legs
// share a generated transfer reference and commit in one transaction; the
// destination leg carries the source's average cost so value moves with the
// stock. Both keys are locked in canonical order before any work starts.
func (s *MutationService) Transfer(ctx context.Context, req TransferRequest) (*TransferResponse, error) {
	start := time.Now()
	if req.Quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if req.Actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Movement actor is required")
	}
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, shared.NewDomainError("INVALID_TRANSFER", "Source and destination warehouses must differ")
	}
	item, _, err := s.resolveKey(ctx, req.ItemID, req.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.reference.Warehouse(ctx, req.ToWarehouseID); err != nil {
		return nil, err
	}
	if !item.Trackable {
		s.logger.Debug("transfer skipped for untracked item",
			zap.String("item_id", req.ItemID.String()))
		return &TransferResponse{
			OutLeg: MovementResponse{ItemID: req.ItemID, WarehouseID: req.FromWarehouseID, Type: stock.MovementTypeOut},
			InLeg:  MovementResponse{ItemID: req.ItemID, WarehouseID: req.ToWarehouseID, Type: stock.MovementTypeIn},
		}, nil
	}

	release, err := s.locks.AcquireOrdered(ctx,
		LockKey(req.ItemID, req.FromWarehouseID),
		LockKey(req.ItemID, req.ToWarehouseID),
	)
	if err != nil {
		return nil, err
	}
	defer release()

	transferID := uuid.New()
	ref := stock.Reference{Kind: stock.ReferenceKindTransfer, ID: transferID.String()}

	var (
		source, dest  *stock.WarehouseStock
		outLeg, inLeg *stock.StockMovement
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		source, txErr = repos.StockRepo().GetOrCreate(ctx, req.ItemID, req.FromWarehouseID)
		if txErr != nil {
			return txErr
		}
		sourceBefore := source.QuantityAvailable
		sourceCost := source.AverageCost

		if txErr = source.Ship(req.Quantity); txErr != nil {
			return rejected(txErr, source)
		}
		if txErr = repos.StockRepo().SaveWithLock(ctx, source); txErr != nil {
			return txErr
		}
		outLeg, txErr = stock.NewStockMovement(
			req.ItemID, req.FromWarehouseID, stock.MovementTypeOut,
			req.Quantity, -req.Quantity,
			sourceBefore, source.QuantityAvailable,
			req.Actor,
		)
		if txErr != nil {
			return txErr
		}
		outLeg.WithReference(ref).WithUnitCost(sourceCost)
		if req.Notes != "" {
			outLeg.WithNotes(req.Notes)
		}
		if txErr = repos.MovementRepo().Create(ctx, outLeg); txErr != nil {
			return txErr
		}

		dest, txErr = repos.StockRepo().GetOrCreate(ctx, req.ItemID, req.ToWarehouseID)
		if txErr != nil {
			return txErr
		}
		destBefore := dest.QuantityAvailable

		if txErr = dest.Receive(req.Quantity, &sourceCost, nil); txErr != nil {
			s.logger.Error("transfer destination leg failed",
				zap.String("item_id", req.ItemID.String()),
				zap.String("to_warehouse_id", req.ToWarehouseID.String()),
				zap.Error(txErr))
			return shared.ErrTransferFailed
		}
		if txErr = repos.StockRepo().SaveWithLock(ctx, dest); txErr != nil {
			return txErr
		}
		inLeg, txErr = stock.NewStockMovement(
			req.ItemID, req.ToWarehouseID, stock.MovementTypeIn,
			req.Quantity, req.Quantity,
			destBefore, dest.QuantityAvailable,
			req.Actor,
		)
		if txErr != nil {
			return txErr
		}
		inLeg.WithReference(ref).WithUnitCost(sourceCost)
		if req.Notes != "" {
			inLeg.WithNotes(req.Notes)
		}
		return repos.MovementRepo().Create(ctx, inLeg)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, source)
	s.publishDomainEvents(ctx, dest)
	s.publishMovementRecorded(ctx, outLeg, inLeg)
	s.recordMovementMetrics(ctx, outLeg, inLeg)
	if s.stockMetrics != nil {
		s.stockMetrics.RecordTransfer(ctx, req.FromWarehouseID, req.ToWarehouseID)
	}
	s.recordMutationDuration(ctx, "transfer", start)

	return &TransferResponse{
		TransferID: transferID,
		OutLeg:     ToMovementResponse(outLeg, source),
		InLeg:      ToMovementResponse(inLeg, dest),
	}, nil
}

// Reserve earmarks available stock for a pending order. Reservations shift
// stock between buckets without touching the ledger, so no movement is
// written; replaying the ledger still reproduces quantity_available exactly.
func (s *MutationService) Reserve(ctx context.Context, req ReservationRequest) (*BalanceResponse, error) {
	start := time.Now()
	resp, err := s.mutateReservation(ctx, req, func(balance *stock.WarehouseStock) error {
		return balance.Reserve(req.Quantity)
	})
	if err == nil {
		s.recordMutationDuration(ctx, "reserve", start)
	}
	return resp, err
}

// ReleaseReservation returns reserved stock to the available bucket.
func (s *MutationService) ReleaseReservation(ctx context.Context, req ReservationRequest) (*BalanceResponse, error) {
	start := time.Now()
	resp, err := s.mutateReservation(ctx, req, func(balance *stock.WarehouseStock) error {
		return balance.ReleaseReservation(req.Quantity)
	})
	if err == nil {
		s.recordMutationDuration(ctx, "release_reservation", start)
	}
	return resp, err
}

// ShipReserved fulfils a reservation: the reserved units are released and
// shipped in one atomic step, and the resulting out movement is the single
// ledger record of the fulfilment.
func (s *MutationService) ShipReserved(ctx context.Context, req ReservationRequest) (*MovementResponse, error) {
	start := time.Now()
	if req.Quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if req.Actor == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Movement actor is required")
	}
	item, _, err := s.resolveKey(ctx, req.ItemID, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !item.Trackable {
		return s.skipUntracked(MovementRequest{
			ItemID:      req.ItemID,
			WarehouseID: req.WarehouseID,
			Type:        stock.MovementTypeOut,
		}), nil
	}

	release, err := s.locks.Acquire(ctx, LockKey(req.ItemID, req.WarehouseID))
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		balance  *stock.WarehouseStock
		movement *stock.StockMovement
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		balance, txErr = repos.StockRepo().FindByKey(ctx, req.ItemID, req.WarehouseID)
		if txErr != nil {
			return txErr
		}
		if txErr = balance.ReleaseReservation(req.Quantity); txErr != nil {
			return rejected(txErr, balance)
		}
		before := balance.QuantityAvailable
		if txErr = balance.Ship(req.Quantity); txErr != nil {
			return txErr
		}
		if txErr = repos.StockRepo().SaveWithLock(ctx, balance); txErr != nil {
			return txErr
		}
		movement, txErr = stock.NewStockMovement(
			req.ItemID, req.WarehouseID, stock.MovementTypeOut,
			req.Quantity, -req.Quantity,
			before, balance.QuantityAvailable,
			req.Actor,
		)
		if txErr != nil {
			return txErr
		}
		if !req.Reference.IsZero() {
			movement.WithReference(req.Reference)
		}
		return repos.MovementRepo().Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, balance)
	s.publishMovementRecorded(ctx, movement)
	s.recordMovementMetrics(ctx, movement)
	s.recordMutationDuration(ctx, "ship_reserved", start)

	resp := ToMovementResponse(movement, balance)
	return &resp, nil
}

func (s *MutationService) mutateReservation(ctx context.Context, req ReservationRequest, fn func(*stock.WarehouseStock) error) (*BalanceResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	item, _, err := s.resolveKey(ctx, req.ItemID, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !item.Trackable {
		s.logger.Debug("reservation skipped for untracked item",
			zap.String("item_id", req.ItemID.String()),
			zap.String("warehouse_id", req.WarehouseID.String()))
		return &BalanceResponse{ItemID: req.ItemID, WarehouseID: req.WarehouseID}, nil
	}

	release, err := s.locks.Acquire(ctx, LockKey(req.ItemID, req.WarehouseID))
	if err != nil {
		return nil, err
	}
	defer release()

	var balance *stock.WarehouseStock
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		balance, txErr = repos.StockRepo().GetOrCreate(ctx, req.ItemID, req.WarehouseID)
		if txErr != nil {
			return txErr
		}
		if txErr = fn(balance); txErr != nil {
			return rejected(txErr, balance)
		}
		return repos.StockRepo().SaveWithLock(ctx, balance)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, balance)

	resp := ToBalanceResponse(balance)
	return &resp, nil
}

func (s *MutationService) validateMovement(req MovementRequest) error {
	if !req.Type.IsValid() || req.Type == stock.MovementTypeTransfer {
		return shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if req.Actor == "" {
		return shared.NewDomainError("INVALID_ACTOR", "Movement actor is required")
	}
	if req.Type == stock.MovementTypeAdjustment {
		if req.Delta == 0 {
			return shared.ErrInvalidQuantity
		}
		return nil
	}
	if req.Quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	return nil
}

// skipUntracked reports a successful no-op for an item exempt from ledger
// enforcement: no movement is recorded and no balance is created or touched.
func (s *MutationService) skipUntracked(req MovementRequest) *MovementResponse {
	s.logger.Debug("movement skipped for untracked item",
		zap.String("item_id", req.ItemID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.String("type", string(req.Type)))
	return &MovementResponse{
		ItemID:      req.ItemID,
		WarehouseID: req.WarehouseID,
		Type:        req.Type,
	}
}

// resolveKey checks both sides of the (item, warehouse) key exist in the
// catalog before any lock is taken.
func (s *MutationService) resolveKey(ctx context.Context, itemID, warehouseID uuid.UUID) (*catalog.InventoryItem, *catalog.Warehouse, error) {
	item, err := s.reference.Item(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	warehouse, err := s.reference.Warehouse(ctx, warehouseID)
	if err != nil {
		return nil, nil, err
	}
	return item, warehouse, nil
}

// movementMagnitude derives the (quantity, delta) pair the ledger stores.
func movementMagnitude(req MovementRequest) (int64, int64) {
	if req.Type == stock.MovementTypeAdjustment {
		quantity := req.Delta
		if quantity < 0 {
			quantity = -quantity
		}
		return quantity, req.Delta
	}
	if req.Type.IsOutbound() {
		return req.Quantity, -req.Quantity
	}
	return req.Quantity, req.Quantity
}

func (s *MutationService) publishDomainEvents(ctx context.Context, balance *stock.WarehouseStock) {
	if s.eventPublisher == nil || balance == nil {
		return
	}
	events := balance.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Handler errors are logged by the event bus, not propagated.
	_ = s.eventPublisher.Publish(ctx, events...)
	balance.ClearDomainEvents()
}

func (s *MutationService) publishMovementRecorded(ctx context.Context, movements ...*stock.StockMovement) {
	if s.eventPublisher == nil {
		return
	}
	events := make([]shared.DomainEvent, 0, len(movements))
	for _, m := range movements {
		events = append(events, stock.NewMovementRecordedEvent(m))
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *MutationService) recordMovementMetrics(ctx context.Context, movements ...*stock.StockMovement) {
	if s.stockMetrics == nil {
		return
	}
	for _, m := range movements {
		s.stockMetrics.RecordMovement(ctx, m.WarehouseID, string(m.Type), m.Quantity)
	}
}

func (s *MutationService) recordMutationDuration(ctx context.Context, operation string, start time.Time) {
	if s.stockMetrics == nil {
		return
	}
	s.stockMetrics.RecordMutationDuration(ctx, operation, time.Since(start))
}
