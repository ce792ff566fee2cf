package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLRepository works against PostgreSQL and SQLite. Queries are written with
// '?' placeholders and rebound for the connected driver.
type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

const (
	insertDonationQuery = `
        INSERT INTO donations (id, donor_id, location_id, blood_type, units_donated, donated_at)
        VALUES (:id, :donor_id, :location_id, :blood_type, :units_donated, :donated_at)
    `
	insertRequestQuery = `
        INSERT INTO blood_requests (
            id, location_id, blood_type, units_requested, requester_type,
            requested_by, status, created_at, resolved_at
        )
        VALUES (
            :id, :location_id, :blood_type, :units_requested, :requester_type,
            :requested_by, :status, :created_at, :resolved_at
        )
    `
	insertMovementQuery = `
        INSERT INTO inventory_movements (
            id, location_id, blood_type, movement_type, quantity_change,
            quantity_before, quantity_after, reference_type, reference_id,
            notes, created_by, created_at, expires_at, is_safe
        )
        VALUES (
            :id, :location_id, :blood_type, :movement_type, :quantity_change,
            :quantity_before, :quantity_after, :reference_type, :reference_id,
            :notes, :created_by, :created_at, :expires_at, :is_safe
        )
    `
	upsertIncrementQuery = `
        INSERT INTO inventory (id, location_id, blood_type, units_available, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (location_id, blood_type)
        DO UPDATE SET
            units_available = inventory.units_available + excluded.units_available,
            updated_at = excluded.updated_at
    `
	// The guard: the row only changes while it still holds enough units. The
	// row lock taken by the UPDATE serializes concurrent reservations, and a
	// waiting transaction re-evaluates the predicate against the committed value.
	guardedDecrementQuery = `
        UPDATE inventory
        SET units_available = units_available - ?, updated_at = ?
        WHERE location_id = ? AND blood_type = ? AND units_available >= ?
    `
)

func (r *SQLRepository) RecordDonation(ctx context.Context, d *model.DonationRecord, m *model.InventoryMovement) (*model.InventoryEntry, error) {
	const op = "record donation"

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, model.NewStorageError(op, err)
	}
	defer tx.Rollback()

	// 1. Donor must exist; the newest donation date wins.
	res, err := tx.ExecContext(ctx, r.DB.Rebind(`
        UPDATE donors
        SET last_donation = CASE WHEN last_donation IS NULL OR last_donation < ? THEN ? ELSE last_donation END,
            updated_at = ?
        WHERE id = ?
    `), d.DonatedAt, d.DonatedAt, d.DonatedAt, d.DonorID)
	if err != nil {
		return nil, model.NewStorageError(op, fmt.Errorf("stamp donor: %w", err))
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, model.NewStorageError(op, err)
	} else if n == 0 {
		return nil, model.ErrDonorNotFound
	}

	// 2. Donation record
	if _, err := tx.NamedExecContext(ctx, insertDonationQuery, d); err != nil {
		return nil, model.NewStorageError(op, fmt.Errorf("insert donation: %w", err))
	}

	// 3. Inventory upsert
	if err := r.increment(ctx, tx, d.LocationID, d.BloodType, d.UnitsDonated, d.DonatedAt); err != nil {
		return nil, model.NewStorageError(op, err)
	}

	entry, err := r.readBack(ctx, tx, d.LocationID, d.BloodType)
	if err != nil {
		return nil, model.NewStorageError(op, err)
	}

	// 4. Movement log
	m.QuantityChange = d.UnitsDonated
	m.QuantityAfter = entry.UnitsAvailable
	m.QuantityBefore = entry.UnitsAvailable - d.UnitsDonated
	if _, err := tx.NamedExecContext(ctx, insertMovementQuery, m); err != nil {
		return nil, model.NewStorageError(op, fmt.Errorf("log movement: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, model.NewStorageError(op, err)
	}
	return entry, nil
}

func (r *SQLRepository) SubmitRequestAndReserve(ctx context.Context, req *model.RequestRecord, m *model.InventoryMovement) (*model.RequestRecord, error) {
	const op = "submit request"

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, model.NewStorageError(op, err)
	}
	defer tx.Rollback()

	// 1. Pending request
	pending := *req
	pending.Status = model.RequestPending
	pending.ResolvedAt = nil
	if _, err := tx.NamedExecContext(ctx, insertRequestQuery, &pending); err != nil {
		return nil, model.NewStorageError(op, fmt.Errorf("insert request: %w", err))
	}

	// 2. Guarded reservation
	now := time.Now().UTC()
	reserved, err := r.decrement(ctx, tx, req.LocationID, req.BloodType, req.UnitsRequested, now)
	if err != nil {
		return nil, model.NewStorageError(op, err)
	}

	status := model.RequestRejected
	if reserved {
		status = model.RequestFulfilled

		entry, err := r.readBack(ctx, tx, req.LocationID, req.BloodType)
		if err != nil {
			return nil, model.NewStorageError(op, err)
		}
		m.QuantityChange = -req.UnitsRequested
		m.QuantityAfter = entry.UnitsAvailable
		m.QuantityBefore = entry.UnitsAvailable + req.UnitsRequested
		if _, err := tx.NamedExecContext(ctx, insertMovementQuery, m); err != nil {
			return nil, model.NewStorageError(op, fmt.Errorf("log movement: %w", err))
		}
	}

	// 3. Terminal status
	if _, err := tx.ExecContext(ctx, r.DB.Rebind(`UPDATE blood_requests SET status = ?, resolved_at = ? WHERE id = ?`), status, now, req.ID); err != nil {
		return nil, model.NewStorageError(op, fmt.Errorf("resolve request: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, model.NewStorageError(op, err)
	}

	resolved := pending
	resolved.Status = status
	resolved.ResolvedAt = &now
	return &resolved, nil
}

func (r *SQLRepository) AdjustStock(ctx context.Context, m *model.InventoryMovement) (*model.InventoryEntry, error) {
	const op = "adjust stock"

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, model.NewStorageError(op, err)
	}
	defer tx.Rollback()

	if m.QuantityChange >= 0 {
		if err := r.increment(ctx, tx, m.LocationID, m.BloodType, m.QuantityChange, m.CreatedAt); err != nil {
			return nil, model.NewStorageError(op, err)
		}
	} else {
		ok, err := r.decrement(ctx, tx, m.LocationID, m.BloodType, -m.QuantityChange, m.CreatedAt)
		if err != nil {
			return nil, model.NewStorageError(op, err)
		}
		if !ok {
			return nil, model.ErrInsufficientInventory
		}
	}

	entry, err := r.readBack(ctx, tx, m.LocationID, m.BloodType)
	if err != nil {
		return nil, model.NewStorageError(op, err)
	}

	m.QuantityAfter = entry.UnitsAvailable
	m.QuantityBefore = entry.UnitsAvailable - m.QuantityChange
	if _, err := tx.NamedExecContext(ctx, insertMovementQuery, m); err != nil {
		return nil, model.NewStorageError(op, fmt.Errorf("log movement: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, model.NewStorageError(op, err)
	}
	return entry, nil
}

func (r *SQLRepository) increment(ctx context.Context, tx *sqlx.Tx, locationID string, bt model.BloodType, units int, at time.Time) error {
	_, err := tx.ExecContext(ctx, r.DB.Rebind(upsertIncrementQuery), uuid.New().String(), locationID, bt, units, at)
	if err != nil {
		return fmt.Errorf("upsert inventory: %w", err)
	}
	return nil
}

// decrement reports whether the guarded update applied.
func (r *SQLRepository) decrement(ctx context.Context, tx *sqlx.Tx, locationID string, bt model.BloodType, units int, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, r.DB.Rebind(guardedDecrementQuery), units, at, locationID, bt, units)
	if err != nil {
		return false, fmt.Errorf("reserve inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLRepository) getEntry(ctx context.Context, q sqlx.QueryerContext, locationID string, bt model.BloodType) (*model.InventoryEntry, error) {
	var e model.InventoryEntry
	err := sqlx.GetContext(ctx, q, &e, r.DB.Rebind(`SELECT * FROM inventory WHERE location_id = ? AND blood_type = ?`), locationID, bt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// readBack loads the row a mutation just wrote; it must exist.
func (r *SQLRepository) readBack(ctx context.Context, tx *sqlx.Tx, locationID string, bt model.BloodType) (*model.InventoryEntry, error) {
	e, err := r.getEntry(ctx, tx, locationID, bt)
	if err != nil {
		return nil, fmt.Errorf("read back inventory: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("read back inventory: no row for %s/%s", locationID, bt)
	}
	return e, nil
}

func (r *SQLRepository) GetEntry(ctx context.Context, locationID string, bt model.BloodType) (*model.InventoryEntry, error) {
	e, err := r.getEntry(ctx, r.DB, locationID, bt)
	if err != nil {
		return nil, model.NewStorageError("get inventory", err)
	}
	return e, nil
}

func (r *SQLRepository) ListEntries(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryEntry, int, error) {
	w := newWhere()
	w.eq("location_id", f.LocationID)
	w.eq("blood_type", string(f.BloodType))

	var items []model.InventoryEntry
	count, err := r.page(ctx, &items, "inventory", w, "location_id ASC, blood_type ASC", f.Page, f.PageSize)
	if err != nil {
		return nil, 0, model.NewStorageError("list inventory", err)
	}
	return items, count, nil
}

func (r *SQLRepository) GetRequest(ctx context.Context, id string) (*model.RequestRecord, error) {
	var req model.RequestRecord
	err := r.DB.GetContext(ctx, &req, r.DB.Rebind(`SELECT * FROM blood_requests WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, model.NewStorageError("get request", err)
	}
	return &req, nil
}

func (r *SQLRepository) ListRequests(ctx context.Context, f *dto.RequestFilters) ([]model.RequestRecord, int, error) {
	w := newWhere()
	w.eq("location_id", f.LocationID)
	w.eq("blood_type", string(f.BloodType))
	w.eq("status", string(f.Status))

	var items []model.RequestRecord
	count, err := r.page(ctx, &items, "blood_requests", w, "created_at DESC", f.Page, f.PageSize)
	if err != nil {
		return nil, 0, model.NewStorageError("list requests", err)
	}
	return items, count, nil
}

func (r *SQLRepository) ListDonations(ctx context.Context, f *dto.DonationFilters) ([]model.DonationRecord, int, error) {
	w := newWhere()
	w.eq("donor_id", f.DonorID)
	w.eq("location_id", f.LocationID)

	var items []model.DonationRecord
	count, err := r.page(ctx, &items, "donations", w, "donated_at DESC", f.Page, f.PageSize)
	if err != nil {
		return nil, 0, model.NewStorageError("list donations", err)
	}
	return items, count, nil
}

func (r *SQLRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	w := newWhere()
	w.eq("location_id", f.LocationID)
	w.eq("blood_type", string(f.BloodType))
	w.eq("movement_type", string(f.MovementType))

	var items []model.InventoryMovement
	count, err := r.page(ctx, &items, "inventory_movements", w, "created_at DESC", f.Page, f.PageSize)
	if err != nil {
		return nil, 0, model.NewStorageError("list movements", err)
	}
	return items, count, nil
}

func (r *SQLRepository) Summary(ctx context.Context) (*model.InventorySummary, error) {
	const op = "inventory summary"

	var units []struct {
		BloodType model.BloodType `db:"blood_type"`
		Units     int             `db:"units"`
	}
	if err := r.DB.SelectContext(ctx, &units, `SELECT blood_type, COALESCE(SUM(units_available), 0) AS units FROM inventory GROUP BY blood_type`); err != nil {
		return nil, model.NewStorageError(op, err)
	}

	var statuses []struct {
		Status model.RequestStatus `db:"status"`
		N      int                 `db:"n"`
	}
	if err := r.DB.SelectContext(ctx, &statuses, `SELECT status, count(*) AS n FROM blood_requests GROUP BY status`); err != nil {
		return nil, model.NewStorageError(op, err)
	}

	s := &model.InventorySummary{
		UnitsByBloodType: make(map[model.BloodType]int, len(model.AllBloodTypes)),
		RequestsByStatus: map[model.RequestStatus]int{
			model.RequestPending:   0,
			model.RequestFulfilled: 0,
			model.RequestRejected:  0,
		},
	}
	for _, bt := range model.AllBloodTypes {
		s.UnitsByBloodType[bt] = 0
	}
	for _, u := range units {
		s.UnitsByBloodType[u.BloodType] = u.Units
		s.TotalUnits += u.Units
	}
	for _, st := range statuses {
		s.RequestsByStatus[st.Status] = st.N
	}
	return s, nil
}

type where struct {
	conditions []string
	args       map[string]interface{}
}

func newWhere() *where {
	return &where{args: map[string]interface{}{}}
}

// eq adds "column = :column" unless value is empty.
func (w *where) eq(column, value string) {
	if value == "" {
		return
	}
	w.conditions = append(w.conditions, fmt.Sprintf("%s = :%s", column, column))
	w.args[column] = value
}

func (w *where) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// page loads one page of table into dest and returns the unpaged row count.
func (r *SQLRepository) page(ctx context.Context, dest interface{}, table string, w *where, orderBy string, page, pageSize int) (int, error) {
	countQuery, countArgs, err := r.DB.BindNamed("SELECT count(*) FROM "+table+w.clause(), w.args)
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.DB.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return 0, err
	}

	query := "SELECT * FROM " + table + w.clause() + " ORDER BY " + orderBy
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}
	query, args, err := r.DB.BindNamed(query, w.args)
	if err != nil {
		return 0, err
	}
	if err := r.DB.SelectContext(ctx, dest, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
