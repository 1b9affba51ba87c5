package ledgerrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

// LockRoomType reads the room type row with FOR UPDATE. Reserving inside a
// transaction that holds this lock serializes concurrent capacity checks for
// the same room type, which is what closes the overbooking race.
func (r *Repository) LockRoomType(ctx context.Context, roomTypeID int64) (*domain.RoomType, error) {
	query := `
        SELECT id, property_id, name, total_inventory, price_per_night,
               extra_adult_price, extra_child_price, base_occupancy, child_occupancy
        FROM room_types
        WHERE id = $1
        FOR UPDATE
    `
	var rt domain.RoomType
	err := r.db.QueryRow(ctx, query, roomTypeID).Scan(
		&rt.ID, &rt.PropertyID, &rt.Name, &rt.TotalInventory, &rt.PricePerNight,
		&rt.ExtraAdultPrice, &rt.ExtraChildPrice, &rt.BaseOccupancy, &rt.ChildOccupancy,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to lock room type", zap.Error(err))
		return nil, err
	}
	return &rt, nil
}

// ReservedUnits sums units of holds intersecting [start, end), half-open.
func (r *Repository) ReservedUnits(ctx context.Context, roomTypeID int64, start, end time.Time) (int, error) {
	query := `
        SELECT COALESCE(SUM(units), 0)
        FROM availability_ledger
        WHERE room_type_id = $1 AND start_date < $2 AND end_date > $3
    `
	var reserved int
	if err := r.db.QueryRow(ctx, query, roomTypeID, end, start).Scan(&reserved); err != nil {
		zap.L().Error("failed to sum reserved units", zap.Error(err))
		return 0, err
	}
	return reserved, nil
}

func (r *Repository) Insert(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	query := `
        INSERT INTO availability_ledger (property_id, room_type_id, inventory_type, source, reference_id, start_date, end_date, units)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		entry.PropertyID, entry.RoomTypeID, entry.InventoryType, entry.Source,
		entry.ReferenceID, entry.StartDate, entry.EndDate, entry.Units,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		zap.L().Error("can't insert ledger entry", zap.Error(err))
		return nil, err
	}
	return entry, nil
}

func (r *Repository) GetEntry(ctx context.Context, id int64) (*domain.LedgerEntry, error) {
	query := `
        SELECT id, property_id, room_type_id, inventory_type, source, reference_id, start_date, end_date, units, created_at
        FROM availability_ledger
        WHERE id = $1
    `
	var e domain.LedgerEntry
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.PropertyID, &e.RoomTypeID, &e.InventoryType, &e.Source,
		&e.ReferenceID, &e.StartDate, &e.EndDate, &e.Units, &e.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		zap.L().Error("failed to get ledger entry", zap.Error(err))
		return nil, err
	}
	return &e, nil
}

// DeleteByReference removes all holds placed for a booking or block reference.
func (r *Repository) DeleteByReference(ctx context.Context, referenceID string) (int64, error) {
	query := `
        DELETE FROM availability_ledger
        WHERE reference_id = $1
    `
	tag, err := r.db.Exec(ctx, query, referenceID)
	if err != nil {
		zap.L().Error("failed to delete ledger entries", zap.String("referenceID", referenceID), zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) DeleteEntry(ctx context.Context, id int64) error {
	query := `
        DELETE FROM availability_ledger
        WHERE id = $1
    `
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		zap.L().Error("failed to delete ledger entry", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// TruncateEndDate shortens a hold on early checkout, freeing the remaining
// nights for resale.
func (r *Repository) TruncateEndDate(ctx context.Context, referenceID string, until time.Time) error {
	query := `
        UPDATE availability_ledger
        SET end_date = $1
        WHERE reference_id = $2 AND end_date > $1 AND start_date < $1
    `
	if _, err := r.db.Exec(ctx, query, until, referenceID); err != nil {
		zap.L().Error("failed to truncate ledger hold", zap.String("referenceID", referenceID), zap.Error(err))
		return err
	}
	return nil
}
