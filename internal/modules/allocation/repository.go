package allocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/rfqdesk/internal/database"
	"github.com/rs/zerolog"
)

const allocationColumns = `rfq_id, quote_id, vendor_name, containers_allotted_home,
containers_allotted_moowr, reason, created_at`

// Repository handles the append-only allocations table in procurement.db.
// Rows are never updated or deleted; the schema enforces this with triggers.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new allocation repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "allocation").Logger(),
	}
}

// Insert appends an allocation row
func (r *Repository) Insert(ctx context.Context, exec database.Executor, a Allocation) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO allocations (`+allocationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		a.RFQID,
		a.QuoteID,
		a.VendorName,
		a.ContainersAllottedHome,
		a.ContainersAllottedMOOWR,
		a.Reason,
		a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert allocation for quote %s: %w", a.QuoteID, err)
	}
	return nil
}

// ListByRFQ returns the allocation rows of one RFQ
func (r *Repository) ListByRFQ(ctx context.Context, rfqID string) ([]Allocation, error) {
	return r.query(ctx, "SELECT "+allocationColumns+" FROM allocations WHERE rfq_id = ? ORDER BY rowid", rfqID)
}

// ListByVendor returns the allocation rows naming vendor
func (r *Repository) ListByVendor(ctx context.Context, vendor string) ([]Allocation, error) {
	return r.query(ctx, "SELECT "+allocationColumns+" FROM allocations WHERE vendor_name = ? ORDER BY rowid", vendor)
}

// ListAll returns every allocation row
func (r *Repository) ListAll(ctx context.Context) ([]Allocation, error) {
	return r.query(ctx, "SELECT "+allocationColumns+" FROM allocations ORDER BY rowid")
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]Allocation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocations []Allocation
	for rows.Next() {
		var a Allocation
		var createdAt int64
		if err := rows.Scan(
			&a.RFQID,
			&a.QuoteID,
			&a.VendorName,
			&a.ContainersAllottedHome,
			&a.ContainersAllottedMOOWR,
			&a.Reason,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}
	return allocations, nil
}
