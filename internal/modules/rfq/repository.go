package rfq

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/rfqdesk/internal/database"
	"github.com/rs/zerolog"
)

// rfqColumns is the column list shared by every SELECT.
// Order must match scanRFQ.
const rfqColumns = `id, rfq_number, item_description, company_name, material_po_number, supplier_name,
port_of_loading, port_of_destination, container_type, number_of_containers, cargo_weight,
cargo_readiness_date, description, vendors, created_at, created_by, status`

// Repository handles RFQ persistence in procurement.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new RFQ repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "rfq").Logger(),
	}
}

// NextNumber allocates the next rfqNumber in its own write.
// A number handed out here is never reused, even if the insert that follows fails.
func (r *Repository) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE sequences SET value = value + 1 WHERE name = 'rfq_number' RETURNING value`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate rfq number: %w", err)
	}
	return n, nil
}

// Insert persists a new RFQ
func (r *Repository) Insert(ctx context.Context, rfq *RFQ) error {
	vendors, err := json.Marshal(rfq.Vendors)
	if err != nil {
		return fmt.Errorf("failed to encode vendors: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO rfqs (`+rfqColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rfq.ID,
		rfq.RFQNumber,
		rfq.ItemDescription,
		rfq.CompanyName,
		rfq.MaterialPONumber,
		rfq.SupplierName,
		rfq.PortOfLoading,
		rfq.PortOfDestination,
		rfq.ContainerType,
		rfq.NumberOfContainers,
		rfq.CargoWeight,
		rfq.CargoReadinessDate,
		rfq.Description,
		string(vendors),
		rfq.CreatedAt.Unix(),
		rfq.CreatedBy,
		string(rfq.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rfq: %w", err)
	}
	return nil
}

// GetByID returns the RFQ or nil if it does not exist
func (r *Repository) GetByID(ctx context.Context, id string) (*RFQ, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+rfqColumns+" FROM rfqs WHERE id = ?", id)
	rfq, err := scanRFQ(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rfq %s: %w", id, err)
	}
	return rfq, nil
}

// GetByNumber returns the RFQ with the given rfqNumber or nil
func (r *Repository) GetByNumber(ctx context.Context, number int64) (*RFQ, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+rfqColumns+" FROM rfqs WHERE rfq_number = ?", number)
	rfq, err := scanRFQ(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rfq number %d: %w", number, err)
	}
	return rfq, nil
}

// List returns every RFQ ordered by rfqNumber
func (r *Repository) List(ctx context.Context) ([]RFQ, error) {
	return r.query(ctx, "SELECT "+rfqColumns+" FROM rfqs ORDER BY rfq_number")
}

// ListForVendor returns RFQs whose invitation list contains vendor
func (r *Repository) ListForVendor(ctx context.Context, vendor string) ([]RFQ, error) {
	return r.query(ctx, `
		SELECT `+rfqColumns+` FROM rfqs
		WHERE EXISTS (SELECT 1 FROM json_each(rfqs.vendors) WHERE json_each.value = ?)
		ORDER BY rfq_number
	`, vendor)
}

// ListByStatus returns RFQs in the given status ordered by rfqNumber
func (r *Repository) ListByStatus(ctx context.Context, status Status) ([]RFQ, error) {
	return r.query(ctx, "SELECT "+rfqColumns+" FROM rfqs WHERE status = ? ORDER BY rfq_number", string(status))
}

// CompareAndSetStatus moves the RFQ from one status to another only if it is
// still in the expected status. It reports whether the row was updated.
func (r *Repository) CompareAndSetStatus(ctx context.Context, exec database.Executor, id string, from, to Status) (bool, error) {
	result, err := exec.ExecContext(ctx,
		"UPDATE rfqs SET status = ? WHERE id = ? AND status = ?",
		string(to), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update rfq status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]RFQ, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rfqs: %w", err)
	}
	defer rows.Close()

	var rfqs []RFQ
	for rows.Next() {
		rfq, err := scanRFQ(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rfq: %w", err)
		}
		rfqs = append(rfqs, *rfq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rfqs: %w", err)
	}
	return rfqs, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRFQ(s scanner) (*RFQ, error) {
	var rfq RFQ
	var vendors string
	var status string
	var createdAt int64

	err := s.Scan(
		&rfq.ID,
		&rfq.RFQNumber,
		&rfq.ItemDescription,
		&rfq.CompanyName,
		&rfq.MaterialPONumber,
		&rfq.SupplierName,
		&rfq.PortOfLoading,
		&rfq.PortOfDestination,
		&rfq.ContainerType,
		&rfq.NumberOfContainers,
		&rfq.CargoWeight,
		&rfq.CargoReadinessDate,
		&rfq.Description,
		&vendors,
		&createdAt,
		&rfq.CreatedBy,
		&status,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(vendors), &rfq.Vendors); err != nil {
		return nil, fmt.Errorf("failed to decode vendors of rfq %s: %w", rfq.ID, err)
	}
	// Stored rows are constrained by CHECK, so this only normalizes legacy values
	if rfq.Status, err = ParseStatus(status); err != nil {
		return nil, err
	}
	rfq.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &rfq, nil
}
