package quotes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/rfqdesk/internal/database"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// quoteColumns is the column list shared by every SELECT.
// Order must match scanQuote.
const quoteColumns = `id, rfq_id, vendor_name, number_of_containers, shipping_line, vessel_name,
vessel_etd, vessel_eta, sea_freight_per_container, house_delivery_order_per_bol, cfs_per_container,
transportation_per_container, cha_charges_home, cha_charges_moowr, edi_charges_per_boe,
moowr_rewarehousing_charges, transship_or_direct, quote_validity_date, message, created_at,
submitted_at, containers_allotted_home, containers_allotted_moowr, home_total, moowr_total`

// Repository handles quote persistence in procurement.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new quote repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "quotes").Logger(),
	}
}

// Upsert inserts q or, when a quote for (rfqId, vendorName) exists, overwrites
// its cost sheet and submittedAt. The existing id and createdAt are kept and
// written back into q. Derived fields are never touched. It reports whether a
// new row was created.
func (r *Repository) Upsert(ctx context.Context, q *Quote) (bool, error) {
	proposedID := q.ID
	var id string
	var createdAt int64

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO quotes (
			id, rfq_id, vendor_name, number_of_containers, shipping_line, vessel_name,
			vessel_etd, vessel_eta, sea_freight_per_container, house_delivery_order_per_bol,
			cfs_per_container, transportation_per_container, cha_charges_home, cha_charges_moowr,
			edi_charges_per_boe, moowr_rewarehousing_charges, transship_or_direct,
			quote_validity_date, message, created_at, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (rfq_id, vendor_name) DO UPDATE SET
			number_of_containers = excluded.number_of_containers,
			shipping_line = excluded.shipping_line,
			vessel_name = excluded.vessel_name,
			vessel_etd = excluded.vessel_etd,
			vessel_eta = excluded.vessel_eta,
			sea_freight_per_container = excluded.sea_freight_per_container,
			house_delivery_order_per_bol = excluded.house_delivery_order_per_bol,
			cfs_per_container = excluded.cfs_per_container,
			transportation_per_container = excluded.transportation_per_container,
			cha_charges_home = excluded.cha_charges_home,
			cha_charges_moowr = excluded.cha_charges_moowr,
			edi_charges_per_boe = excluded.edi_charges_per_boe,
			moowr_rewarehousing_charges = excluded.moowr_rewarehousing_charges,
			transship_or_direct = excluded.transship_or_direct,
			quote_validity_date = excluded.quote_validity_date,
			message = excluded.message,
			submitted_at = excluded.submitted_at
		RETURNING id, created_at
	`,
		q.ID,
		q.RFQID,
		q.VendorName,
		q.NumberOfContainers,
		q.ShippingLine,
		q.VesselName,
		q.VesselETD,
		q.VesselETA,
		q.SeaFreightPerContainer.String(),
		q.HouseDeliveryOrderPerBOL.String(),
		q.CFSPerContainer.String(),
		q.TransportationPerContainer.String(),
		q.CHAChargesHome.String(),
		q.CHAChargesMOOWR.String(),
		q.EDIChargesPerBOE.String(),
		q.MOOWRRewarehousingCharges.String(),
		string(q.TransshipOrDirect),
		q.QuoteValidityDate,
		q.Message,
		q.CreatedAt.Unix(),
		q.SubmittedAt.Unix(),
	).Scan(&id, &createdAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert quote: %w", err)
	}

	q.ID = id
	q.CreatedAt = time.Unix(createdAt, 0).UTC()
	return id == proposedID, nil
}

// GetByID returns the quote or nil if it does not exist
func (r *Repository) GetByID(ctx context.Context, id string) (*Quote, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+quoteColumns+" FROM quotes WHERE id = ?", id)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote %s: %w", id, err)
	}
	return q, nil
}

// ListByRFQ returns the quotes addressed to an RFQ, oldest first
func (r *Repository) ListByRFQ(ctx context.Context, rfqID string) ([]Quote, error) {
	return r.ListByRFQWith(ctx, r.db, rfqID)
}

// ListByRFQWith is ListByRFQ against an explicit executor (typically a transaction)
func (r *Repository) ListByRFQWith(ctx context.Context, exec database.Executor, rfqID string) ([]Quote, error) {
	return query(ctx, exec,
		"SELECT "+quoteColumns+" FROM quotes WHERE rfq_id = ? ORDER BY created_at, vendor_name", rfqID)
}

// ListByVendor returns every quote submitted by vendor
func (r *Repository) ListByVendor(ctx context.Context, vendor string) ([]Quote, error) {
	return query(ctx, r.db,
		"SELECT "+quoteColumns+" FROM quotes WHERE vendor_name = ? ORDER BY created_at, rfq_id", vendor)
}

// ListAll returns every quote
func (r *Repository) ListAll(ctx context.Context) ([]Quote, error) {
	return query(ctx, r.db, "SELECT "+quoteColumns+" FROM quotes ORDER BY created_at, rfq_id, vendor_name")
}

// SetDerived writes the allotment counts and totals computed at finalize
func (r *Repository) SetDerived(ctx context.Context, exec database.Executor, quoteID string, home, moowr int, homeTotal, moowrTotal decimal.Decimal) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE quotes SET
			containers_allotted_home = ?,
			containers_allotted_moowr = ?,
			home_total = ?,
			moowr_total = ?
		WHERE id = ?
	`, home, moowr, homeTotal.String(), moowrTotal.String(), quoteID)
	if err != nil {
		return fmt.Errorf("failed to write derived totals for quote %s: %w", quoteID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("quote %s vanished while writing derived totals", quoteID)
	}
	return nil
}

func query(ctx context.Context, exec database.Executor, query string, args ...interface{}) ([]Quote, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}
	return quotes, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(s scanner) (*Quote, error) {
	var q Quote
	var routing string
	var createdAt, submittedAt int64
	var allottedHome, allottedMOOWR sql.NullInt64
	var homeTotal, moowrTotal sql.NullString
	costs := make([]string, 8)

	err := s.Scan(
		&q.ID,
		&q.RFQID,
		&q.VendorName,
		&q.NumberOfContainers,
		&q.ShippingLine,
		&q.VesselName,
		&q.VesselETD,
		&q.VesselETA,
		&costs[0],
		&costs[1],
		&costs[2],
		&costs[3],
		&costs[4],
		&costs[5],
		&costs[6],
		&costs[7],
		&routing,
		&q.QuoteValidityDate,
		&q.Message,
		&createdAt,
		&submittedAt,
		&allottedHome,
		&allottedMOOWR,
		&homeTotal,
		&moowrTotal,
	)
	if err != nil {
		return nil, err
	}

	targets := []*decimal.Decimal{
		&q.SeaFreightPerContainer,
		&q.HouseDeliveryOrderPerBOL,
		&q.CFSPerContainer,
		&q.TransportationPerContainer,
		&q.CHAChargesHome,
		&q.CHAChargesMOOWR,
		&q.EDIChargesPerBOE,
		&q.MOOWRRewarehousingCharges,
	}
	for i, target := range targets {
		if *target, err = decimal.NewFromString(costs[i]); err != nil {
			return nil, fmt.Errorf("quote %s: bad cost value %q: %w", q.ID, costs[i], err)
		}
	}

	q.TransshipOrDirect = RoutingMode(routing)
	q.CreatedAt = time.Unix(createdAt, 0).UTC()
	q.SubmittedAt = time.Unix(submittedAt, 0).UTC()

	if allottedHome.Valid {
		v := int(allottedHome.Int64)
		q.ContainersAllottedHome = &v
	}
	if allottedMOOWR.Valid {
		v := int(allottedMOOWR.Int64)
		q.ContainersAllottedMOOWR = &v
	}
	if homeTotal.Valid {
		d, err := decimal.NewFromString(homeTotal.String)
		if err != nil {
			return nil, fmt.Errorf("quote %s: bad home total: %w", q.ID, err)
		}
		q.HomeTotal = &d
	}
	if moowrTotal.Valid {
		d, err := decimal.NewFromString(moowrTotal.String)
		if err != nil {
			return nil, fmt.Errorf("quote %s: bad moowr total: %w", q.ID, err)
		}
		q.MOOWRTotal = &d
	}

	return &q, nil
}
