package allocation

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aristath/rfqdesk/internal/database"
	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/events"
	"github.com/aristath/rfqdesk/internal/locks"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/aristath/rfqdesk/internal/utils"
	"github.com/rs/zerolog"
)

// Engine finalizes RFQs
type Engine struct {
	db        *sql.DB
	repo      *Repository
	rfqRepo   *rfq.Repository
	quoteRepo *quotes.Repository
	locks     *locks.KeyedMutex
	emitter   events.Emitter
	log       zerolog.Logger
	now       func() time.Time
}

// NewEngine creates a new allocation engine. All repositories must share db.
func NewEngine(
	db *sql.DB,
	repo *Repository,
	rfqRepo *rfq.Repository,
	quoteRepo *quotes.Repository,
	rfqLocks *locks.KeyedMutex,
	emitter events.Emitter,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		db:        db,
		repo:      repo,
		rfqRepo:   rfqRepo,
		quoteRepo: quoteRepo,
		locks:     rfqLocks,
		emitter:   emitter,
		log:       log.With().Str("service", "allocation").Logger(),
		now:       time.Now,
	}
}

// Finalize commits the distribution and closes the RFQ. Every check runs before
// anything is written; the writes share one transaction, so a failure leaves
// quotes, allocations and the RFQ exactly as they were.
func (e *Engine) Finalize(ctx context.Context, rfqID string, entries []Entry) (*Result, error) {
	entries = normalizeEntries(entries)

	unlock := e.locks.Lock(rfqID)
	defer unlock()
	defer utils.OperationTimer("finalize", e.log, time.Second)()

	r, err := e.rfqRepo.GetByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &domain.NotFoundError{Entity: "rfq", ID: rfqID}
	}
	if r.Status == rfq.StatusClosed {
		return nil, &domain.AlreadyClosedError{RFQID: rfqID}
	}

	rfqQuotes, err := e.quoteRepo.ListByRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]quotes.Quote, len(rfqQuotes))
	for _, q := range rfqQuotes {
		byID[q.ID] = q
	}

	lines, err := Plan(r, byID, entries)
	if err != nil {
		e.log.Warn().Err(err).Str("rfq_id", rfqID).Msg("Rejected finalize")
		return nil, err
	}

	for _, l := range lines {
		if l.Entry.Containers() > l.Quote.NumberOfContainers {
			e.log.Warn().
				Str("rfq_id", rfqID).
				Str("quote_id", l.Quote.ID).
				Int("allotted", l.Entry.Containers()).
				Int("offered", l.Quote.NumberOfContainers).
				Msg("Allotment exceeds the containers the vendor offered")
		}
	}

	createdAt := e.now().UTC().Truncate(time.Second)
	allocations := make([]Allocation, 0, len(lines))
	for _, l := range lines {
		allocations = append(allocations, Allocation{
			RFQID:                   rfqID,
			QuoteID:                 l.Quote.ID,
			VendorName:              l.Quote.VendorName,
			ContainersAllottedHome:  l.Entry.ContainersAllottedHome,
			ContainersAllottedMOOWR: l.Entry.ContainersAllottedMOOWR,
			Reason:                  l.Entry.Reason,
			CreatedAt:               createdAt,
		})
	}

	err = database.WithTransaction(ctx, e.db, func(tx *sql.Tx) error {
		// Close first: the guarded UPDATE takes the write lock and is the
		// commit-time check that nobody closed the RFQ since it was read.
		closed, err := e.rfqRepo.CompareAndSetStatus(ctx, tx, rfqID, r.Status, rfq.StatusClosed)
		if err != nil {
			return err
		}
		if !closed {
			return &domain.AlreadyClosedError{RFQID: rfqID}
		}

		for i, l := range lines {
			if err := e.quoteRepo.SetDerived(ctx, tx, l.Quote.ID,
				l.Entry.ContainersAllottedHome, l.Entry.ContainersAllottedMOOWR,
				l.HomeTotal, l.MOOWRTotal,
			); err != nil {
				return err
			}
			if err := e.repo.Insert(ctx, tx, allocations[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.log.Error().Err(err).Str("rfq_id", rfqID).Msg("Finalize rolled back")
		return nil, err
	}

	r.Status = rfq.StatusClosed
	updated := make([]quotes.Quote, 0, len(lines))
	for _, l := range lines {
		q := l.Quote
		home, moowr := l.Entry.ContainersAllottedHome, l.Entry.ContainersAllottedMOOWR
		homeTotal, moowrTotal := l.HomeTotal, l.MOOWRTotal
		q.ContainersAllottedHome = &home
		q.ContainersAllottedMOOWR = &moowr
		q.HomeTotal = &homeTotal
		q.MOOWRTotal = &moowrTotal
		updated = append(updated, q)
	}

	e.log.Info().
		Str("rfq_id", rfqID).
		Int64("rfq_number", r.RFQNumber).
		Int("containers", r.NumberOfContainers).
		Int("allocations", len(allocations)).
		Msg("RFQ finalized")

	if e.emitter != nil {
		e.emitter.Emit("allocation", &events.RFQFinalizedData{
			RFQID:           rfqID,
			TotalContainers: r.NumberOfContainers,
			AllocationCount: len(allocations),
		})
	}

	return &Result{RFQ: r, Allocations: allocations, Quotes: updated}, nil
}

// ListByRFQ returns the allocations of one RFQ
func (e *Engine) ListByRFQ(ctx context.Context, rfqID string) ([]Allocation, error) {
	return e.repo.ListByRFQ(ctx, rfqID)
}

// ListByVendor returns the allocations naming vendor
func (e *Engine) ListByVendor(ctx context.Context, vendor string) ([]Allocation, error) {
	return e.repo.ListByVendor(ctx, vendor)
}

// ListAll returns every allocation
func (e *Engine) ListAll(ctx context.Context) ([]Allocation, error) {
	return e.repo.ListAll(ctx)
}

// normalizeEntries returns trimmed copies; the caller's slice is left as is.
func normalizeEntries(in []Entry) []Entry {
	out := make([]Entry, len(in))
	for i, e := range in {
		e.QuoteID = strings.TrimSpace(e.QuoteID)
		e.Reason = strings.TrimSpace(e.Reason)
		out[i] = e
	}
	return out
}
