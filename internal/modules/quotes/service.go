package quotes

import (
	"context"
	"strings"
	"time"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/events"
	"github.com/aristath/rfqdesk/internal/locks"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RFQLookup resolves the parent RFQ of a submission
type RFQLookup interface {
	Get(ctx context.Context, id string) (*rfq.RFQ, error)
}

// Service is the quote store
type Service struct {
	repo    *Repository
	rfqs    RFQLookup
	locks   *locks.KeyedMutex
	emitter events.Emitter
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a new quote service. emitter may be nil.
func NewService(repo *Repository, rfqs RFQLookup, rfqLocks *locks.KeyedMutex, emitter events.Emitter, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		rfqs:    rfqs,
		locks:   rfqLocks,
		emitter: emitter,
		log:     log.With().Str("service", "quotes").Logger(),
		now:     time.Now,
	}
}

// Submit records the vendor's quote for an RFQ, overwriting the vendor's
// previous submission if there is one. The RFQ status is never changed here.
func (s *Service) Submit(ctx context.Context, rfqID, vendor string, sheet CostSheet) (*Quote, error) {
	vendor = strings.TrimSpace(vendor)

	// Same lock as finalize, so a quote cannot land after the RFQ closes
	unlock := s.locks.Lock(rfqID)
	defer unlock()

	parent, err := s.rfqs.Get(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if !parent.AcceptsQuotes() {
		return nil, &domain.ClosedRFQError{RFQID: rfqID}
	}
	if !parent.IsInvited(vendor) {
		s.log.Warn().Str("rfq_id", rfqID).Str("vendor", vendor).Msg("Quote from uninvited vendor")
		return nil, &domain.NotInvitedError{RFQID: rfqID, Vendor: vendor}
	}

	sheet = sheet.Normalize()
	if err := sheet.Validate(); err != nil {
		s.log.Warn().Err(err).Str("rfq_id", rfqID).Str("vendor", vendor).Msg("Rejected quote")
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	q := &Quote{
		ID:          uuid.New().String(),
		RFQID:       rfqID,
		VendorName:  vendor,
		CostSheet:   sheet,
		CreatedAt:   now,
		SubmittedAt: now,
	}

	created, err := s.repo.Upsert(ctx, q)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("rfq_id", rfqID).
		Str("quote_id", q.ID).
		Str("vendor", vendor).
		Bool("resubmission", !created).
		Msg("Quote submitted")

	if s.emitter != nil {
		s.emitter.Emit("quotes", &events.QuoteSubmittedData{
			RFQID:        rfqID,
			QuoteID:      q.ID,
			Vendor:       vendor,
			Resubmission: !created,
		})
	}

	return q, nil
}

// Get returns the quote or NotFoundError
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, &domain.NotFoundError{Entity: "quote", ID: id}
	}
	return q, nil
}

// ListByRFQ returns every quote addressed to the RFQ
func (s *Service) ListByRFQ(ctx context.Context, rfqID string) ([]Quote, error) {
	return s.repo.ListByRFQ(ctx, rfqID)
}

// ListByVendor returns every quote the vendor submitted
func (s *Service) ListByVendor(ctx context.Context, vendor string) ([]Quote, error) {
	return s.repo.ListByVendor(ctx, vendor)
}

// ListAll returns every quote
func (s *Service) ListAll(ctx context.Context) ([]Quote, error) {
	return s.repo.ListAll(ctx)
}
