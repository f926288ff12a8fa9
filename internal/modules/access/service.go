package access

import (
	"context"
	"sort"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/modules/allocation"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/rs/zerolog"
)

// RFQReader is the read side of the RFQ store
type RFQReader interface {
	Get(ctx context.Context, id string) (*rfq.RFQ, error)
	ListAll(ctx context.Context) ([]rfq.RFQ, error)
	ListForVendor(ctx context.Context, vendor string) ([]rfq.RFQ, error)
}

// QuoteReader is the read side of the quote store
type QuoteReader interface {
	ListAll(ctx context.Context) ([]quotes.Quote, error)
	ListByRFQ(ctx context.Context, rfqID string) ([]quotes.Quote, error)
	ListByVendor(ctx context.Context, vendor string) ([]quotes.Quote, error)
}

// AllocationReader is the read side of the allocation engine
type AllocationReader interface {
	ListAll(ctx context.Context) ([]allocation.Allocation, error)
	ListByRFQ(ctx context.Context, rfqID string) ([]allocation.Allocation, error)
	ListByVendor(ctx context.Context, vendor string) ([]allocation.Allocation, error)
}

// Service gates every read through the filter
type Service struct {
	rfqs        RFQReader
	quotes      QuoteReader
	allocations AllocationReader
	log         zerolog.Logger
}

// NewService creates a new access service
func NewService(rfqs RFQReader, quoteReader QuoteReader, allocations AllocationReader, log zerolog.Logger) *Service {
	return &Service{
		rfqs:        rfqs,
		quotes:      quoteReader,
		allocations: allocations,
		log:         log.With().Str("service", "access").Logger(),
	}
}

// Authorize reports whether p may perform action
func (s *Service) Authorize(p domain.Principal, action Action) error {
	if err := Authorize(p, action); err != nil {
		s.log.Warn().
			Str("principal", p.ID).
			Str("role", string(p.Role)).
			Str("action", string(action)).
			Msg("Action denied")
		return err
	}
	return nil
}

// RFQs returns the RFQs visible to p ordered by rfqNumber
func (s *Service) RFQs(ctx context.Context, p domain.Principal) ([]rfq.RFQ, error) {
	if p.SeesEverything() {
		return s.rfqs.ListAll(ctx)
	}
	if !p.IsVendor() {
		return []rfq.RFQ{}, nil
	}

	invited, err := s.rfqs.ListForVendor(ctx, p.Organization)
	if err != nil {
		return nil, err
	}
	allotted, err := s.allocations.ListByVendor(ctx, p.Organization)
	if err != nil {
		return nil, err
	}

	// Allotted RFQs the vendor is no longer invited to still show up
	seen := idSet(invited)
	all := invited
	for _, a := range allotted {
		if seen[a.RFQID] {
			continue
		}
		seen[a.RFQID] = true
		r, err := s.rfqs.Get(ctx, a.RFQID)
		if err != nil {
			return nil, err
		}
		all = append(all, *r)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].RFQNumber < all[j].RFQNumber })
	return VisibleRFQs(p, all, allotted), nil
}

// RFQ returns one RFQ if p may see it. An invisible RFQ is reported as not
// found so vendors cannot probe for ids.
func (s *Service) RFQ(ctx context.Context, p domain.Principal, id string) (*rfq.RFQ, error) {
	r, err := s.rfqs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SeesEverything() {
		return r, nil
	}

	var allocations []allocation.Allocation
	if p.IsVendor() && !r.IsInvited(p.Organization) {
		if allocations, err = s.allocations.ListByRFQ(ctx, id); err != nil {
			return nil, err
		}
	}
	if !CanViewRFQ(p, r, allocations) {
		return nil, &domain.NotFoundError{Entity: "rfq", ID: id}
	}
	return r, nil
}

// Quotes returns every quote visible to p
func (s *Service) Quotes(ctx context.Context, p domain.Principal) ([]quotes.Quote, error) {
	if p.SeesEverything() {
		return s.quotes.ListAll(ctx)
	}
	if !p.IsVendor() {
		return []quotes.Quote{}, nil
	}

	own, err := s.quotes.ListByVendor(ctx, p.Organization)
	if err != nil {
		return nil, err
	}
	visible, err := s.RFQs(ctx, p)
	if err != nil {
		return nil, err
	}
	return VisibleQuotes(p, own, visible), nil
}

// QuotesForRFQ returns the quotes of one RFQ visible to p
func (s *Service) QuotesForRFQ(ctx context.Context, p domain.Principal, rfqID string) ([]quotes.Quote, error) {
	r, err := s.RFQ(ctx, p, rfqID)
	if err != nil {
		return nil, err
	}
	all, err := s.quotes.ListByRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	return VisibleQuotes(p, all, []rfq.RFQ{*r}), nil
}

// Allocations returns every allocation row visible to p
func (s *Service) Allocations(ctx context.Context, p domain.Principal) ([]allocation.Allocation, error) {
	if p.SeesEverything() {
		return s.allocations.ListAll(ctx)
	}
	if !p.IsVendor() {
		return []allocation.Allocation{}, nil
	}

	own, err := s.allocations.ListByVendor(ctx, p.Organization)
	if err != nil {
		return nil, err
	}
	visible, err := s.RFQs(ctx, p)
	if err != nil {
		return nil, err
	}
	return VisibleAllocations(p, own, visible), nil
}

// AllocationsForRFQ returns the allocation rows of one RFQ visible to p
func (s *Service) AllocationsForRFQ(ctx context.Context, p domain.Principal, rfqID string) ([]allocation.Allocation, error) {
	r, err := s.RFQ(ctx, p, rfqID)
	if err != nil {
		return nil, err
	}
	all, err := s.allocations.ListByRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	return VisibleAllocations(p, all, []rfq.RFQ{*r}), nil
}

// CanSeeEvent reports whether an event scoped to (rfqID, vendor) may be pushed to p.
// Vendor-scoped events only reach that vendor; the rest follow RFQ visibility.
func (s *Service) CanSeeEvent(ctx context.Context, p domain.Principal, rfqID, vendor string) bool {
	if p.SeesEverything() {
		return true
	}
	if !p.IsVendor() || rfqID == "" {
		return false
	}
	if vendor != "" && vendor != p.Organization {
		return false
	}
	_, err := s.RFQ(ctx, p, rfqID)
	return err == nil
}
