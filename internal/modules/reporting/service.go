package reporting

import (
	"context"
	"time"

	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/aristath/rfqdesk/internal/utils"
	"github.com/rs/zerolog"
)

// ClosedRFQLister lists closed RFQs
type ClosedRFQLister interface {
	ListClosed(ctx context.Context) ([]rfq.RFQ, error)
}

// QuoteLister lists quotes
type QuoteLister interface {
	ListAll(ctx context.Context) ([]quotes.Quote, error)
}

// Service serves the lane cost read-model
type Service struct {
	rfqs   ClosedRFQLister
	quotes QuoteLister
	log    zerolog.Logger
}

// NewService creates a new reporting service
func NewService(rfqs ClosedRFQLister, quoteLister QuoteLister, log zerolog.Logger) *Service {
	return &Service{
		rfqs:   rfqs,
		quotes: quoteLister,
		log:    log.With().Str("service", "reporting").Logger(),
	}
}

// Lanes summarizes every lane with closed RFQs
func (s *Service) Lanes(ctx context.Context, topN int) ([]LaneSummary, error) {
	defer utils.OperationTimer("lane_report", s.log, 2*time.Second)()

	closed, err := s.rfqs.ListClosed(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.quotes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	lanes := BuildLanes(closed, all, topN)

	s.log.Debug().
		Int("rfqs", len(closed)).
		Int("lanes", len(lanes)).
		Msg("Built lane report")

	return lanes, nil
}
