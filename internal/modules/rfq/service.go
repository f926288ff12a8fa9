package rfq

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/events"
	"github.com/aristath/rfqdesk/internal/locks"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the RFQ store: it owns creation, numbering and status transitions.
// Writes for one RFQ serialize on the shared per-RFQ lock.
type Service struct {
	repo    *Repository
	locks   *locks.KeyedMutex
	emitter events.Emitter
	log     zerolog.Logger
	now     func() time.Time
}

// NewService creates a new RFQ service. emitter may be nil.
func NewService(repo *Repository, rfqLocks *locks.KeyedMutex, emitter events.Emitter, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		locks:   rfqLocks,
		emitter: emitter,
		log:     log.With().Str("service", "rfq").Logger(),
		now:     time.Now,
	}
}

// Create validates the input, allocates the next rfqNumber and persists the RFQ
// with status initial.
func (s *Service) Create(ctx context.Context, in NewRFQ, creator domain.Principal) (*RFQ, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		s.log.Warn().Err(err).Str("created_by", creator.ID).Msg("Rejected rfq")
		return nil, err
	}

	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, err
	}

	rfq := &RFQ{
		ID:                 uuid.New().String(),
		RFQNumber:          number,
		ItemDescription:    in.ItemDescription,
		CompanyName:        in.CompanyName,
		MaterialPONumber:   in.MaterialPONumber,
		SupplierName:       in.SupplierName,
		PortOfLoading:      in.PortOfLoading,
		PortOfDestination:  in.PortOfDestination,
		ContainerType:      in.ContainerType,
		NumberOfContainers: in.NumberOfContainers,
		CargoWeight:        in.CargoWeight,
		CargoReadinessDate: in.CargoReadinessDate,
		Description:        in.Description,
		Vendors:            in.Vendors,
		CreatedAt:          s.now().UTC().Truncate(time.Second),
		CreatedBy:          creator.ID,
		Status:             StatusInitial,
	}

	if err := s.repo.Insert(ctx, rfq); err != nil {
		s.log.Error().Err(err).Int64("rfq_number", number).Msg("Failed to persist rfq; number is burnt")
		return nil, err
	}

	s.log.Info().
		Str("rfq_id", rfq.ID).
		Int64("rfq_number", rfq.RFQNumber).
		Int("containers", rfq.NumberOfContainers).
		Int("vendors", len(rfq.Vendors)).
		Msg("RFQ created")

	s.emit(&events.RFQCreatedData{
		RFQID:              rfq.ID,
		RFQNumber:          rfq.RFQNumber,
		NumberOfContainers: rfq.NumberOfContainers,
	})

	return rfq, nil
}

// UpdateStatus moves the RFQ forward. Re-setting the current status succeeds
// without a write; any backward move fails with InvalidTransitionError.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*RFQ, error) {
	next, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	rfq, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rfq.Status == next {
		return rfq, nil
	}
	if !rfq.Status.CanTransitionTo(next) {
		return nil, &domain.InvalidTransitionError{RFQID: id, From: string(rfq.Status), To: string(next)}
	}

	updated, err := s.repo.CompareAndSetStatus(ctx, s.repo.db, id, rfq.Status, next)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Another writer moved it between our read and write
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == next {
			return current, nil
		}
		return nil, &domain.InvalidTransitionError{RFQID: id, From: string(current.Status), To: string(next)}
	}

	previous := rfq.Status
	rfq.Status = next

	s.log.Info().
		Str("rfq_id", id).
		Str("from", string(previous)).
		Str("to", string(next)).
		Msg("RFQ status changed")

	s.emit(&events.RFQStatusChangedData{RFQID: id, From: string(previous), To: string(next)})

	return rfq, nil
}

// Get returns the RFQ or NotFoundError
func (s *Service) Get(ctx context.Context, id string) (*RFQ, error) {
	rfq, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rfq == nil {
		return nil, &domain.NotFoundError{Entity: "rfq", ID: id}
	}
	return rfq, nil
}

// GetByNumber returns the RFQ with the human-readable number or NotFoundError
func (s *Service) GetByNumber(ctx context.Context, number int64) (*RFQ, error) {
	rfq, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if rfq == nil {
		return nil, &domain.NotFoundError{Entity: "rfq", ID: fmt.Sprintf("#%d", number)}
	}
	return rfq, nil
}

// ListAll returns every RFQ
func (s *Service) ListAll(ctx context.Context) ([]RFQ, error) {
	return s.repo.List(ctx)
}

// ListForVendor returns RFQs the vendor is invited to
func (s *Service) ListForVendor(ctx context.Context, vendor string) ([]RFQ, error) {
	return s.repo.ListForVendor(ctx, vendor)
}

// ListClosed returns closed RFQs, the input of lane reporting
func (s *Service) ListClosed(ctx context.Context) ([]RFQ, error) {
	return s.repo.ListByStatus(ctx, StatusClosed)
}

func (s *Service) emit(data events.EventData) {
	if s.emitter != nil {
		s.emitter.Emit("rfq", data)
	}
}
