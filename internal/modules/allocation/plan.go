package allocation

import (
	"math"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/shopspring/decimal"
)

// Plan validates a distribution against the RFQ and its quotes and computes the
// derived totals. It has no side effects. Checks run in a fixed order: unknown
// quote, negative allotment, duplicate or empty entry, container total. An
// allotment pushing the total past the RFQ's count fails as a mismatch straight
// away.
func Plan(r *rfq.RFQ, byID map[string]quotes.Quote, entries []Entry) ([]Line, error) {
	for _, e := range entries {
		q, ok := byID[e.QuoteID]
		if !ok || q.RFQID != r.ID {
			return nil, &domain.NotFoundError{Entity: "quote", ID: e.QuoteID}
		}
	}

	for _, e := range entries {
		if e.ContainersAllottedHome < 0 {
			return nil, &domain.NegativeAllocationError{QuoteID: e.QuoteID, Field: "containersAllottedHome", Value: e.ContainersAllottedHome}
		}
		if e.ContainersAllottedMOOWR < 0 {
			return nil, &domain.NegativeAllocationError{QuoteID: e.QuoteID, Field: "containersAllottedMOOWR", Value: e.ContainersAllottedMOOWR}
		}
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.QuoteID] {
			return nil, &domain.ValidationError{Field: "distribution", Reason: "lists quote " + e.QuoteID + " more than once"}
		}
		seen[e.QuoteID] = true
		if e.ContainersAllottedHome == 0 && e.ContainersAllottedMOOWR == 0 {
			return nil, &domain.ValidationError{Field: "distribution", Reason: "allots no containers to quote " + e.QuoteID}
		}
	}

	// The running total never exceeds the RFQ's count, so it cannot wrap.
	computed := 0
	for _, e := range entries {
		remaining := r.NumberOfContainers - computed
		if e.ContainersAllottedHome > remaining || e.ContainersAllottedMOOWR > remaining-e.ContainersAllottedHome {
			return nil, &domain.AllocationMismatchError{RFQID: r.ID, Expected: r.NumberOfContainers, Computed: totalContainers(entries)}
		}
		computed += e.Containers()
	}
	if computed != r.NumberOfContainers {
		return nil, &domain.AllocationMismatchError{RFQID: r.ID, Expected: r.NumberOfContainers, Computed: computed}
	}

	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		q := byID[e.QuoteID]
		lines = append(lines, Line{
			Entry:      e,
			Quote:      q,
			HomeTotal:  q.HomePerContainer().Mul(decimal.NewFromInt(int64(e.ContainersAllottedHome))),
			MOOWRTotal: q.MOOWRPerContainer().Mul(decimal.NewFromInt(int64(e.ContainersAllottedMOOWR))),
		})
	}
	return lines, nil
}

// totalContainers sums non-negative allotments, saturating at math.MaxInt.
func totalContainers(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total = saturatingAdd(total, e.ContainersAllottedHome)
		total = saturatingAdd(total, e.ContainersAllottedMOOWR)
	}
	return total
}

func saturatingAdd(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}
