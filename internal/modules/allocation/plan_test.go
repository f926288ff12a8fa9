package allocation

import (
	"math"
	"testing"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planQuote(id, rfqID string, sea, home, moowr string) quotes.Quote {
	return quotes.Quote{
		ID:    id,
		RFQID: rfqID,
		CostSheet: quotes.CostSheet{
			NumberOfContainers:     10,
			SeaFreightPerContainer: decimal.RequireFromString(sea),
			CHAChargesHome:         decimal.RequireFromString(home),
			CHAChargesMOOWR:        decimal.RequireFromString(moowr),
		},
	}
}

func TestPlan_CheckOrder(t *testing.T) {
	r := &rfq.RFQ{ID: "r1", NumberOfContainers: 10}
	byID := map[string]quotes.Quote{
		"q1":    planQuote("q1", "r1", "100", "10", "20"),
		"q2":    planQuote("q2", "r1", "200", "30", "40"),
		"other": planQuote("other", "r2", "1", "1", "1"),
	}

	tests := []struct {
		name    string
		entries []Entry
		check   func(t *testing.T, err error)
	}{
		{
			name:    "unknown quote beats negative",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: -1}, {QuoteID: "nope", ContainersAllottedHome: 11}},
			check: func(t *testing.T, err error) {
				var e *domain.NotFoundError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "nope", e.ID)
			},
		},
		{
			name:    "quote of another rfq is not found",
			entries: []Entry{{QuoteID: "other", ContainersAllottedHome: 10}},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrNotFound)
			},
		},
		{
			name:    "negative beats mismatch",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: 12, ContainersAllottedMOOWR: -2}},
			check: func(t *testing.T, err error) {
				var e *domain.NegativeAllocationError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "containersAllottedMOOWR", e.Field)
				assert.Equal(t, -2, e.Value)
			},
		},
		{
			name:    "duplicate quote",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: 5}, {QuoteID: "q1", ContainersAllottedHome: 5}},
			check: func(t *testing.T, err error) {
				var e *domain.ValidationError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "distribution", e.Field)
			},
		},
		{
			name:    "zero volume entry",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: 10}, {QuoteID: "q2"}},
			check: func(t *testing.T, err error) {
				var e *domain.ValidationError
				assert.ErrorAs(t, err, &e)
			},
		},
		{
			name:    "under allocation",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: 6}},
			check: func(t *testing.T, err error) {
				var e *domain.AllocationMismatchError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 10, e.Expected)
				assert.Equal(t, 6, e.Computed)
			},
		},
		{
			name:    "over allocation",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: 6}, {QuoteID: "q2", ContainersAllottedMOOWR: 5}},
			check: func(t *testing.T, err error) {
				var e *domain.AllocationMismatchError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 11, e.Computed)
			},
		},
		{
			name:    "single entry above the rfq total",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: 11}},
			check: func(t *testing.T, err error) {
				var e *domain.AllocationMismatchError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 11, e.Computed)
			},
		},
		{
			name:    "moowr share pushes entry above the rfq total",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: 4, ContainersAllottedMOOWR: 7}},
			check: func(t *testing.T, err error) {
				var e *domain.AllocationMismatchError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 11, e.Computed)
			},
		},
		{
			name: "allotments that would wrap around to the rfq total",
			entries: []Entry{
				{QuoteID: "q1", ContainersAllottedHome: math.MaxInt},
				{QuoteID: "q2", ContainersAllottedHome: math.MaxInt, ContainersAllottedMOOWR: 12},
			},
			check: func(t *testing.T, err error) {
				var e *domain.AllocationMismatchError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 10, e.Expected)
				assert.Equal(t, math.MaxInt, e.Computed)
			},
		},
		{
			name:    "both shares at max int",
			entries: []Entry{{QuoteID: "q1", ContainersAllottedHome: math.MaxInt, ContainersAllottedMOOWR: math.MaxInt}},
			check: func(t *testing.T, err error) {
				var e *domain.AllocationMismatchError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, math.MaxInt, e.Computed)
			},
		},
		{
			name:    "empty distribution",
			entries: nil,
			check: func(t *testing.T, err error) {
				var e *domain.AllocationMismatchError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, 0, e.Computed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := Plan(r, byID, tt.entries)
			require.Error(t, err)
			assert.Nil(t, lines)
			tt.check(t, err)
		})
	}
}

func TestPlan_DerivesTotals(t *testing.T) {
	r := &rfq.RFQ{ID: "r1", NumberOfContainers: 10}
	byID := map[string]quotes.Quote{
		"q1": planQuote("q1", "r1", "100", "10", "20"),
		"q2": planQuote("q2", "r1", "200", "30", "40"),
	}

	lines, err := Plan(r, byID, []Entry{
		{QuoteID: "q1", ContainersAllottedHome: 3, ContainersAllottedMOOWR: 3},
		{QuoteID: "q2", ContainersAllottedMOOWR: 4},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	// q1 home path: 3 x (100 + 10), moowr path: 3 x (100 + 20)
	assert.True(t, decimal.NewFromInt(330).Equal(lines[0].HomeTotal), lines[0].HomeTotal.String())
	assert.True(t, decimal.NewFromInt(360).Equal(lines[0].MOOWRTotal), lines[0].MOOWRTotal.String())
	// q2 gets nothing on the home path
	assert.True(t, lines[1].HomeTotal.IsZero())
	assert.True(t, decimal.NewFromInt(960).Equal(lines[1].MOOWRTotal), lines[1].MOOWRTotal.String())
}

func TestPlan_SingleContainer(t *testing.T) {
	r := &rfq.RFQ{ID: "r1", NumberOfContainers: 1}
	byID := map[string]quotes.Quote{
		"q1": planQuote("q1", "r1", "100", "10", "20"),
		"q2": planQuote("q2", "r1", "200", "30", "40"),
	}

	lines, err := Plan(r, byID, []Entry{{QuoteID: "q1", ContainersAllottedMOOWR: 1}})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, decimal.NewFromInt(120).Equal(lines[0].MOOWRTotal), lines[0].MOOWRTotal.String())

	_, err = Plan(r, byID, []Entry{{QuoteID: "q1", ContainersAllottedHome: 1}, {QuoteID: "q2", ContainersAllottedHome: 1}})
	var e *domain.AllocationMismatchError
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 2, e.Computed)
}

func TestEntry_ContainersSaturates(t *testing.T) {
	assert.Equal(t, 7, Entry{ContainersAllottedHome: 3, ContainersAllottedMOOWR: 4}.Containers())
	assert.Equal(t, math.MaxInt, Entry{ContainersAllottedHome: math.MaxInt, ContainersAllottedMOOWR: 1}.Containers())
}
