package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func laneQuote(id, rfqID, vendor string, sea int64, submitted time.Time) quotes.Quote {
	return quotes.Quote{
		ID:         id,
		RFQID:      rfqID,
		VendorName: vendor,
		CostSheet: quotes.CostSheet{
			SeaFreightPerContainer: decimal.NewFromInt(sea),
			CHAChargesMOOWR:        decimal.NewFromInt(10),
		},
		SubmittedAt: submitted,
	}
}

func fixtures() ([]rfq.RFQ, []quotes.Quote) {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	rfqs := []rfq.RFQ{
		{ID: "r1", RFQNumber: 1, PortOfLoading: "Rotterdam", ContainerType: "40HC", Status: rfq.StatusClosed},
		{ID: "r2", RFQNumber: 2, PortOfLoading: "Rotterdam", ContainerType: "40HC", Status: rfq.StatusClosed},
		{ID: "r3", RFQNumber: 3, PortOfLoading: "Hamburg", ContainerType: "20GP", Status: rfq.StatusClosed},
		{ID: "r4", RFQNumber: 4, PortOfLoading: "Rotterdam", ContainerType: "40HC", Status: rfq.StatusEvaluation},
	}
	all := []quotes.Quote{
		laneQuote("q1", "r1", "A", 100, day),
		laneQuote("q2", "r1", "B", 300, day),
		laneQuote("q3", "r2", "A", 200, day.AddDate(0, 0, 1)),
		laneQuote("q4", "r3", "C", 500, day),
		laneQuote("q5", "r4", "A", 1, day), // open RFQ, excluded
	}
	return rfqs, all
}

func TestBuildLanes(t *testing.T) {
	rfqs, all := fixtures()

	lanes := BuildLanes(rfqs, all, 2)
	require.Len(t, lanes, 2)

	hamburg := lanes[0]
	assert.Equal(t, "Hamburg", hamburg.PortOfLoading)
	assert.Equal(t, 1, hamburg.QuoteCount)
	assert.Equal(t, 500.0, hamburg.Mean)
	assert.Equal(t, 0.0, hamburg.StdDev)

	rotterdam := lanes[1]
	assert.Equal(t, "Rotterdam", rotterdam.PortOfLoading)
	assert.Equal(t, "40HC", rotterdam.ContainerType)
	assert.Equal(t, 3, rotterdam.QuoteCount)
	assert.InDelta(t, 200.0, rotterdam.Mean, 1e-9)
	assert.InDelta(t, 100.0, rotterdam.StdDev, 1e-9)
	assert.Equal(t, 100.0, rotterdam.Min)

	require.Len(t, rotterdam.Cheapest, 2)
	assert.Equal(t, "q1", rotterdam.Cheapest[0].QuoteID)
	assert.Equal(t, "q3", rotterdam.Cheapest[1].QuoteID)
	assert.Equal(t, "100", rotterdam.Cheapest[0].HomePerContainer)
	assert.Equal(t, "110", rotterdam.Cheapest[0].MOOWRPerContainer)
	assert.Equal(t, int64(2), rotterdam.Cheapest[1].RFQNumber)
}

func TestBuildLanes_DefaultTopNAndEmpty(t *testing.T) {
	assert.Empty(t, BuildLanes(nil, nil, 0))

	rfqs, all := fixtures()
	lanes := BuildLanes(rfqs, all, 0)
	require.Len(t, lanes, 2)
	assert.Len(t, lanes[1].Cheapest, 3)
}

func TestLaneSummary_MsgpackRoundTrip(t *testing.T) {
	rfqs, all := fixtures()
	lanes := BuildLanes(rfqs, all, 5)

	raw, err := msgpack.Marshal(lanes)
	require.NoError(t, err)

	var decoded []LaneSummary
	require.NoError(t, msgpack.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, lanes[1].Mean, decoded[1].Mean)
	assert.Equal(t, lanes[1].Cheapest[0].QuoteID, decoded[1].Cheapest[0].QuoteID)
}

type stubRFQs []rfq.RFQ

func (s stubRFQs) ListClosed(context.Context) ([]rfq.RFQ, error) { return s, nil }

type stubQuotes []quotes.Quote

func (s stubQuotes) ListAll(context.Context) ([]quotes.Quote, error) { return s, nil }

func TestService_Lanes(t *testing.T) {
	rfqs, all := fixtures()
	svc := NewService(stubRFQs(rfqs), stubQuotes(all), zerolog.Nop())

	lanes, err := svc.Lanes(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, lanes, 2)
	assert.Len(t, lanes[1].Cheapest, 1)
}
