// Package reporting builds read-models over closed RFQs. It only projects
// stored fields and never writes.
package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultTopN is the number of cheapest quotes kept per lane when the caller does not say
const DefaultTopN = 5

// LaneQuote is one quote on a lane, priced per container
type LaneQuote struct {
	RFQID             string    `json:"rfqId" msgpack:"rfqId"`
	RFQNumber         int64     `json:"rfqNumber" msgpack:"rfqNumber"`
	QuoteID           string    `json:"quoteId" msgpack:"quoteId"`
	VendorName        string    `json:"vendorName" msgpack:"vendorName"`
	PortOfDestination string    `json:"portOfDestination" msgpack:"portOfDestination"`
	HomePerContainer  string    `json:"homePerContainer" msgpack:"homePerContainer"`
	MOOWRPerContainer string    `json:"mooWRPerContainer" msgpack:"mooWRPerContainer"`
	QuoteDate         time.Time `json:"quoteDate" msgpack:"quoteDate"`

	home decimal.Decimal
}

// LaneSummary aggregates the quotes of one (port of loading, container type) lane.
// Statistics are over the home-path per-container cost.
type LaneSummary struct {
	PortOfLoading string      `json:"portOfLoading" msgpack:"portOfLoading"`
	ContainerType string      `json:"containerType" msgpack:"containerType"`
	QuoteCount    int         `json:"quoteCount" msgpack:"quoteCount"`
	Mean          float64     `json:"mean" msgpack:"mean"`
	StdDev        float64     `json:"stdDev" msgpack:"stdDev"`
	Min           float64     `json:"min" msgpack:"min"`
	Cheapest      []LaneQuote `json:"cheapest" msgpack:"cheapest"`
}

type laneKey struct {
	port          string
	containerType string
}

// BuildLanes groups the quotes of closed RFQs by lane and summarizes each lane.
// Quotes whose RFQ is missing from rfqs or not closed are ignored. Lanes are
// ordered by port then container type.
func BuildLanes(rfqs []rfq.RFQ, all []quotes.Quote, topN int) []LaneSummary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	closed := make(map[string]*rfq.RFQ, len(rfqs))
	for i := range rfqs {
		if rfqs[i].Status == rfq.StatusClosed {
			closed[rfqs[i].ID] = &rfqs[i]
		}
	}

	lanes := make(map[laneKey][]LaneQuote)
	for _, q := range all {
		r, ok := closed[q.RFQID]
		if !ok {
			continue
		}
		home := q.HomePerContainer()
		key := laneKey{port: r.PortOfLoading, containerType: r.ContainerType}
		lanes[key] = append(lanes[key], LaneQuote{
			RFQID:             r.ID,
			RFQNumber:         r.RFQNumber,
			QuoteID:           q.ID,
			VendorName:        q.VendorName,
			PortOfDestination: r.PortOfDestination,
			HomePerContainer:  home.String(),
			MOOWRPerContainer: q.MOOWRPerContainer().String(),
			QuoteDate:         q.SubmittedAt,
			home:              home,
		})
	}

	summaries := make([]LaneSummary, 0, len(lanes))
	for key, laneQuotes := range lanes {
		sort.SliceStable(laneQuotes, func(i, j int) bool {
			if c := laneQuotes[i].home.Cmp(laneQuotes[j].home); c != 0 {
				return c < 0
			}
			return laneQuotes[i].QuoteDate.After(laneQuotes[j].QuoteDate)
		})

		costs := make([]float64, len(laneQuotes))
		for i, lq := range laneQuotes {
			costs[i] = lq.home.InexactFloat64()
		}

		stdDev := stat.StdDev(costs, nil)
		if math.IsNaN(stdDev) {
			stdDev = 0
		}

		cheapest := laneQuotes
		if len(cheapest) > topN {
			cheapest = cheapest[:topN]
		}

		summaries = append(summaries, LaneSummary{
			PortOfLoading: key.port,
			ContainerType: key.containerType,
			QuoteCount:    len(laneQuotes),
			Mean:          stat.Mean(costs, nil),
			StdDev:        stdDev,
			Min:           floats.Min(costs),
			Cheapest:      cheapest,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].PortOfLoading != summaries[j].PortOfLoading {
			return summaries[i].PortOfLoading < summaries[j].PortOfLoading
		}
		return summaries[i].ContainerType < summaries[j].ContainerType
	})

	return summaries
}
