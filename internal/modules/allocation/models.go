// Package allocation provides the allocation engine: it validates a caller-chosen
// split of an RFQ's containers across quotes, derives the quote totals and
// closes the RFQ in one transaction.
package allocation

import (
	"time"

	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/shopspring/decimal"
)

// Entry is one line of a finalize distribution
type Entry struct {
	QuoteID                 string `json:"quoteId"`
	ContainersAllottedHome  int    `json:"containersAllottedHome"`
	ContainersAllottedMOOWR int    `json:"containersAllottedMOOWR"`
	Reason                  string `json:"reason,omitempty"`
}

// Containers is the entry's total volume. Oversized non-negative values
// saturate at math.MaxInt instead of wrapping.
func (e Entry) Containers() int {
	return saturatingAdd(e.ContainersAllottedHome, e.ContainersAllottedMOOWR)
}

// Allocation is the immutable record of volume awarded to one quote
type Allocation struct {
	RFQID                   string    `json:"rfqId"`
	QuoteID                 string    `json:"quoteId"`
	VendorName              string    `json:"vendorName"`
	ContainersAllottedHome  int       `json:"containersAllottedHome"`
	ContainersAllottedMOOWR int       `json:"containersAllottedMOOWR"`
	Reason                  string    `json:"reason,omitempty"`
	CreatedAt               time.Time `json:"createdAt"`
}

// Containers is the allocation's total volume
func (a Allocation) Containers() int {
	return a.ContainersAllottedHome + a.ContainersAllottedMOOWR
}

// Line is a validated entry with its quote and derived totals
type Line struct {
	Entry      Entry
	Quote      quotes.Quote
	HomeTotal  decimal.Decimal
	MOOWRTotal decimal.Decimal
}

// Result is what a successful finalize committed
type Result struct {
	RFQ         *rfq.RFQ       `json:"rfq"`
	Allocations []Allocation   `json:"allocations"`
	Quotes      []quotes.Quote `json:"quotes"`
}
