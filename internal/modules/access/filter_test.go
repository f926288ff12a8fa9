package access

import (
	"testing"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/modules/allocation"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/stretchr/testify/assert"
)

var (
	logistics = domain.Principal{ID: "u1", Role: domain.RoleLogistics}
	admin     = domain.Principal{ID: "u2", Role: domain.RoleAdmin}
	vendorA   = domain.Principal{ID: "u3", Role: domain.RoleVendor, Organization: "VendorA"}
	vendorB   = domain.Principal{ID: "u4", Role: domain.RoleVendor, Organization: "VendorB"}
	vendorC   = domain.Principal{ID: "u5", Role: domain.RoleVendor, Organization: "VendorC"}
)

func rfqs() []rfq.RFQ {
	return []rfq.RFQ{
		{ID: "r1", RFQNumber: 1, Vendors: []string{"VendorA", "VendorB"}},
		{ID: "r2", RFQNumber: 2, Vendors: []string{"VendorB"}},
		{ID: "r3", RFQNumber: 3, Vendors: []string{"VendorB"}, Status: rfq.StatusClosed},
	}
}

// r3 was awarded to VendorC, which is not on its invitation list
func allocations() []allocation.Allocation {
	return []allocation.Allocation{
		{RFQID: "r3", QuoteID: "q3b", VendorName: "VendorB", ContainersAllottedHome: 4},
		{RFQID: "r3", QuoteID: "q3c", VendorName: "VendorC", ContainersAllottedHome: 6},
	}
}

func allQuotes() []quotes.Quote {
	return []quotes.Quote{
		{ID: "q1a", RFQID: "r1", VendorName: "VendorA"},
		{ID: "q1b", RFQID: "r1", VendorName: "VendorB"},
		{ID: "q2b", RFQID: "r2", VendorName: "VendorB"},
		{ID: "q3b", RFQID: "r3", VendorName: "VendorB"},
		{ID: "q3c", RFQID: "r3", VendorName: "VendorC"},
	}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func rfqID(r rfq.RFQ) string                 { return r.ID }
func quoteID(q quotes.Quote) string          { return q.ID }
func allocID(a allocation.Allocation) string { return a.QuoteID }

func TestVisibleRFQs(t *testing.T) {
	tests := []struct {
		name string
		p    domain.Principal
		want []string
	}{
		{"logistics sees all", logistics, []string{"r1", "r2", "r3"}},
		{"admin sees all", admin, []string{"r1", "r2", "r3"}},
		{"vendor A invited to r1", vendorA, []string{"r1"}},
		{"vendor B invited to all", vendorB, []string{"r1", "r2", "r3"}},
		{"vendor C sees allotted r3", vendorC, []string{"r3"}},
		{"unknown role sees nothing", domain.Principal{ID: "x", Role: "guest"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisibleRFQs(tt.p, rfqs(), allocations())
			assert.Equal(t, tt.want, ids(got, rfqID))
		})
	}
}

func TestVisibleQuotes_NeverCrossVendor(t *testing.T) {
	for _, p := range []domain.Principal{vendorA, vendorB, vendorC} {
		visible := VisibleRFQs(p, rfqs(), allocations())
		for _, q := range VisibleQuotes(p, allQuotes(), visible) {
			assert.Equal(t, p.Organization, q.VendorName)
		}
	}

	assert.Equal(t, []string{"q1a"}, ids(VisibleQuotes(vendorA, allQuotes(), VisibleRFQs(vendorA, rfqs(), allocations())), quoteID))
	assert.Equal(t, []string{"q3c"}, ids(VisibleQuotes(vendorC, allQuotes(), VisibleRFQs(vendorC, rfqs(), allocations())), quoteID))
	assert.Len(t, VisibleQuotes(logistics, allQuotes(), nil), 5)
}

func TestVisibleQuotes_ScopedToVisibleRFQs(t *testing.T) {
	// A quote on an RFQ the vendor cannot see is dropped even if it is the vendor's own
	got := VisibleQuotes(vendorA, []quotes.Quote{{ID: "stray", RFQID: "r2", VendorName: "VendorA"}}, VisibleRFQs(vendorA, rfqs(), nil))
	assert.Empty(t, got)
}

func TestVisibleAllocations(t *testing.T) {
	assert.Len(t, VisibleAllocations(logistics, allocations(), nil), 2)

	got := VisibleAllocations(vendorB, allocations(), VisibleRFQs(vendorB, rfqs(), allocations()))
	assert.Equal(t, []string{"q3b"}, ids(got, allocID))

	got = VisibleAllocations(vendorA, allocations(), VisibleRFQs(vendorA, rfqs(), allocations()))
	assert.Empty(t, got)
}

func TestCanViewRFQ(t *testing.T) {
	all := rfqs()
	assert.True(t, CanViewRFQ(logistics, &all[1], nil))
	assert.True(t, CanViewRFQ(vendorA, &all[0], nil))
	assert.False(t, CanViewRFQ(vendorA, &all[1], nil))
	assert.False(t, CanViewRFQ(vendorC, &all[2], nil))
	assert.True(t, CanViewRFQ(vendorC, &all[2], allocations()))
	assert.False(t, CanViewRFQ(vendorA, nil, nil))
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		p      domain.Principal
		action Action
		ok     bool
	}{
		{logistics, ActionCreateRFQ, true},
		{admin, ActionFinalize, true},
		{logistics, ActionUpdateStatus, true},
		{logistics, ActionViewReports, true},
		{logistics, ActionSubmitQuote, false},
		{vendorA, ActionSubmitQuote, true},
		{vendorA, ActionCreateRFQ, false},
		{vendorA, ActionFinalize, false},
		{vendorA, ActionViewReports, false},
		{admin, ActionOperate, true},
		{logistics, ActionOperate, false},
		{vendorA, ActionOperate, false},
		{domain.Principal{ID: "v", Role: domain.RoleVendor}, ActionSubmitQuote, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.p.Role)+" "+string(tt.action), func(t *testing.T) {
			err := Authorize(tt.p, tt.action)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrForbidden)
			}
		})
	}
}
