// Package access computes what a principal may see and do. The filter functions
// are pure; Service loads from the stores and applies them.
package access

import (
	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/aristath/rfqdesk/internal/modules/allocation"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
)

// Action is a write operation subject to authorization
type Action string

const (
	ActionCreateRFQ    Action = "create rfq"
	ActionUpdateStatus Action = "update rfq status"
	ActionSubmitQuote  Action = "submit quote"
	ActionFinalize     Action = "finalize rfq"
	ActionViewReports  Action = "view reports"
	ActionOperate      Action = "run maintenance jobs"
)

// Authorize reports whether p may perform action
func Authorize(p domain.Principal, action Action) error {
	switch action {
	case ActionCreateRFQ, ActionUpdateStatus, ActionFinalize, ActionViewReports:
		if p.SeesEverything() {
			return nil
		}
	case ActionOperate:
		if p.Role == domain.RoleAdmin {
			return nil
		}
	case ActionSubmitQuote:
		if p.IsVendor() && p.Organization != "" {
			return nil
		}
	}
	return &domain.ForbiddenError{Action: string(action)}
}

// allottedRFQs returns the ids of RFQs with an allocation naming vendor
func allottedRFQs(vendor string, allocations []allocation.Allocation) map[string]bool {
	ids := make(map[string]bool)
	for _, a := range allocations {
		if a.VendorName == vendor {
			ids[a.RFQID] = true
		}
	}
	return ids
}

// CanViewRFQ reports whether p may see r. Vendors see RFQs they are invited to
// and RFQs where an allocation names them.
func CanViewRFQ(p domain.Principal, r *rfq.RFQ, allocations []allocation.Allocation) bool {
	if p.SeesEverything() {
		return true
	}
	if !p.IsVendor() || r == nil {
		return false
	}
	if r.IsInvited(p.Organization) {
		return true
	}
	for _, a := range allocations {
		if a.RFQID == r.ID && a.VendorName == p.Organization {
			return true
		}
	}
	return false
}

// VisibleRFQs returns the subset of rfqs p may see, preserving order
func VisibleRFQs(p domain.Principal, rfqs []rfq.RFQ, allocations []allocation.Allocation) []rfq.RFQ {
	if p.SeesEverything() {
		return rfqs
	}
	visible := make([]rfq.RFQ, 0)
	if !p.IsVendor() {
		return visible
	}
	allotted := allottedRFQs(p.Organization, allocations)
	for i := range rfqs {
		if rfqs[i].IsInvited(p.Organization) || allotted[rfqs[i].ID] {
			visible = append(visible, rfqs[i])
		}
	}
	return visible
}

// VisibleQuotes returns the quotes p may see. A vendor only ever sees its own
// quotes, and only on RFQs it can see.
func VisibleQuotes(p domain.Principal, all []quotes.Quote, visibleRFQs []rfq.RFQ) []quotes.Quote {
	if p.SeesEverything() {
		return all
	}
	visible := make([]quotes.Quote, 0)
	if !p.IsVendor() {
		return visible
	}
	rfqIDs := idSet(visibleRFQs)
	for _, q := range all {
		if q.VendorName == p.Organization && rfqIDs[q.RFQID] {
			visible = append(visible, q)
		}
	}
	return visible
}

// VisibleAllocations returns the allocation rows p may see. Vendors see only
// rows naming themselves.
func VisibleAllocations(p domain.Principal, all []allocation.Allocation, visibleRFQs []rfq.RFQ) []allocation.Allocation {
	if p.SeesEverything() {
		return all
	}
	visible := make([]allocation.Allocation, 0)
	if !p.IsVendor() {
		return visible
	}
	rfqIDs := idSet(visibleRFQs)
	for _, a := range all {
		if a.VendorName == p.Organization && rfqIDs[a.RFQID] {
			visible = append(visible, a)
		}
	}
	return visible
}

func idSet(rfqs []rfq.RFQ) map[string]bool {
	ids := make(map[string]bool, len(rfqs))
	for i := range rfqs {
		ids[rfqs[i].ID] = true
	}
	return ids
}
