// Package quotes provides the quote store: one quote per (RFQ, vendor), upserted
// on resubmission, with per-container cost derivation for both customs routes.
package quotes

import (
	"strings"
	"time"

	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/shopspring/decimal"
)

// RoutingMode is how the cargo travels to destination
type RoutingMode string

const (
	RoutingTransship RoutingMode = "transship"
	RoutingDirect    RoutingMode = "direct"
)

// CostSheet is the vendor-supplied part of a quote.
// Sea freight is in USD; every other component is in the local currency.
type CostSheet struct {
	NumberOfContainers         int             `json:"numberOfContainers"`
	ShippingLine               string          `json:"shippingLine"`
	VesselName                 string          `json:"vesselName"`
	VesselETD                  string          `json:"vesselETD"`
	VesselETA                  string          `json:"vesselETA"`
	SeaFreightPerContainer     decimal.Decimal `json:"seaFreightPerContainer"`
	HouseDeliveryOrderPerBOL   decimal.Decimal `json:"houseDeliveryOrderPerBOL"`
	CFSPerContainer            decimal.Decimal `json:"cfsPerContainer"`
	TransportationPerContainer decimal.Decimal `json:"transportationPerContainer"`
	CHAChargesHome             decimal.Decimal `json:"chaChargesHome"`
	CHAChargesMOOWR            decimal.Decimal `json:"chaChargesMOOWR"`
	EDIChargesPerBOE           decimal.Decimal `json:"ediChargesPerBOE"`
	MOOWRRewarehousingCharges  decimal.Decimal `json:"mooWRReeWarehousingCharges"`
	TransshipOrDirect          RoutingMode     `json:"transshipOrDirect"`
	QuoteValidityDate          string          `json:"quoteValidityDate"`
	Message                    string          `json:"message,omitempty"`
}

// Normalize trims text fields and lower-cases the routing mode
func (c CostSheet) Normalize() CostSheet {
	c.ShippingLine = strings.TrimSpace(c.ShippingLine)
	c.VesselName = strings.TrimSpace(c.VesselName)
	c.VesselETD = strings.TrimSpace(c.VesselETD)
	c.VesselETA = strings.TrimSpace(c.VesselETA)
	c.TransshipOrDirect = RoutingMode(strings.ToLower(strings.TrimSpace(string(c.TransshipOrDirect))))
	c.QuoteValidityDate = strings.TrimSpace(c.QuoteValidityDate)
	c.Message = strings.TrimSpace(c.Message)
	return c
}

// Validate checks a normalized cost sheet
func (c CostSheet) Validate() error {
	if c.NumberOfContainers <= 0 {
		return &domain.ValidationError{Field: "numberOfContainers", Reason: "must be greater than zero"}
	}

	for _, comp := range c.components() {
		if comp.value.IsNegative() {
			return &domain.ValidationError{Field: comp.field, Reason: "must not be negative"}
		}
	}

	if c.TransshipOrDirect != RoutingTransship && c.TransshipOrDirect != RoutingDirect {
		return &domain.ValidationError{Field: "transshipOrDirect", Reason: "must be transship or direct"}
	}

	if _, err := domain.ParseDate("quoteValidityDate", c.QuoteValidityDate); err != nil {
		return err
	}

	var etd, eta time.Time
	var err error
	if c.VesselETD != "" {
		if etd, err = domain.ParseDate("vesselETD", c.VesselETD); err != nil {
			return err
		}
	}
	if c.VesselETA != "" {
		if eta, err = domain.ParseDate("vesselETA", c.VesselETA); err != nil {
			return err
		}
	}
	if !etd.IsZero() && !eta.IsZero() && eta.Before(etd) {
		return &domain.ValidationError{Field: "vesselETA", Reason: "must not be before vesselETD"}
	}

	return nil
}

type component struct {
	field string
	value decimal.Decimal
}

func (c CostSheet) components() []component {
	return []component{
		{"seaFreightPerContainer", c.SeaFreightPerContainer},
		{"houseDeliveryOrderPerBOL", c.HouseDeliveryOrderPerBOL},
		{"cfsPerContainer", c.CFSPerContainer},
		{"transportationPerContainer", c.TransportationPerContainer},
		{"chaChargesHome", c.CHAChargesHome},
		{"chaChargesMOOWR", c.CHAChargesMOOWR},
		{"ediChargesPerBOE", c.EDIChargesPerBOE},
		{"mooWRReeWarehousingCharges", c.MOOWRRewarehousingCharges},
	}
}

// HomePerContainer is the per-container cost on the home clearance path
func (c CostSheet) HomePerContainer() decimal.Decimal {
	return decimal.Sum(
		c.SeaFreightPerContainer,
		c.HouseDeliveryOrderPerBOL,
		c.CFSPerContainer,
		c.TransportationPerContainer,
		c.CHAChargesHome,
		c.EDIChargesPerBOE,
	)
}

// MOOWRPerContainer is the per-container cost on the bonded-warehouse path
func (c CostSheet) MOOWRPerContainer() decimal.Decimal {
	return decimal.Sum(
		c.SeaFreightPerContainer,
		c.CHAChargesMOOWR,
		c.MOOWRRewarehousingCharges,
	)
}

// Quote is a vendor's priced response to an RFQ.
// The allotment and total fields stay nil until the RFQ is finalized.
type Quote struct {
	ID         string `json:"id"`
	RFQID      string `json:"rfqId"`
	VendorName string `json:"vendorName"`
	CostSheet
	CreatedAt               time.Time        `json:"createdAt"`
	SubmittedAt             time.Time        `json:"submittedAt"`
	ContainersAllottedHome  *int             `json:"containersAllottedHome,omitempty"`
	ContainersAllottedMOOWR *int             `json:"containersAllottedMOOWR,omitempty"`
	HomeTotal               *decimal.Decimal `json:"homeTotal,omitempty"`
	MOOWRTotal              *decimal.Decimal `json:"mooWRTotal,omitempty"`
}

// Allocated reports whether finalize has written the derived fields
func (q *Quote) Allocated() bool {
	return q.HomeTotal != nil || q.MOOWRTotal != nil
}
