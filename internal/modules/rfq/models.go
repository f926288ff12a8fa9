// Package rfq provides the RFQ store: creation with sequential numbering,
// forward-only status transitions and vendor-scoped reads.
package rfq

import (
	"strings"
	"time"

	"github.com/aristath/rfqdesk/internal/domain"
)

// Status is the RFQ lifecycle state
type Status string

const (
	StatusInitial    Status = "initial"
	StatusEvaluation Status = "evaluation"
	StatusClosed     Status = "closed"
)

// legacyOpen is read as StatusInitial
const legacyOpen = "open"

// ParseStatus parses a wire status. Empty and "open" both mean initial.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", legacyOpen, string(StatusInitial):
		return StatusInitial, nil
	case string(StatusEvaluation):
		return StatusEvaluation, nil
	case string(StatusClosed):
		return StatusClosed, nil
	}
	return "", &domain.ValidationError{Field: "status", Reason: "must be initial, evaluation or closed"}
}

func (s Status) rank() int {
	switch s {
	case StatusInitial:
		return 0
	case StatusEvaluation:
		return 1
	case StatusClosed:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next goes strictly forward
func (s Status) CanTransitionTo(next Status) bool {
	return next.rank() > s.rank() && s.rank() >= 0
}

// RFQ is a request for quote. Field names are the wire contract.
type RFQ struct {
	ID                 string    `json:"id"`
	RFQNumber          int64     `json:"rfqNumber"`
	ItemDescription    string    `json:"itemDescription"`
	CompanyName        string    `json:"companyName"`
	MaterialPONumber   string    `json:"materialPONumber"`
	SupplierName       string    `json:"supplierName"`
	PortOfLoading      string    `json:"portOfLoading"`
	PortOfDestination  string    `json:"portOfDestination"`
	ContainerType      string    `json:"containerType"`
	NumberOfContainers int       `json:"numberOfContainers"`
	CargoWeight        string    `json:"cargoWeight"`
	CargoReadinessDate string    `json:"cargoReadinessDate"`
	Description        string    `json:"description"`
	Vendors            []string  `json:"vendors"`
	CreatedAt          time.Time `json:"createdAt"`
	CreatedBy          string    `json:"createdBy"`
	Status             Status    `json:"status"`
}

// IsInvited reports whether vendor is on the invitation list
func (r *RFQ) IsInvited(vendor string) bool {
	for _, v := range r.Vendors {
		if v == vendor {
			return true
		}
	}
	return false
}

// AcceptsQuotes reports whether the quoting window is still open
func (r *RFQ) AcceptsQuotes() bool {
	return r.Status != StatusClosed
}

// NewRFQ is the creation input supplied by a logistics principal
type NewRFQ struct {
	ItemDescription    string   `json:"itemDescription"`
	CompanyName        string   `json:"companyName"`
	MaterialPONumber   string   `json:"materialPONumber"`
	SupplierName       string   `json:"supplierName"`
	PortOfLoading      string   `json:"portOfLoading"`
	PortOfDestination  string   `json:"portOfDestination"`
	ContainerType      string   `json:"containerType"`
	NumberOfContainers int      `json:"numberOfContainers"`
	CargoWeight        string   `json:"cargoWeight"`
	CargoReadinessDate string   `json:"cargoReadinessDate"`
	Description        string   `json:"description"`
	Vendors            []string `json:"vendors"`
}

// Normalize trims every text field and de-duplicates vendors, keeping first-seen order
func (n NewRFQ) Normalize() NewRFQ {
	n.ItemDescription = strings.TrimSpace(n.ItemDescription)
	n.CompanyName = strings.TrimSpace(n.CompanyName)
	n.MaterialPONumber = strings.TrimSpace(n.MaterialPONumber)
	n.SupplierName = strings.TrimSpace(n.SupplierName)
	n.PortOfLoading = strings.TrimSpace(n.PortOfLoading)
	n.PortOfDestination = strings.TrimSpace(n.PortOfDestination)
	n.ContainerType = strings.TrimSpace(n.ContainerType)
	n.CargoWeight = strings.TrimSpace(n.CargoWeight)
	n.CargoReadinessDate = strings.TrimSpace(n.CargoReadinessDate)
	n.Description = strings.TrimSpace(n.Description)

	seen := make(map[string]bool, len(n.Vendors))
	vendors := make([]string, 0, len(n.Vendors))
	for _, v := range n.Vendors {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		vendors = append(vendors, v)
	}
	n.Vendors = vendors
	return n
}

// Validate checks a normalized NewRFQ
func (n NewRFQ) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"itemDescription", n.ItemDescription},
		{"companyName", n.CompanyName},
		{"portOfLoading", n.PortOfLoading},
		{"portOfDestination", n.PortOfDestination},
		{"containerType", n.ContainerType},
	}
	for _, r := range required {
		if r.value == "" {
			return &domain.ValidationError{Field: r.field, Reason: "is required"}
		}
	}

	if n.NumberOfContainers <= 0 {
		return &domain.ValidationError{Field: "numberOfContainers", Reason: "must be greater than zero"}
	}
	if len(n.Vendors) == 0 {
		return &domain.ValidationError{Field: "vendors", Reason: "must name at least one vendor"}
	}
	if _, err := domain.ParseDate("cargoReadinessDate", n.CargoReadinessDate); err != nil {
		return err
	}
	return nil
}
