package domain

import (
	"errors"
	"fmt"
)

// Classification sentinels. Every typed error below matches exactly one of them
// with errors.Is, which is how the HTTP layer picks a status code.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("workflow conflict")
	ErrForbidden  = errors.New("forbidden")
)

// ValidationError reports malformed or missing input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown id
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidTransitionError reports a backward status change
type InvalidTransitionError struct {
	RFQID string
	From  string
	To    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("rfq %s: invalid status transition %s -> %s", e.RFQID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrConflict }

// AlreadyClosedError reports a finalize on a closed RFQ
type AlreadyClosedError struct {
	RFQID string
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("rfq %s is already closed", e.RFQID)
}

func (e *AlreadyClosedError) Is(target error) bool { return target == ErrConflict }

// NotInvitedError reports a quote from a vendor missing from the RFQ's invitation list
type NotInvitedError struct {
	RFQID  string
	Vendor string
}

func (e *NotInvitedError) Error() string {
	return fmt.Sprintf("vendor %s is not invited to rfq %s", e.Vendor, e.RFQID)
}

func (e *NotInvitedError) Is(target error) bool { return target == ErrForbidden }

// ClosedRFQError reports a quote submission after the quoting window closed
type ClosedRFQError struct {
	RFQID string
}

func (e *ClosedRFQError) Error() string {
	return fmt.Sprintf("rfq %s is closed for quotes", e.RFQID)
}

func (e *ClosedRFQError) Is(target error) bool { return target == ErrConflict }

// AllocationMismatchError reports a distribution whose container total differs from the RFQ's
type AllocationMismatchError struct {
	RFQID    string
	Expected int
	Computed int
}

func (e *AllocationMismatchError) Error() string {
	return fmt.Sprintf("rfq %s: allocation totals %d containers, expected %d", e.RFQID, e.Computed, e.Expected)
}

func (e *AllocationMismatchError) Is(target error) bool { return target == ErrValidation }

// NegativeAllocationError reports a negative allotment in a distribution entry
type NegativeAllocationError struct {
	QuoteID string
	Field   string
	Value   int
}

func (e *NegativeAllocationError) Error() string {
	return fmt.Sprintf("quote %s: %s must not be negative (got %d)", e.QuoteID, e.Field, e.Value)
}

func (e *NegativeAllocationError) Is(target error) bool { return target == ErrValidation }

// ForbiddenError reports a principal acting outside its role
type ForbiddenError struct {
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }
