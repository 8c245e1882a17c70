package crm

import "errors"

var (
	// ErrMissingName is returned when a lead has no name to submit.
	ErrMissingName = errors.New("crm: lead has no name")
	// ErrMissingLeadID is returned when a summary is sent without a CRM lead id.
	ErrMissingLeadID = errors.New("crm: lead id required")
	// ErrUnexpectedStatus is returned for non-2xx CRM responses.
	ErrUnexpectedStatus = errors.New("crm: unexpected status")
	// ErrJobNotFound indicates the requested sync job does not exist.
	ErrJobNotFound = errors.New("crm: job not found")
)
