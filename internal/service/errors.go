package service

import "errors"

// Request-terminating errors. The API layer maps these onto HTTP statuses and
// stable error codes; anything else is an unhandled fault and surfaces as a
// generic 500.
var (
	ErrAbstractTooShort  = errors.New("abstract too short")
	ErrInvalidMode       = errors.New("invalid mode")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidPaperIndex = errors.New("invalid paper index")
	ErrPaperNotFound     = errors.New("paper not found")
	ErrSearchFailed      = errors.New("search failed")
	ErrSummaryFailed     = errors.New("summary generation failed")
)
