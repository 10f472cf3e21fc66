// Package session binds session identifiers to search result sets so later
// summary requests can reference papers by rank.
package session

import (
	"context"
	"errors"

	"arxiv-similarity-search/internal/models"
)

var (
	// ErrSessionNotFound is returned for identifiers with no stored session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPaperOutOfRange is returned when a paper position does not exist in
	// the stored session.
	ErrPaperOutOfRange = errors.New("paper index out of range")
)

// Store maps a session identifier to its ResultSet. Put on an existing
// identifier overwrites; a session identifier, once issued, is never
// reassigned to a different ResultSet by this layer.
//
// SetSummary is the only mutation of a stored session: it sets the summary
// of the paper at the given 0-based position atomically with respect to other
// mutations of the same session, without rewriting the rest of the record.
type Store interface {
	Put(ctx context.Context, id string, results *models.ResultSet) error
	Get(ctx context.Context, id string) (*models.ResultSet, error)
	SetSummary(ctx context.Context, id string, position int, summary *models.Summary) error
}
