package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when no record exists for a user.
var ErrNotFound = errors.New("record not found")

// ChatRequest is one stateless exchange with the language model: the full
// prior turn sequence travels with every call, so the gateway needs no
// server-side conversation memory.
type ChatRequest struct {
	History     []Turn
	Text        string
	Language    string
	UserContext *UserContext
}

// ChatModel is the remote language model gateway. Implementations return the
// assistant's reply text or an opaque transport error.
type ChatModel interface {
	Send(ctx context.Context, req ChatRequest) (string, error)
}

// InterviewStore persists the interview audit record and serves the human
// review workflow that follows a finished (or failed) intake.
type InterviewStore interface {
	UpsertInterview(ctx context.Context, rec *InterviewRecord) error
	GetInterview(ctx context.Context, userID UserID) (*InterviewRecord, error)
	ListPendingReviews(ctx context.Context, limit int) ([]*InterviewRecord, error)
	MarkReviewCompleted(ctx context.Context, userID UserID) error
}

// ProfileStore persists the user-facing profile-sections record and marks the
// interview as completed.
type ProfileStore interface {
	UpdateProfileSections(ctx context.Context, userID UserID, sections []ProfileSection) error
}
