package review

import (
	"context"

	"github.com/homecare-labs/intake-api/internal/domain"
	"github.com/homecare-labs/intake-api/internal/observability"
)

// Service holds the logic of the human review workflow: every finished
// interview lands with needs_review=true, and a reviewer works the queue
// down.
type Service struct {
	store domain.InterviewStore
}

func NewService(store domain.InterviewStore) *Service {
	return &Service{store: store}
}

// GetInterview returns the stored interview record for one care seeker.
func (s *Service) GetInterview(ctx context.Context, userID domain.UserID) (*domain.InterviewRecord, error) {
	return s.store.GetInterview(ctx, userID)
}

// ListPending returns up to limit interviews waiting for review. If
// limit <= 0, a reasonable default is used.
func (s *Service) ListPending(ctx context.Context, limit int) ([]*domain.InterviewRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListPendingReviews(ctx, limit)
}

// CompleteReview marks one interview as reviewed.
func (s *Service) CompleteReview(ctx context.Context, userID domain.UserID) error {
	if err := s.store.MarkReviewCompleted(ctx, userID); err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Info("interview review completed", "user_id", userID)
	return nil
}
