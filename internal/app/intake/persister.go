package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/homecare-labs/intake-api/internal/domain"
	"github.com/homecare-labs/intake-api/internal/observability"
)

// persister converts a validated profile into the two derived records and
// writes them. The interview record goes first: if only one write lands, the
// durable raw transcript is the one more likely to exist. No transaction
// spans the two writes; a partial failure is reported as total failure and
// the caller retries the whole finish step.
type persister struct {
	interviews domain.InterviewStore
	profiles   domain.ProfileStore
	now        func() time.Time
}

func newPersister(interviews domain.InterviewStore, profiles domain.ProfileStore) *persister {
	return &persister{
		interviews: interviews,
		profiles:   profiles,
		now:        time.Now,
	}
}

func (p *persister) Save(
	ctx context.Context,
	userID domain.UserID,
	language string,
	history []domain.Turn,
	profile domain.Profile,
) error {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	now := p.now()
	rec := &domain.InterviewRecord{
		UserID:           userID,
		RawHistory:       history,
		Language:         language,
		ProcessedProfile: profile,
		NeedsReview:      true,
		ReviewCompleted:  false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := p.interviews.UpsertInterview(ctx, rec); err != nil {
		log.Error("interview record write failed", "error", err)
		return fmt.Errorf("upsert interview record: %w", err)
	}

	if err := p.profiles.UpdateProfileSections(ctx, userID, profile.Sections()); err != nil {
		log.Error("profile sections write failed", "error", err)
		return fmt.Errorf("update profile sections: %w", err)
	}

	return nil
}
