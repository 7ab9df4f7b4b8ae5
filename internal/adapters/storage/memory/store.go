package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/homecare-labs/intake-api/internal/domain"
)

// ProfileRecord is the stored user-facing record: the flattened sections plus
// the completion flag flipped when the interview finishes.
type ProfileRecord struct {
	InterviewCompleted bool
	Sections           []domain.ProfileSection
	UpdatedAt          time.Time
}

// Store is an in-memory implementation of domain.InterviewStore and
// domain.ProfileStore. Not persistent; suitable for development and tests.
type Store struct {
	mu         sync.RWMutex
	interviews map[domain.UserID]*domain.InterviewRecord
	profiles   map[domain.UserID]*ProfileRecord
}

func NewStore() *Store {
	return &Store{
		interviews: make(map[domain.UserID]*domain.InterviewRecord),
		profiles:   make(map[domain.UserID]*ProfileRecord),
	}
}

func (s *Store) UpsertInterview(_ context.Context, rec *domain.InterviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy so later mutations of the caller's record (or of the
	// stored one) don't leak across the port boundary.
	stored := *rec
	if existing, ok := s.interviews[rec.UserID]; ok {
		// Keep the original creation time across re-finishes.
		stored.CreatedAt = existing.CreatedAt
	}
	s.interviews[rec.UserID] = &stored
	return nil
}

func (s *Store) GetInterview(_ context.Context, userID domain.UserID) (*domain.InterviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.interviews[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (s *Store) ListPendingReviews(_ context.Context, limit int) ([]*domain.InterviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.InterviewRecord
	for _, rec := range s.interviews {
		if rec.NeedsReview && !rec.ReviewCompleted {
			out = append(out, rec)
		}
	}

	// Oldest first, same queue order as the database backends.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkReviewCompleted(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.interviews[userID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.ReviewCompleted = true
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdateProfileSections(_ context.Context, userID domain.UserID, sections []domain.ProfileSection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[userID] = &ProfileRecord{
		InterviewCompleted: true,
		Sections:           sections,
		UpdatedAt:          time.Now(),
	}
	return nil
}

// Interview returns the stored interview record for a user, or nil.
func (s *Store) Interview(userID domain.UserID) *domain.InterviewRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interviews[userID]
}

// Profile returns the stored profile record for a user, or nil.
func (s *Store) Profile(userID domain.UserID) *ProfileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID]
}
