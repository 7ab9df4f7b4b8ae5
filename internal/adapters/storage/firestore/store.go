package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/homecare-labs/intake-api/internal/domain"
)

const (
	interviewsCollection = "care_seeker_interviews"
	profilesCollection   = "care_seeker_profiles"
)

// Store persists the two finish-time records in Firestore, one document per
// user in each collection.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) interviewDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection(interviewsCollection).Doc(string(userID))
}

func (s *Store) profileDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection(profilesCollection).Doc(string(userID))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type turnDoc struct {
	Role    string `firestore:"role"`
	Content string `firestore:"content"`
}

type rawInterviewDoc struct {
	Messages []turnDoc `firestore:"messages"`
	Language string    `firestore:"language"`
}

type interviewDoc struct {
	UserID           string          `firestore:"user_id"`
	RawInterviewData rawInterviewDoc `firestore:"raw_interview_data"`
	ProcessedProfile map[string]any  `firestore:"processed_profile"`
	NeedsReview      bool            `firestore:"needs_review"`
	ReviewCompleted  bool            `firestore:"review_completed"`
	CreatedAt        time.Time       `firestore:"created_at"`
	UpdatedAt        time.Time       `firestore:"updated_at"`
}

type sectionItemDoc struct {
	Label string `firestore:"label"`
	Value any    `firestore:"value"`
}

type sectionDoc struct {
	Title string           `firestore:"title"`
	Items []sectionItemDoc `firestore:"items"`
}

// ─────────────────────────────────────────
// InterviewStore implementation
// ─────────────────────────────────────────

func (s *Store) UpsertInterview(ctx context.Context, rec *domain.InterviewRecord) error {
	turns := make([]turnDoc, 0, len(rec.RawHistory))
	for _, t := range rec.RawHistory {
		turns = append(turns, turnDoc{Role: string(t.Role), Content: t.Content})
	}

	doc := interviewDoc{
		UserID: string(rec.UserID),
		RawInterviewData: rawInterviewDoc{
			Messages: turns,
			Language: rec.Language,
		},
		ProcessedProfile: rec.ProcessedProfile,
		NeedsReview:      rec.NeedsReview,
		ReviewCompleted:  rec.ReviewCompleted,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}

	if _, err := s.interviewDoc(rec.UserID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore UpsertInterview: %w", err)
	}
	return nil
}

func (s *Store) GetInterview(ctx context.Context, userID domain.UserID) (*domain.InterviewRecord, error) {
	snap, err := s.interviewDoc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetInterview: %w", err)
	}

	var doc interviewDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetInterview decode: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *Store) ListPendingReviews(ctx context.Context, limit int) ([]*domain.InterviewRecord, error) {
	q := s.client.Collection(interviewsCollection).
		Where("needs_review", "==", true).
		Where("review_completed", "==", false).
		OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.InterviewRecord
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListPendingReviews: %w", err)
		}

		var doc interviewDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode interviewDoc: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (s *Store) MarkReviewCompleted(ctx context.Context, userID domain.UserID) error {
	_, err := s.interviewDoc(userID).Update(ctx, []firestore.Update{
		{Path: "review_completed", Value: true},
		{Path: "updated_at", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("firestore MarkReviewCompleted: %w", err)
	}
	return nil
}

func (d *interviewDoc) toDomain() *domain.InterviewRecord {
	turns := make([]domain.Turn, 0, len(d.RawInterviewData.Messages))
	for _, t := range d.RawInterviewData.Messages {
		turns = append(turns, domain.Turn{Role: domain.Role(t.Role), Content: t.Content})
	}
	return &domain.InterviewRecord{
		UserID:           domain.UserID(d.UserID),
		RawHistory:       turns,
		Language:         d.RawInterviewData.Language,
		ProcessedProfile: d.ProcessedProfile,
		NeedsReview:      d.NeedsReview,
		ReviewCompleted:  d.ReviewCompleted,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) UpdateProfileSections(ctx context.Context, userID domain.UserID, sections []domain.ProfileSection) error {
	docs := make([]sectionDoc, 0, len(sections))
	for _, sec := range sections {
		items := make([]sectionItemDoc, 0, len(sec.Items))
		for _, it := range sec.Items {
			items = append(items, sectionItemDoc{Label: it.Label, Value: it.Value})
		}
		docs = append(docs, sectionDoc{Title: sec.Title, Items: items})
	}

	update := map[string]any{
		"user_id":             string(userID),
		"interview_completed": true,
		"profile_sections":    docs,
		"updated_at":          time.Now(),
	}

	// MergeAll keeps whatever else the onboarding flow already stored on the
	// profile document.
	if _, err := s.profileDoc(userID).Set(ctx, update, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore UpdateProfileSections: %w", err)
	}
	return nil
}
