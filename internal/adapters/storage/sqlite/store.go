package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/homecare-labs/intake-api/internal/domain"
)

// Store implements domain.InterviewStore and domain.ProfileStore on a local
// SQLite database. Transcript, profile and sections are stored as JSON text
// columns; the review flags are real columns so the pending-review query can
// use an index.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS care_seeker_interviews (
		user_id TEXT PRIMARY KEY,
		raw_history_json TEXT NOT NULL,
		language TEXT NOT NULL,
		processed_profile_json TEXT NOT NULL,
		needs_review INTEGER NOT NULL DEFAULT 1,
		review_completed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interviews_pending
		ON care_seeker_interviews(created_at)
		WHERE needs_review = 1 AND review_completed = 0;

	CREATE TABLE IF NOT EXISTS care_seeker_profiles (
		user_id TEXT PRIMARY KEY,
		interview_completed INTEGER NOT NULL DEFAULT 0,
		profile_sections_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ─────────────────────────────────────────
// InterviewStore implementation
// ─────────────────────────────────────────

func (s *Store) UpsertInterview(ctx context.Context, rec *domain.InterviewRecord) error {
	history, err := json.Marshal(rec.RawHistory)
	if err != nil {
		return fmt.Errorf("marshal raw history: %w", err)
	}
	profile, err := json.Marshal(rec.ProcessedProfile)
	if err != nil {
		return fmt.Errorf("marshal processed profile: %w", err)
	}

	query := `
		INSERT INTO care_seeker_interviews
			(user_id, raw_history_json, language, processed_profile_json,
			 needs_review, review_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			raw_history_json = excluded.raw_history_json,
			language = excluded.language,
			processed_profile_json = excluded.processed_profile_json,
			needs_review = excluded.needs_review,
			review_completed = excluded.review_completed,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		string(rec.UserID), string(history), rec.Language, string(profile),
		boolToInt(rec.NeedsReview), boolToInt(rec.ReviewCompleted),
		rec.CreatedAt.Unix(), rec.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert interview: %w", err)
	}
	return nil
}

func (s *Store) GetInterview(ctx context.Context, userID domain.UserID) (*domain.InterviewRecord, error) {
	query := `
		SELECT user_id, raw_history_json, language, processed_profile_json,
		       needs_review, review_completed, created_at, updated_at
		FROM care_seeker_interviews WHERE user_id = ?`

	rec, err := scanInterview(s.db.QueryRowContext(ctx, query, string(userID)))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}
	return rec, nil
}

func (s *Store) ListPendingReviews(ctx context.Context, limit int) ([]*domain.InterviewRecord, error) {
	query := `
		SELECT user_id, raw_history_json, language, processed_profile_json,
		       needs_review, review_completed, created_at, updated_at
		FROM care_seeker_interviews
		WHERE needs_review = 1 AND review_completed = 0
		ORDER BY created_at ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	defer rows.Close()

	var out []*domain.InterviewRecord
	for rows.Next() {
		rec, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interview row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) MarkReviewCompleted(ctx context.Context, userID domain.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE care_seeker_interviews SET review_completed = 1, updated_at = ? WHERE user_id = ?`,
		time.Now().Unix(), string(userID),
	)
	if err != nil {
		return fmt.Errorf("mark review completed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) UpdateProfileSections(ctx context.Context, userID domain.UserID, sections []domain.ProfileSection) error {
	payload, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("marshal profile sections: %w", err)
	}

	query := `
		INSERT INTO care_seeker_profiles (user_id, interview_completed, profile_sections_json, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			interview_completed = 1,
			profile_sections_json = excluded.profile_sections_json,
			updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, string(userID), string(payload), time.Now().Unix()); err != nil {
		return fmt.Errorf("update profile sections: %w", err)
	}
	return nil
}

// ProfileSections reads back the stored sections for a user.
func (s *Store) ProfileSections(ctx context.Context, userID domain.UserID) (bool, []domain.ProfileSection, error) {
	var completed int
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT interview_completed, profile_sections_json FROM care_seeker_profiles WHERE user_id = ?`,
		string(userID),
	).Scan(&completed, &payload)
	if err == sql.ErrNoRows {
		return false, nil, domain.ErrNotFound
	}
	if err != nil {
		return false, nil, fmt.Errorf("get profile sections: %w", err)
	}

	var sections []domain.ProfileSection
	if err := json.Unmarshal([]byte(payload), &sections); err != nil {
		return false, nil, fmt.Errorf("unmarshal profile sections: %w", err)
	}
	return completed == 1, sections, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*domain.InterviewRecord, error) {
	var rec domain.InterviewRecord
	var userID, history, profile string
	var needsReview, reviewCompleted int
	var createdAt, updatedAt int64

	err := row.Scan(&userID, &history, &rec.Language, &profile,
		&needsReview, &reviewCompleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(history), &rec.RawHistory); err != nil {
		return nil, fmt.Errorf("unmarshal raw history: %w", err)
	}
	if err := json.Unmarshal([]byte(profile), &rec.ProcessedProfile); err != nil {
		return nil, fmt.Errorf("unmarshal processed profile: %w", err)
	}

	rec.UserID = domain.UserID(userID)
	rec.NeedsReview = needsReview == 1
	rec.ReviewCompleted = reviewCompleted == 1
	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
