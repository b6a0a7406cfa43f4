package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// SessionRepository persists signed-in [models.Session] records.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save inserts the session, or updates its tokens when it already has an ID.
//
// Inserting a session soft-deletes any other active session so at most one is current.
func (r *SessionRepository) Save(s *models.Session) error {
	if r == nil || r.db == nil {
		return shared.ErrStorageUnavailable
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	if s.ID != "" {
		return r.update(s, now)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE sessions SET deleted_at = ? WHERE deleted_at IS NULL", now); err != nil {
		return fmt.Errorf("failed to retire sessions: %w", err)
	}

	s.ID = shared.GenerateID()
	s.Created, s.Updated = now, now

	query := `
		INSERT INTO sessions (id, uid, display_name, email, photo_url, provider, id_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query, s.ID, s.User.UID, s.User.DisplayName, s.User.Email, s.User.PhotoURL,
		s.Provider, s.IDToken, s.RefreshToken, nullTime(s.ExpiresAt), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return tx.Commit()
}

func (r *SessionRepository) update(s *models.Session, now time.Time) error {
	query := `
		UPDATE sessions
		SET display_name = ?, email = ?, photo_url = ?, id_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, s.User.DisplayName, s.User.Email, s.User.PhotoURL,
		s.IDToken, s.RefreshToken, nullTime(s.ExpiresAt), now, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: session %s not found or already deleted", shared.ErrNotFound, s.ID)
	}
	s.Updated = now
	return nil
}

// Current returns the most recent active session, or [shared.ErrNotAuthenticated] when there is none.
func (r *SessionRepository) Current() (*models.Session, error) {
	if r == nil || r.db == nil {
		return nil, shared.ErrStorageUnavailable
	}

	query := `
		SELECT id, uid, display_name, email, photo_url, provider, id_token, refresh_token, expires_at, created_at, updated_at
		FROM sessions
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		s            models.Session
		displayName  sql.NullString
		email        sql.NullString
		photoURL     sql.NullString
		refreshToken sql.NullString
		expiresAt    sql.NullTime
	)
	err := r.db.QueryRow(query).Scan(&s.ID, &s.User.UID, &displayName, &email, &photoURL, &s.Provider,
		&s.IDToken, &refreshToken, &expiresAt, &s.Created, &s.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	s.User.DisplayName = displayName.String
	s.User.Email = email.String
	s.User.PhotoURL = photoURL.String
	s.RefreshToken = refreshToken.String
	if expiresAt.Valid {
		s.ExpiresAt = expiresAt.Time
	}
	return &s, nil
}

// Delete soft-deletes every active session for uid. It reports how many were removed.
func (r *SessionRepository) Delete(uid string) (int, error) {
	if r == nil || r.db == nil {
		return 0, shared.ErrStorageUnavailable
	}

	result, err := r.db.Exec("UPDATE sessions SET deleted_at = ? WHERE uid = ? AND deleted_at IS NULL", time.Now(), uid)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
