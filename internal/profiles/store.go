package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"voice-booking/internal/calls"
	"voice-booking/internal/conversation"
	"voice-booking/internal/events"
	"voice-booking/pkg/utils"
)

var ErrNotFound = errors.New("profiles: not found")

// Request is a stored booking request row.
type Request struct {
	ID            string
	UserID        string
	Title         string
	Description   string
	PreferredTime string
	Status        calls.RequestStatus
}

// Store reads and updates the Supabase profiles and requests tables.
// The frontend owns row creation; this service only reads and moves status.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, clock: time.Now}
}

func (s *Store) GetProfile(ctx context.Context, userID string) (calls.UserProfile, error) {
	const q = `
SELECT COALESCE(username, ''), COALESCE(street, ''), COALESCE(house_number, ''),
       COALESCE(postal_code, ''), COALESCE(city, ''), COALESCE(country, '')
FROM profiles
WHERE user_id = $1
LIMIT 1
`
	var p calls.UserProfile
	err := s.db.QueryRowContext(ctx, q, userID).Scan(&p.Username, &p.Street, &p.HouseNumber, &p.PostalCode, &p.City, &p.Country)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calls.UserProfile{}, ErrNotFound
		}
		return calls.UserProfile{}, fmt.Errorf("profiles: get profile: %w", err)
	}
	return p, nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (Request, error) {
	const q = `
SELECT id, user_id, COALESCE(title, ''), COALESCE(description, ''),
       COALESCE(preferred_time, ''), COALESCE(status, '')
FROM requests
WHERE id = $1
`
	var r Request
	var status string
	err := s.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.PreferredTime, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("profiles: get request: %w", err)
	}
	r.Status = calls.RequestStatus(status)
	return r, nil
}

// UpdateRequestStatus moves a request to status and appends ev to its
// timeline in the same transaction.
func (s *Store) UpdateRequestStatus(ctx context.Context, requestID string, status calls.RequestStatus, ev events.Event) error {
	now := s.clock().UTC()
	ev.RequestID = requestID
	ev, err := events.Normalize(ev, now)
	if err != nil {
		return err
	}

	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
UPDATE requests
SET status = $2, updated_at = $3
WHERE id = $1
`
		res, err := tx.ExecContext(ctx, q, requestID, string(status), now)
		if err != nil {
			return fmt.Errorf("profiles: update request status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return events.AppendTx(ctx, tx, ev)
	})
}

// LoadCallContext builds the dialogue context of a request, with the
// owner's name and city when the profile exists.
func (s *Store) LoadCallContext(ctx context.Context, requestID string) (conversation.CallContext, error) {
	r, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return conversation.CallContext{}, err
	}
	cc := conversation.CallContext{
		RequestID:     r.ID,
		Title:         r.Title,
		Description:   r.Description,
		PreferredTime: r.PreferredTime,
	}
	if p, err := s.GetProfile(ctx, r.UserID); err == nil {
		cc.CustomerName = p.Username
		cc.City = p.City
	}
	return cc, nil
}
