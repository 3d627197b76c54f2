package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	scherr "helpline-scheduler/errors"
	"helpline-scheduler/metrics"
	"helpline-scheduler/models"
)

// TimeOffRequests returns every request. Rows whose dates cannot be parsed
// are skipped with a log line.
func (s *Store) TimeOffRequests(ctx context.Context) ([]models.TimeOffRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, type, start_date, end_date, reason, status FROM time_off_requests ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query time off requests: %w", err)
	}
	defer rows.Close()

	var out []models.TimeOffRequest
	for rows.Next() {
		var r models.TimeOffRequest
		var start, end, status string
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.Type, &start, &end, &r.Reason, &status); err != nil {
			return nil, fmt.Errorf("failed to scan time off request: %w", err)
		}
		r.StartDate, err = time.Parse(dateLayout, start)
		if err == nil {
			r.EndDate, err = time.Parse(dateLayout, end)
		}
		if err != nil {
			s.log.Warn("skipping time off request with bad dates", "id", r.ID)
			metrics.MalformedRecordsTotal.WithLabelValues("time_off").Inc()
			continue
		}
		r.Status = models.TimeOffStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateTimeOff stores a new request in the pending state.
func (s *Store) CreateTimeOff(ctx context.Context, r models.TimeOffRequest) (models.TimeOffRequest, error) {
	if r.EndDate.Before(r.StartDate) {
		return models.TimeOffRequest{}, fmt.Errorf("end date precedes start date")
	}
	r.ID = uuid.NewString()
	r.Status = models.TimeOffPending

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_off_requests (id, employee_id, type, start_date, end_date, reason, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.EmployeeID, r.Type,
		models.DateOnly(r.StartDate).Format(dateLayout),
		models.DateOnly(r.EndDate).Format(dateLayout),
		r.Reason, string(r.Status),
	)
	if err != nil {
		return models.TimeOffRequest{}, fmt.Errorf("failed to insert time off request: %w", err)
	}
	return r, nil
}

// UpdateTimeOffStatus resolves a pending request. Approved and denied are
// terminal; a second transition is refused.
func (s *Store) UpdateTimeOffStatus(ctx context.Context, id string, status models.TimeOffStatus) (models.TimeOffRequest, error) {
	if status != models.TimeOffApproved && status != models.TimeOffDenied {
		return models.TimeOffRequest{}, fmt.Errorf("status must be approved or denied")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE time_off_requests SET status = ? WHERE id = ? AND status = ?`,
		string(status), id, string(models.TimeOffPending),
	)
	if err != nil {
		return models.TimeOffRequest{}, fmt.Errorf("failed to update time off request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing request from a resolved one.
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM time_off_requests WHERE id = ?`, id).Scan(&one)
		if err != nil {
			return models.TimeOffRequest{}, scherr.ErrNotFound
		}
		return models.TimeOffRequest{}, scherr.ErrTerminalState
	}

	all, err := s.TimeOffRequests(ctx)
	if err != nil {
		return models.TimeOffRequest{}, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return models.TimeOffRequest{}, scherr.ErrNotFound
}

// Announcements returns every announcement, newest first.
func (s *Store) Announcements(ctx context.Context) ([]models.Announcement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, type, date FROM announcements ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	var out []models.Announcement
	for rows.Next() {
		var a models.Announcement
		var date string
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Type, &date); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		a.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			s.log.Warn("skipping announcement with bad date", "id", a.ID)
			metrics.MalformedRecordsTotal.WithLabelValues("announcement").Inc()
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAnnouncement(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	a.ID = uuid.NewString()
	if a.Type == "" {
		a.Type = "normal"
	}
	if a.Date.IsZero() {
		a.Date = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcements (id, title, content, type, date) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Content, a.Type, models.DateOnly(a.Date).Format(dateLayout),
	)
	if err != nil {
		return models.Announcement{}, fmt.Errorf("failed to insert announcement: %w", err)
	}
	return a, nil
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return scherr.ErrNotFound
	}
	return nil
}

// ReplaceAnnouncements swaps the full announcement set in one transaction,
// the bulk-edit path the board ticker uses.
func (s *Store) ReplaceAnnouncements(ctx context.Context, announcements []models.Announcement) ([]models.Announcement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM announcements`); err != nil {
		return nil, fmt.Errorf("failed to clear announcements: %w", err)
	}
	for _, a := range announcements {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Type == "" {
			a.Type = "normal"
		}
		if a.Date.IsZero() {
			a.Date = time.Now()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO announcements (id, title, content, type, date) VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.Title, a.Content, a.Type, models.DateOnly(a.Date).Format(dateLayout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert announcement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit announcements: %w", err)
	}
	return s.Announcements(ctx)
}
