// Package analytics records privacy-conscious project page views.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"
)

var projectIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// ValidProjectID reports whether id is a lowercase slug of at most 64 chars.
func ValidProjectID(id string) bool {
	return projectIDRegex.MatchString(id)
}

// Limits on stored request metadata.
const (
	MaxUserAgentLength = 256
	MaxReferrerLength  = 512
)

// View is one recorded project page view. HashedIP is never a raw address.
type View struct {
	ProjectID string
	HashedIP  string
	UserAgent string
	Referrer  string
	ViewedAt  time.Time
}

type ProjectStat struct {
	ProjectID      string `json:"project_id"`
	Views          int64  `json:"views"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

type Stats struct {
	TotalViews     int64         `json:"total_views"`
	UniqueVisitors int64         `json:"unique_visitors"`
	ViewsToday     int64         `json:"views_today"`
	ViewsThisWeek  int64         `json:"views_this_week"`
	Projects       []ProjectStat `json:"projects"`
}

const createViewsTable = `
CREATE TABLE IF NOT EXISTS project_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id TEXT NOT NULL,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT,
	referrer TEXT,
	viewed_at INTEGER NOT NULL -- unix millis
);
CREATE INDEX IF NOT EXISTS idx_project_views_viewed_at ON project_views (viewed_at);
CREATE INDEX IF NOT EXISTS idx_project_views_project ON project_views (project_id);
`

type Store struct {
	db *sql.DB
}

// NewStore creates the views table if needed.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, createViewsTable); err != nil {
		return nil, fmt.Errorf("create project_views table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) RecordView(ctx context.Context, v View) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_views (project_id, hashed_ip, user_agent, referrer, viewed_at)
		VALUES (?, ?, ?, ?, ?)
	`, v.ProjectID, v.HashedIP, truncate(v.UserAgent, MaxUserAgentLength), truncate(v.Referrer, MaxReferrerLength), v.ViewedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	return nil
}

// Stats summarizes all stored views. "Today" starts at midnight UTC of now.
func (s *Store) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &Stats{Projects: []ProjectStat{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT hashed_ip),
			COALESCE(SUM(CASE WHEN viewed_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN viewed_at >= ? THEN 1 ELSE 0 END), 0)
		FROM project_views
	`, midnight.UnixMilli(), weekAgo.UnixMilli()).Scan(
		&stats.TotalViews, &stats.UniqueVisitors, &stats.ViewsToday, &stats.ViewsThisWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("query view totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, COUNT(*) AS views, COUNT(DISTINCT hashed_ip)
		FROM project_views
		GROUP BY project_id
		ORDER BY views DESC, project_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query project views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ProjectStat
		if err := rows.Scan(&p.ProjectID, &p.Views, &p.UniqueVisitors); err != nil {
			return nil, fmt.Errorf("scan project views: %w", err)
		}
		stats.Projects = append(stats.Projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteBefore removes views recorded before cutoff and returns how many
// were removed.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM project_views WHERE viewed_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete old views: %w", err)
	}
	return res.RowsAffected()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
