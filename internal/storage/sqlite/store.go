// Package sqlite implements the storage.Store contract on SQLite via
// database/sql and the pure-Go modernc.org/sqlite driver. It exists for local
// runs and tests that need real DDL, upsert, and foreign-key semantics without
// a server. Array columns round-trip through JSON.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fashionetl/internal/catalog"
	"fashionetl/internal/storage"
)

// Config holds SQLite store configuration.
type Config struct {
	// DSN is passed to database/sql, e.g. "file:fashion.db" or ":memory:".
	DSN string
}

// Store is a SQLite-backed implementation of storage.Store.
type Store struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return NewStore(ctx, Config{DSN: cfg.DSN})
	})
}

// NewStore opens the database, pings it, and turns on foreign-key enforcement
// so FK semantics match the Postgres backend.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection keeps in-memory databases coherent and sidesteps
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() { _ = s.db.Close() }

// DB exposes the underlying handle for tests that need raw SQL access.
func (s *Store) DB() *sql.DB { return s.db }

// EnsureSchema implements storage.Store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

const upsertImageSQL = `
INSERT INTO image_metadata (
    image_id, file_path, description, dominant_colors,
    style_tags, garment_type, accessories, gender, season
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (image_id) DO UPDATE SET
    file_path       = excluded.file_path,
    description     = excluded.description,
    dominant_colors = excluded.dominant_colors,
    style_tags      = excluded.style_tags,
    garment_type    = excluded.garment_type,
    accessories     = excluded.accessories,
    gender          = excluded.gender,
    season          = excluded.season,
    created_at      = strftime('%Y-%m-%dT%H:%M:%fZ','now')`

// UpsertImageMetadata implements storage.Store.
func (s *Store) UpsertImageMetadata(ctx context.Context, recs []catalog.ImageMetadata) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertImageSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for _, m := range recs {
		if _, err := stmt.ExecContext(ctx,
			m.ImageID, m.FilePath, m.Description, encodeJSON(m.DominantColors),
			encodeJSON(m.StyleTags), m.GarmentType, encodeJSON(m.Accessories), m.Gender, m.Season,
		); err != nil {
			return n, fmt.Errorf("sqlite: upsert image_metadata %s: %w", m.ImageID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// ListImageMetadata implements storage.Store.
func (s *Store) ListImageMetadata(ctx context.Context) ([]catalog.ImageMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT image_id, file_path, description, dominant_colors,
		       style_tags, garment_type, accessories, gender, season, created_at
		FROM image_metadata
		ORDER BY image_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list image_metadata: %w", err)
	}
	defer rows.Close()

	var out []catalog.ImageMetadata
	for rows.Next() {
		m, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ImageMetadataByIDs implements storage.Store.
func (s *Store) ImageMetadataByIDs(ctx context.Context, ids []string) (map[string]catalog.ImageMetadata, error) {
	out := map[string]catalog.ImageMetadata{}
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT image_id, file_path, description, dominant_colors,
		       style_tags, garment_type, accessories, gender, season, created_at
		FROM image_metadata
		WHERE image_id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: image_metadata by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out[m.ImageID] = m
	}
	return out, rows.Err()
}

func scanImage(rows *sql.Rows) (catalog.ImageMetadata, error) {
	var (
		m                           catalog.ImageMetadata
		colors, tags, accs, created string
	)
	if err := rows.Scan(
		&m.ImageID, &m.FilePath, &m.Description, &colors,
		&tags, &m.GarmentType, &accs, &m.Gender, &m.Season, &created,
	); err != nil {
		return m, fmt.Errorf("sqlite: scan image_metadata: %w", err)
	}
	m.DominantColors = decodeJSON(colors)
	m.StyleTags = decodeJSON(tags)
	m.Accessories = decodeJSON(accs)
	m.CreatedAt = parseTime(created)
	return m, nil
}

// ListImageIDs implements storage.Store.
func (s *Store) ListImageIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT image_id FROM image_metadata ORDER BY image_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list image ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CountImages implements storage.Store.
func (s *Store) CountImages(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM image_metadata`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count image_metadata: %w", err)
	}
	return n, nil
}

const upsertPathSQL = `
INSERT INTO image_navigation_paths (source_image_id, next_possible_images, path_scores, reason)
VALUES (?, ?, ?, ?)
ON CONFLICT (source_image_id) DO UPDATE SET
    next_possible_images = excluded.next_possible_images,
    path_scores          = excluded.path_scores,
    reason               = excluded.reason,
    created_at           = strftime('%Y-%m-%dT%H:%M:%fZ','now')`

// UpsertNavigationPaths implements storage.Store.
func (s *Store) UpsertNavigationPaths(ctx context.Context, paths []catalog.NavigationPath) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPathSQL)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for _, p := range paths {
		if _, err := stmt.ExecContext(ctx,
			p.SourceImageID, encodeJSON(p.NextImages), encodeScores(p.Scores), p.Reason,
		); err != nil {
			return n, fmt.Errorf("sqlite: upsert image_navigation_paths %s: %w", p.SourceImageID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// ListNavigationPaths implements storage.Store.
func (s *Store) ListNavigationPaths(ctx context.Context) ([]catalog.NavigationPath, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_image_id, next_possible_images, path_scores, reason, created_at
		FROM image_navigation_paths
		ORDER BY source_image_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list image_navigation_paths: %w", err)
	}
	defer rows.Close()

	var out []catalog.NavigationPath
	for rows.Next() {
		var (
			p                     catalog.NavigationPath
			next, scores, created string
		)
		if err := rows.Scan(&p.SourceImageID, &next, &scores, &p.Reason, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scan image_navigation_paths: %w", err)
		}
		p.NextImages = decodeJSON(next)
		p.Scores = decodeScores(scores)
		p.CreatedAt = parseTime(created)
		out = append(out, p)
	}
	return out, rows.Err()
}

// NavigationPath implements storage.Store.
func (s *Store) NavigationPath(ctx context.Context, sourceImageID string) ([]string, []float64, error) {
	var next, scores string
	err := s.db.QueryRowContext(ctx, `
		SELECT next_possible_images, path_scores
		FROM image_navigation_paths
		WHERE source_image_id = ?`, sourceImageID).Scan(&next, &scores)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: navigation path %s: %w", sourceImageID, err)
	}
	return decodeJSON(next), decodeScores(scores), nil
}

// AppendInteractions implements storage.Store.
func (s *Store) AppendInteractions(ctx context.Context, events []catalog.Interaction) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO user_interactions (user_id, image_id, clicked, timestamp) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.UserID, e.ImageID, boolToInt(e.Clicked), formatTime(e.Timestamp)); err != nil {
			return fmt.Errorf("sqlite: append user_interactions (%s, %s): %w", e.UserID, e.ImageID, err)
		}
	}
	return tx.Commit()
}

// LastClickedImages implements storage.Store.
func (s *Store) LastClickedImages(ctx context.Context, userIDs []string) (map[string]string, error) {
	out := map[string]string{}
	if len(userIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	// Group-wise max via a correlated subquery; SQLite has no DISTINCT ON.
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT user_id, image_id FROM user_interactions u
		WHERE user_id IN (%s) AND clicked = 1
		  AND id = (SELECT id FROM user_interactions
		            WHERE user_id = u.user_id AND clicked = 1
		            ORDER BY timestamp DESC, id DESC LIMIT 1)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: last clicked images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var user, image string
		if err := rows.Scan(&user, &image); err != nil {
			return nil, err
		}
		out[user] = image
	}
	return out, rows.Err()
}

// ClickedHistory implements storage.Store.
func (s *Store) ClickedHistory(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT image_id FROM user_interactions WHERE user_id = ? AND clicked = 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: clicked history %s: %w", userID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RandomImageID implements storage.Store.
func (s *Store) RandomImageID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT image_id FROM image_metadata ORDER BY RANDOM() LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: random image: %w", err)
	}
	return id, nil
}

// AppendRecommendations implements storage.Store.
func (s *Store) AppendRecommendations(ctx context.Context, recs []catalog.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendations (user_id, source_image_id, recommended_images, reasoning, generated_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx,
			r.UserID, r.SourceImageID, encodeJSON(r.Recommended), encodeJSON(r.Reasoning), formatTime(r.GeneratedAt),
		); err != nil {
			return fmt.Errorf("sqlite: append recommendations (%s, %s): %w", r.UserID, r.SourceImageID, err)
		}
	}
	return tx.Commit()
}

// ListRecommendations implements storage.Store.
func (s *Store) ListRecommendations(ctx context.Context) ([]catalog.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, source_image_id, recommended_images, reasoning, generated_at
		FROM recommendations
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list recommendations: %w", err)
	}
	defer rows.Close()

	var out []catalog.Recommendation
	for rows.Next() {
		var (
			r                            catalog.Recommendation
			images, reasons, generatedAt string
		)
		if err := rows.Scan(&r.UserID, &r.SourceImageID, &images, &reasons, &generatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan recommendations: %w", err)
		}
		r.Recommended = decodeJSON(images)
		r.Reasoning = decodeJSON(reasons)
		r.GeneratedAt = parseTime(generatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

func encodeJSON(in []string) string {
	if in == nil {
		in = []string{}
	}
	b, _ := json.Marshal(in)
	return string(b)
}

func decodeJSON(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func encodeScores(in []float64) string {
	if in == nil {
		in = []float64{}
	}
	b, _ := json.Marshal(in)
	return string(b)
}

func decodeScores(s string) []float64 {
	if s == "" {
		return nil
	}
	var out []float64
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
