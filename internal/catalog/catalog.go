// Package catalog records generated reports in a SQLite database and
// maintains the data.json index used by the static report browser.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"newsbrief/internal/report"
)

// DB wraps the catalog's SQLite connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the catalog database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Entry is one recorded report run.
type Entry struct {
	Date         string
	ArticleCount int
	MarkdownPath string
	HTMLPath     string
	JSONPath     string
	CreatedAt    string
}

// Record stores a report run. Re-running on the same date replaces the
// earlier entry.
func (db *DB) Record(date string, articleCount int, paths report.Paths) error {
	_, err := db.conn.Exec(`
INSERT INTO reports (date, article_count, md_path, html_path, json_path)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
    article_count = excluded.article_count,
    md_path = excluded.md_path,
    html_path = excluded.html_path,
    json_path = excluded.json_path,
    created_at = datetime('now')`,
		date, articleCount, paths.Markdown, paths.HTML, paths.JSON)
	if err != nil {
		return fmt.Errorf("recording report: %w", err)
	}
	return nil
}

// List returns all recorded reports, newest first.
func (db *DB) List() ([]Entry, error) {
	rows, err := db.conn.Query(`
SELECT date, article_count, md_path, html_path, json_path, created_at
FROM reports ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Date, &e.ArticleCount, &e.MarkdownPath, &e.HTMLPath, &e.JSONPath, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats summarizes the catalog.
type Stats struct {
	ReportCount   int
	ArticleTotal  int
	LatestDate    string
	LatestArticle int
}

// GetStats returns aggregate counts across all recorded reports.
func (db *DB) GetStats() (Stats, error) {
	var s Stats
	err := db.conn.QueryRow(`
SELECT COUNT(*), COALESCE(SUM(article_count), 0) FROM reports`).Scan(&s.ReportCount, &s.ArticleTotal)
	if err != nil {
		return Stats{}, fmt.Errorf("reading catalog stats: %w", err)
	}
	if s.ReportCount == 0 {
		return s, nil
	}
	err = db.conn.QueryRow(`
SELECT date, article_count FROM reports ORDER BY date DESC LIMIT 1`).Scan(&s.LatestDate, &s.LatestArticle)
	if err != nil {
		return Stats{}, fmt.Errorf("reading latest report: %w", err)
	}
	return s, nil
}

// indexEntry matches the shape the static report browser expects.
type indexEntry struct {
	Date    string `json:"date"`
	HTMLURL string `json:"htmlUrl"`
	MDURL   string `json:"mdUrl"`
	JSONURL string `json:"jsonUrl"`
}

// ExportIndex writes data.json next to the reports directory, listing
// every recorded report newest first with relative links.
func (db *DB) ExportIndex(docsDir string) error {
	entries, err := db.List()
	if err != nil {
		return err
	}

	index := make([]indexEntry, 0, len(entries))
	for _, e := range entries {
		index = append(index, indexEntry{
			Date:    e.Date,
			HTMLURL: "./reports/" + filepath.Base(e.HTMLPath),
			MDURL:   "./reports/" + filepath.Base(e.MarkdownPath),
			JSONURL: "./reports/" + filepath.Base(e.JSONPath),
		})
	}

	data, err := json.MarshalIndent(index, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding data.json: %w", err)
	}
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return fmt.Errorf("creating docs directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(docsDir, "data.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing data.json: %w", err)
	}
	return nil
}
