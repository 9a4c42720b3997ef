// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists papers, search history, and user preferences
// in a SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperbot/pkg/types"
)

// Store manages the paper cache SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database at path and creates the
// schema if it does not exist.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			doi TEXT UNIQUE,
			journal TEXT,
			publication_date TEXT,
			url TEXT,
			source TEXT,
			relevance_score REAL,
			relevance_explanation TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_created_at ON papers(created_at)`,
		`CREATE TABLE IF NOT EXISTS search_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			filters TEXT,
			result_count INTEGER,
			requester TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_history_requester ON search_history(requester)`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL UNIQUE,
			preferred_journals TEXT,
			subscribed_keywords TEXT,
			updated_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SavePaper inserts a paper and returns its row id. Papers without a
// meaningful title are skipped and return 0. A DOI collision keeps the
// stored row untouched and returns its id: first write wins.
func (s *Store) SavePaper(p types.Paper) (int64, error) {
	if strings.TrimSpace(p.Title) == "" {
		return 0, nil
	}

	if p.DOI != "" {
		if existing, err := s.PaperByDOI(p.DOI); err != nil {
			return 0, err
		} else if existing != nil {
			return existing.ID, nil
		}
	}

	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return 0, fmt.Errorf("encoding authors: %w", err)
	}

	var doi any
	if p.DOI != "" {
		doi = p.DOI
	}

	res, err := s.db.Exec(`INSERT INTO papers
		(title, authors, abstract, doi, journal, publication_date, url, source,
		 relevance_score, relevance_explanation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, string(authors), p.Abstract, doi, p.Journal, p.PublicationDate,
		p.URL, p.Source, p.RelevanceScore, p.RelevanceExplanation, now())
	if err != nil {
		return 0, fmt.Errorf("inserting paper: %w", err)
	}
	return res.LastInsertId()
}

// SavePapers saves papers one by one and returns the row ids in input
// order. Skipped papers contribute a 0 id.
func (s *Store) SavePapers(papers []types.Paper) ([]int64, error) {
	ids := make([]int64, 0, len(papers))
	for _, p := range papers {
		id, err := s.SavePaper(p)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// PaperByDOI returns the stored paper with the given DOI, or nil.
func (s *Store) PaperByDOI(doi string) (*types.Paper, error) {
	row := s.db.QueryRow(selectPaper+` WHERE doi = ?`, doi)
	p, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying paper by doi: %w", err)
	}
	return p, nil
}

// PaperExists reports whether a paper with the DOI is stored.
func (s *Store) PaperExists(doi string) (bool, error) {
	p, err := s.PaperByDOI(doi)
	return p != nil, err
}

// ExistingDOIs returns the subset of dois already stored, case-exact.
// An empty input returns an empty set without touching the database.
func (s *Store) ExistingDOIs(dois []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(dois) == 0 {
		return existing, nil
	}

	placeholders := strings.Repeat("?,", len(dois))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(dois))
	for i, d := range dois {
		args[i] = d
	}

	rows, err := s.db.Query(`SELECT doi FROM papers WHERE doi IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying existing dois: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doi string
		if err := rows.Scan(&doi); err != nil {
			return nil, fmt.Errorf("scanning doi: %w", err)
		}
		existing[doi] = struct{}{}
	}
	return existing, rows.Err()
}

// RecentPapers returns papers stored within the last days, newest
// first. source narrows to one source when non-empty.
func (s *Store) RecentPapers(days int, source string) ([]types.Paper, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	var b strings.Builder
	b.WriteString(selectPaper)
	b.WriteString(` WHERE created_at >= ?`)
	args := []any{cutoff}
	if source != "" {
		b.WriteString(` AND source = ?`)
		args = append(args, source)
	}
	b.WriteString(` ORDER BY created_at DESC`)

	return s.queryPapers(b.String(), args...)
}

// SearchPapers returns stored papers whose title or abstract contains
// the term, newest first, up to limit.
func (s *Store) SearchPapers(term string, limit int) ([]types.Paper, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + term + "%"
	return s.queryPapers(selectPaper+`
		WHERE title LIKE ? OR abstract LIKE ?
		ORDER BY created_at DESC LIMIT ?`, pattern, pattern, limit)
}

// CleanupOldPapers deletes papers stored more than days ago and returns
// the number removed.
func (s *Store) CleanupOldPapers(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM papers WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old papers: %w", err)
	}
	return res.RowsAffected()
}

// SaveSearchQuery records an executed search and returns its row id.
func (s *Store) SaveSearchQuery(q types.SearchQuery) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO search_history
		(query, filters, result_count, requester, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		q.Query, q.Filters, q.ResultCount, q.Requester, now())
	if err != nil {
		return 0, fmt.Errorf("inserting search query: %w", err)
	}
	return res.LastInsertId()
}

// SearchHistory returns recorded searches, newest first, up to limit.
// requester narrows to one requester when non-empty.
func (s *Store) SearchHistory(requester string, limit int) ([]types.SearchQuery, error) {
	if limit <= 0 {
		limit = 20
	}

	var b strings.Builder
	b.WriteString(`SELECT id, query, filters, result_count, requester, created_at FROM search_history`)
	var args []any
	if requester != "" {
		b.WriteString(` WHERE requester = ?`)
		args = append(args, requester)
	}
	b.WriteString(` ORDER BY created_at DESC, id DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.Query(b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying search history: %w", err)
	}
	defer rows.Close()

	var history []types.SearchQuery
	for rows.Next() {
		var q types.SearchQuery
		var filters, requester sql.NullString
		if err := rows.Scan(&q.ID, &q.Query, &filters, &q.ResultCount, &requester, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search query: %w", err)
		}
		q.Filters = filters.String
		q.Requester = requester.String
		history = append(history, q)
	}
	return history, rows.Err()
}

// SaveUserPreference upserts one user's preference row.
func (s *Store) SaveUserPreference(pref types.UserPreference) error {
	journals, err := json.Marshal(pref.PreferredJournals)
	if err != nil {
		return fmt.Errorf("encoding journals: %w", err)
	}
	keywords, err := json.Marshal(pref.SubscribedKeywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO user_preferences
		(user_id, preferred_journals, subscribed_keywords, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			preferred_journals = excluded.preferred_journals,
			subscribed_keywords = excluded.subscribed_keywords,
			updated_at = excluded.updated_at`,
		pref.UserID, string(journals), string(keywords), now())
	if err != nil {
		return fmt.Errorf("upserting user preference: %w", err)
	}
	return nil
}

// UserPreference returns one user's stored preferences, or nil.
func (s *Store) UserPreference(userID string) (*types.UserPreference, error) {
	row := s.db.QueryRow(`SELECT id, user_id, preferred_journals, subscribed_keywords, updated_at
		FROM user_preferences WHERE user_id = ?`, userID)

	var pref types.UserPreference
	var journals, keywords sql.NullString
	err := row.Scan(&pref.ID, &pref.UserID, &journals, &keywords, &pref.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user preference: %w", err)
	}

	if journals.Valid && journals.String != "" {
		if err := json.Unmarshal([]byte(journals.String), &pref.PreferredJournals); err != nil {
			return nil, fmt.Errorf("decoding journals: %w", err)
		}
	}
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &pref.SubscribedKeywords); err != nil {
			return nil, fmt.Errorf("decoding keywords: %w", err)
		}
	}
	return &pref, nil
}

const selectPaper = `SELECT id, title, authors, abstract, doi, journal,
	publication_date, url, source, relevance_score, relevance_explanation,
	created_at FROM papers`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*types.Paper, error) {
	var p types.Paper
	var authors, abstract, doi, journal, pubDate, pageURL, source, explanation sql.NullString
	var score sql.NullFloat64

	err := row.Scan(&p.ID, &p.Title, &authors, &abstract, &doi, &journal,
		&pubDate, &pageURL, &source, &score, &explanation, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if authors.Valid && authors.String != "" {
		if err := json.Unmarshal([]byte(authors.String), &p.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
	}
	p.Abstract = abstract.String
	p.DOI = doi.String
	p.Journal = journal.String
	p.PublicationDate = pubDate.String
	p.URL = pageURL.String
	p.Source = source.String
	p.RelevanceExplanation = explanation.String
	if score.Valid {
		v := score.Float64
		p.RelevanceScore = &v
	}
	return &p, nil
}

func (s *Store) queryPapers(query string, args ...any) ([]types.Paper, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, *p)
	}
	return papers, rows.Err()
}
