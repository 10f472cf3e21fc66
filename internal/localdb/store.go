// Package localdb indexes the offline paper corpus. Papers are described by
// JSON sidecar files in the local database folder and indexed into a SQLite
// database with an FTS5 table for keyword recall.
package localdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"arxiv-similarity-search/internal/models"
)

const (
	indexDir = "index"
	dbFile   = "papers.db"
)

// Store manages the local corpus SQLite index.
type Store struct {
	db     *sql.DB
	folder string
}

// Open opens or creates the index database at folder/index/papers.db and
// creates the schema if it does not exist.
func Open(folder string) (*Store, error) {
	dbDir := filepath.Join(folder, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, folder: folder}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT,
			authors TEXT,
			year INTEGER,
			url TEXT,
			abstract TEXT
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			id UNINDEXED,
			title,
			abstract
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// paperMetadata is the sidecar JSON format describing one corpus paper.
type paperMetadata struct {
	ArxivID  string   `json:"arxiv_id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Year     int      `json:"year"`
	URL      string   `json:"url"`
	Abstract string   `json:"abstract"`
}

// Sync walks the corpus folder and upserts every *.json sidecar into the
// index. Returns the number of papers ingested.
func (s *Store) Sync(ctx context.Context) (int, error) {
	ingested := 0

	err := filepath.WalkDir(s.folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// The index itself lives under the corpus folder
			if d.Name() == indexDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		var meta paperMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if meta.ArxivID == "" {
			meta.ArxivID = strings.TrimSuffix(filepath.Base(path), ".json")
		}

		if err := s.upsert(ctx, meta); err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}
		ingested++
		return nil
	})
	if err != nil {
		return ingested, err
	}
	return ingested, nil
}

func (s *Store) upsert(ctx context.Context, meta paperMetadata) error {
	authors, err := json.Marshal(meta.Authors)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO papers (id, title, authors, year, url, abstract)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, authors=excluded.authors, year=excluded.year,
		   url=excluded.url, abstract=excluded.abstract`,
		meta.ArxivID, meta.Title, string(authors), meta.Year, meta.URL, meta.Abstract); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM papers_fts WHERE id = ?`, meta.ArxivID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO papers_fts (id, title, abstract) VALUES (?, ?, ?)`,
		meta.ArxivID, meta.Title, meta.Abstract); err != nil {
		return err
	}

	return tx.Commit()
}

// Search recalls up to limit papers matching any of the keywords, best
// BM25 match first.
func (s *Store) Search(ctx context.Context, keywords []string, limit int) ([]models.PaperRecord, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		quoted = append(quoted, `"`+strings.ReplaceAll(kw, `"`, ``)+`"`)
	}
	match := strings.Join(quoted, " OR ")

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.title, p.authors, p.year, p.url, p.abstract
		 FROM papers_fts f
		 JOIN papers p ON p.id = f.id
		 WHERE papers_fts MATCH ?
		 ORDER BY bm25(papers_fts)
		 LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []models.PaperRecord
	for rows.Next() {
		var record models.PaperRecord
		var authorsJSON string
		if err := rows.Scan(&record.ArxivID, &record.Title, &authorsJSON,
			&record.Year, &record.URL, &record.Abstract); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(authorsJSON), &record.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors for %s: %w", record.ArxivID, err)
		}
		results = append(results, record)
	}
	return results, rows.Err()
}

// Count returns the number of indexed papers.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&n)
	return n, err
}
