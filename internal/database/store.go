package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dohadev/visaingest/internal/model"
)

// Store provides SQLite-backed persistence for the ingestion pipeline:
// sources, pages, visa types with their owned sub-records, and the
// append-only change log.
//
// Design decision: One database file for all entities rather than a
// file per run. Change history only has value across runs, and a single
// file keeps backup/restore trivial.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store at dbDir. With CreateIfNotExists the
// directory and database file are created as needed; without it a
// missing database is an error.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "visaingest.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rwc"
	if !opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer; the loader serializes writes
	// per page anyway, so one connection is the safe configuration.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- One raw fetch record per normalized URL. Updated in place on
	-- refetch, never duplicated.
	CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		url_hash TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		first_seen_at TEXT NOT NULL,
		last_fetched_at TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		etag TEXT NOT NULL DEFAULT '',
		raw_html BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_sources_url_hash ON sources(url_hash);

	-- At most one parsed page per source, fully regenerated when the
	-- source content hash changes.
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL UNIQUE REFERENCES sources(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		full_text TEXT NOT NULL DEFAULT '',
		content_html TEXT NOT NULL DEFAULT '',
		page_updated_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_slug ON pages(slug);

	CREATE TABLE IF NOT EXISTS visa_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT '',
		audience TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_visa_types_page ON visa_types(page_id);
	CREATE INDEX IF NOT EXISTS idx_visa_types_category ON visa_types(category);

	-- Sub-records owned by a visa type; deleting the visa type
	-- cascades to all of them.
	CREATE TABLE IF NOT EXISTS eligibility_criteria (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		visa_type_id INTEGER NOT NULL REFERENCES visa_types(id) ON DELETE CASCADE,
		text TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS required_documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		visa_type_id INTEGER NOT NULL REFERENCES visa_types(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS fees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		visa_type_id INTEGER NOT NULL REFERENCES visa_types(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		amount REAL,
		currency TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		CHECK (amount IS NULL OR amount >= 0)
	);

	CREATE TABLE IF NOT EXISTS processing_times (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		visa_type_id INTEGER NOT NULL REFERENCES visa_types(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		min_days INTEGER NOT NULL,
		max_days INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		visa_type_id INTEGER NOT NULL REFERENCES visa_types(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		title TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS external_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		visa_type_id INTEGER NOT NULL REFERENCES visa_types(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		url TEXT NOT NULL
	);

	-- Append-only change log. Rows are inserted exactly once per
	-- detected content change and never updated or deleted.
	CREATE TABLE IF NOT EXISTS changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		added_lines INTEGER NOT NULL,
		removed_lines INTEGER NOT NULL,
		preview_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_changes_page ON changes(page_id);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// execQuerier is the statement-execution subset shared by *sql.DB and
// *sql.Tx, letting the write helpers run standalone or inside a
// transaction.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetSourceByURL retrieves a source by its normalized URL. Returns
// (nil, nil) when no source exists for the URL.
func (s *Store) GetSourceByURL(ctx context.Context, url string) (*model.Source, error) {
	query := `
	SELECT id, url, url_hash, content_hash, first_seen_at, last_fetched_at, status_code, etag, raw_html
	FROM sources
	WHERE url = ?
	`

	var src model.Source
	var firstSeen, lastFetched string
	err := s.db.QueryRowContext(ctx, query, url).Scan(
		&src.ID,
		&src.URL,
		&src.URLHash,
		&src.ContentHash,
		&firstSeen,
		&lastFetched,
		&src.StatusCode,
		&src.ETag,
		&src.RawHTML,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	src.FirstSeenAt = parseTimestamp(firstSeen)
	src.LastFetchedAt = parseTimestamp(lastFetched)
	return &src, nil
}

// InsertSource creates a new source row and fills src.ID.
func (s *Store) InsertSource(ctx context.Context, src *model.Source) error {
	query := `
	INSERT INTO sources (url, url_hash, content_hash, first_seen_at, last_fetched_at, status_code, etag, raw_html)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		src.URL,
		src.URLHash,
		src.ContentHash,
		formatTimestamp(src.FirstSeenAt),
		formatTimestamp(src.LastFetchedAt),
		src.StatusCode,
		src.ETag,
		src.RawHTML,
	)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}

	src.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read source id: %w", err)
	}
	return nil
}

// UpdateSourceContent updates a source's content and fetch metadata
// after its bytes changed.
func (s *Store) UpdateSourceContent(ctx context.Context, src *model.Source) error {
	return updateSourceContent(ctx, s.db, src)
}

func updateSourceContent(ctx context.Context, q execQuerier, src *model.Source) error {
	query := `
	UPDATE sources
	SET content_hash = ?, last_fetched_at = ?, status_code = ?, etag = ?, raw_html = ?
	WHERE id = ?
	`

	_, err := q.ExecContext(ctx, query,
		src.ContentHash,
		formatTimestamp(src.LastFetchedAt),
		src.StatusCode,
		src.ETag,
		src.RawHTML,
		src.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	return nil
}

// TouchSource updates only a source's fetch metadata. Used when a
// refetch produced identical content: the page and its records stay
// untouched.
func (s *Store) TouchSource(ctx context.Context, id int64, statusCode int, etag string, fetchedAt time.Time) error {
	query := `
	UPDATE sources
	SET last_fetched_at = ?, status_code = ?, etag = ?
	WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query, formatTimestamp(fetchedAt), statusCode, etag, id)
	if err != nil {
		return fmt.Errorf("failed to touch source: %w", err)
	}
	return nil
}

// GetPageBySource retrieves the page derived from a source. Returns
// (nil, nil) when the source has no page yet.
func (s *Store) GetPageBySource(ctx context.Context, sourceID int64) (*model.Page, error) {
	query := `
	SELECT id, source_id, title, slug, summary, full_text, content_html, page_updated_at, created_at, updated_at
	FROM pages
	WHERE source_id = ?
	`

	var p model.Page
	var pageUpdated sql.NullString
	var created, updated string
	err := s.db.QueryRowContext(ctx, query, sourceID).Scan(
		&p.ID,
		&p.SourceID,
		&p.Title,
		&p.Slug,
		&p.Summary,
		&p.FullText,
		&p.ContentHTML,
		&pageUpdated,
		&created,
		&updated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	if pageUpdated.Valid && pageUpdated.String != "" {
		ts := parseTimestamp(pageUpdated.String)
		p.PageUpdatedAt = &ts
	}
	p.CreatedAt = parseTimestamp(created)
	p.UpdatedAt = parseTimestamp(updated)
	return &p, nil
}

// SavePage inserts or fully replaces the page for its source and fills
// page.ID. A page is regenerated, never patched: on conflict every
// derived column is overwritten.
func (s *Store) SavePage(ctx context.Context, page *model.Page) error {
	return savePage(ctx, s.db, page)
}

func savePage(ctx context.Context, q execQuerier, page *model.Page) error {
	var pageUpdated any
	if page.PageUpdatedAt != nil {
		pageUpdated = formatTimestamp(*page.PageUpdatedAt)
	}

	query := `
	INSERT INTO pages (source_id, title, slug, summary, full_text, content_html, page_updated_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_id) DO UPDATE SET
		title = excluded.title,
		slug = excluded.slug,
		summary = excluded.summary,
		full_text = excluded.full_text,
		content_html = excluded.content_html,
		page_updated_at = excluded.page_updated_at,
		updated_at = excluded.updated_at
	RETURNING id
	`

	now := formatTimestamp(time.Now())
	err := q.QueryRowContext(ctx, query,
		page.SourceID,
		page.Title,
		page.Slug,
		page.Summary,
		page.FullText,
		page.ContentHTML,
		pageUpdated,
		now,
		now,
	).Scan(&page.ID)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

// ReplaceVisaTypes deletes all visa types of a page and recreates them
// from the given drafts within a single transaction, so a reader never
// observes the page with its records half-written. Owned sub-records
// are removed by the delete cascade and re-inserted with their parent.
func (s *Store) ReplaceVisaTypes(ctx context.Context, pageID int64, types []model.VisaType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := replaceVisaTypes(ctx, tx, pageID, types); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit visa types: %w", err)
	}
	return nil
}

func replaceVisaTypes(ctx context.Context, tx *sql.Tx, pageID int64, types []model.VisaType) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM visa_types WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("failed to delete visa types: %w", err)
	}

	for i := range types {
		vt := &types[i]
		vt.PageID = pageID
		result, err := tx.ExecContext(ctx,
			`INSERT INTO visa_types (page_id, name, category, purpose, audience, active) VALUES (?, ?, ?, ?, ?, ?)`,
			vt.PageID, vt.Name, vt.Category.String(), vt.Purpose, vt.Audience, vt.Active,
		)
		if err != nil {
			return fmt.Errorf("failed to insert visa type: %w", err)
		}
		vt.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read visa type id: %w", err)
		}

		if err := insertChildren(ctx, tx, vt); err != nil {
			return err
		}
	}
	return nil
}

// insertChildren inserts a visa type's owned sub-records.
func insertChildren(ctx context.Context, tx *sql.Tx, vt *model.VisaType) error {
	for _, c := range vt.Eligibility {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO eligibility_criteria (visa_type_id, text) VALUES (?, ?)`,
			vt.ID, c.Text,
		); err != nil {
			return fmt.Errorf("failed to insert eligibility criterion: %w", err)
		}
	}
	for _, d := range vt.Documents {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO required_documents (visa_type_id, name, notes) VALUES (?, ?, ?)`,
			vt.ID, d.Name, d.Notes,
		); err != nil {
			return fmt.Errorf("failed to insert required document: %w", err)
		}
	}
	for _, f := range vt.Fees {
		var amount any
		if f.Amount != nil {
			amount = *f.Amount
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fees (visa_type_id, name, amount, currency, notes) VALUES (?, ?, ?, ?, ?)`,
			vt.ID, f.Name, amount, f.Currency, f.Notes,
		); err != nil {
			return fmt.Errorf("failed to insert fee: %w", err)
		}
	}
	for _, pt := range vt.ProcessingTimes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processing_times (visa_type_id, label, min_days, max_days, notes) VALUES (?, ?, ?, ?, ?)`,
			vt.ID, pt.Label, pt.MinDays, pt.MaxDays, pt.Notes,
		); err != nil {
			return fmt.Errorf("failed to insert processing time: %w", err)
		}
	}
	for _, st := range vt.Steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO steps (visa_type_id, seq, title, detail) VALUES (?, ?, ?, ?)`,
			vt.ID, st.Seq, st.Title, st.Detail,
		); err != nil {
			return fmt.Errorf("failed to insert step: %w", err)
		}
	}
	for _, l := range vt.Links {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO external_links (visa_type_id, title, url) VALUES (?, ?, ?)`,
			vt.ID, l.Title, l.URL,
		); err != nil {
			return fmt.Errorf("failed to insert external link: %w", err)
		}
	}
	return nil
}

// GetVisaTypes retrieves a page's visa types with all owned
// sub-records loaded.
func (s *Store) GetVisaTypes(ctx context.Context, pageID int64) ([]model.VisaType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, page_id, name, category, purpose, audience, active FROM visa_types WHERE page_id = ? ORDER BY id`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query visa types: %w", err)
	}
	defer rows.Close()

	var types []model.VisaType
	for rows.Next() {
		var vt model.VisaType
		var category string
		if err := rows.Scan(&vt.ID, &vt.PageID, &vt.Name, &category, &vt.Purpose, &vt.Audience, &vt.Active); err != nil {
			return nil, fmt.Errorf("failed to scan visa type: %w", err)
		}
		vt.Category = model.Category(category)
		types = append(types, vt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range types {
		if err := s.loadChildren(ctx, &types[i]); err != nil {
			return nil, err
		}
	}
	return types, nil
}

// loadChildren loads a visa type's owned sub-records.
func (s *Store) loadChildren(ctx context.Context, vt *model.VisaType) error {
	rows, err := s.db.QueryContext(ctx, `SELECT text FROM eligibility_criteria WHERE visa_type_id = ? ORDER BY id`, vt.ID)
	if err != nil {
		return fmt.Errorf("failed to query eligibility: %w", err)
	}
	for rows.Next() {
		var c model.EligibilityCriterion
		if err := rows.Scan(&c.Text); err != nil {
			rows.Close()
			return err
		}
		vt.Eligibility = append(vt.Eligibility, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT name, notes FROM required_documents WHERE visa_type_id = ? ORDER BY id`, vt.ID)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}
	for rows.Next() {
		var d model.RequiredDocument
		if err := rows.Scan(&d.Name, &d.Notes); err != nil {
			rows.Close()
			return err
		}
		vt.Documents = append(vt.Documents, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT name, amount, currency, notes FROM fees WHERE visa_type_id = ? ORDER BY id`, vt.ID)
	if err != nil {
		return fmt.Errorf("failed to query fees: %w", err)
	}
	for rows.Next() {
		var f model.Fee
		var amount sql.NullFloat64
		if err := rows.Scan(&f.Name, &amount, &f.Currency, &f.Notes); err != nil {
			rows.Close()
			return err
		}
		if amount.Valid {
			a := amount.Float64
			f.Amount = &a
		}
		vt.Fees = append(vt.Fees, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT label, min_days, max_days, notes FROM processing_times WHERE visa_type_id = ? ORDER BY id`, vt.ID)
	if err != nil {
		return fmt.Errorf("failed to query processing times: %w", err)
	}
	for rows.Next() {
		var pt model.ProcessingTime
		if err := rows.Scan(&pt.Label, &pt.MinDays, &pt.MaxDays, &pt.Notes); err != nil {
			rows.Close()
			return err
		}
		vt.ProcessingTimes = append(vt.ProcessingTimes, pt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT seq, title, detail FROM steps WHERE visa_type_id = ? ORDER BY seq`, vt.ID)
	if err != nil {
		return fmt.Errorf("failed to query steps: %w", err)
	}
	for rows.Next() {
		var st model.Step
		if err := rows.Scan(&st.Seq, &st.Title, &st.Detail); err != nil {
			rows.Close()
			return err
		}
		vt.Steps = append(vt.Steps, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT title, url FROM external_links WHERE visa_type_id = ? ORDER BY id`, vt.ID)
	if err != nil {
		return fmt.Errorf("failed to query external links: %w", err)
	}
	for rows.Next() {
		var l model.ExternalLink
		if err := rows.Scan(&l.Title, &l.URL); err != nil {
			rows.Close()
			return err
		}
		vt.Links = append(vt.Links, l)
	}
	rows.Close()
	return rows.Err()
}

// InsertChange appends a change record and fills change.ID. Change
// rows are never updated or deleted.
func (s *Store) InsertChange(ctx context.Context, change *model.Change) error {
	return insertChange(ctx, s.db, change)
}

func insertChange(ctx context.Context, q execQuerier, change *model.Change) error {
	previewJSON, err := json.Marshal(change.Preview)
	if err != nil {
		return fmt.Errorf("failed to serialize preview: %w", err)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO changes (page_id, created_at, added_lines, removed_lines, preview_json) VALUES (?, ?, ?, ?, ?)`,
		change.PageID,
		formatTimestamp(change.CreatedAt),
		change.AddedLines,
		change.RemovedLines,
		string(previewJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert change: %w", err)
	}

	change.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read change id: %w", err)
	}
	return nil
}

// ApplyContentChange persists everything a changed source implies in
// one transaction: the source's new content hash and fetch metadata,
// the regenerated page, the appended change record (nil when there is
// no prior text to diff against) and the rebuilt visa types. The
// change is written before the visa types are recreated, and the
// transaction guarantees the new hash never lands without its change
// record: on any failure nothing moves and the next crawl re-detects
// the change.
func (s *Store) ApplyContentChange(ctx context.Context, src *model.Source, page *model.Page, types []model.VisaType, change *model.Change) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := updateSourceContent(ctx, tx, src); err != nil {
		return err
	}
	if err := savePage(ctx, tx, page); err != nil {
		return err
	}
	if change != nil {
		change.PageID = page.ID
		if err := insertChange(ctx, tx, change); err != nil {
			return err
		}
	}
	if err := replaceVisaTypes(ctx, tx, page.ID, types); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit content change: %w", err)
	}
	return nil
}

// ListChanges retrieves a page's change history, most recent first.
func (s *Store) ListChanges(ctx context.Context, pageID int64) ([]model.Change, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, page_id, created_at, added_lines, removed_lines, preview_json FROM changes WHERE page_id = ? ORDER BY id DESC`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var changes []model.Change
	for rows.Next() {
		var c model.Change
		var created, previewJSON string
		if err := rows.Scan(&c.ID, &c.PageID, &created, &c.AddedLines, &c.RemovedLines, &previewJSON); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		c.CreatedAt = parseTimestamp(created)
		if previewJSON != "" {
			if err := json.Unmarshal([]byte(previewJSON), &c.Preview); err != nil {
				return nil, fmt.Errorf("failed to parse preview: %w", err)
			}
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Stats summarizes store contents for operational visibility.
type Stats struct {
	// Sources, Pages, VisaTypes and Changes are total row counts.
	Sources   int
	Pages     int
	VisaTypes int
	Changes   int

	// LastFetchedAt is the most recent fetch timestamp across all
	// sources, zero when the store is empty.
	LastFetchedAt time.Time
}

// GetStats reports total entity counts and the most recent fetch time.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM sources`, &stats.Sources},
		{`SELECT COUNT(*) FROM pages`, &stats.Pages},
		{`SELECT COUNT(*) FROM visa_types`, &stats.VisaTypes},
		{`SELECT COUNT(*) FROM changes`, &stats.Changes},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(last_fetched_at) FROM sources`).Scan(&last); err != nil {
		return nil, fmt.Errorf("failed to get last fetch time: %w", err)
	}
	if last.Valid {
		stats.LastFetchedAt = parseTimestamp(last.String)
	}

	return stats, nil
}

// formatTimestamp serializes a time for storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats are the formats timestamps may come back in,
// depending on how rows were written. More specific formats first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a stored timestamp, returning zero time when no
// format matches rather than failing the whole read.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
