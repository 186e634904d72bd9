// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists sessions, topic evaluations, and their sample
// literature records in a local SQLite database. Evaluations keep a
// reference to the session they were produced in, and every stored record
// is indexed for full-text search over title and abstract.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thesismate/topic-scout/pkg/types"
)

const dbFile = "topics.db"

// Store wraps the SQLite database holding all persisted state.
type Store struct {
	db         *sql.DB
	maxResults int
}

// SessionInfo is a summary row for listing stored sessions.
type SessionInfo struct {
	ID        string    `json:"id"`
	Field     string    `json:"field,omitempty"`
	Stage     string    `json:"stage"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStore opens (creating if necessary) the database under cfg.DataDir.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			field TEXT,
			interests TEXT,
			stage TEXT NOT NULL,
			proposed_topics TEXT,
			history TEXT,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			topic TEXT NOT NULL,
			paper_count INTEGER NOT NULL,
			feasibility REAL NOT NULL,
			confidence REAL NOT NULL,
			source_errors TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_session ON evaluations(session_id)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			evaluation_id INTEGER NOT NULL REFERENCES evaluations(rowid),
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			year INTEGER,
			source_url TEXT,
			source_id TEXT,
			source TEXT,
			citation_text TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_evaluation ON records(evaluation_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return s.createFTSIndex()
}

// createFTSIndex builds the full-text index over record titles and
// abstracts, plus triggers that keep it in sync with the records table.
func (s *Store) createFTSIndex() error {
	var count int
	err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if count > 0 {
		return nil
	}

	statements := []string{
		`CREATE VIRTUAL TABLE records_fts USING fts5(title, abstract, content=records, content_rowid=rowid)`,
		`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
			INSERT INTO records_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
		`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
			INSERT INTO records_fts(records_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
		END`,
		`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
			INSERT INTO records_fts(records_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			INSERT INTO records_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS index: %w", err)
		}
	}
	return nil
}

// SaveContext upserts the conversation context for a session.
func (s *Store) SaveContext(ctx context.Context, sessionID string, conv types.ConversationContext) error {
	interests, err := json.Marshal(conv.Interests)
	if err != nil {
		return fmt.Errorf("marshaling interests: %w", err)
	}
	topics, err := json.Marshal(conv.ProposedTopics)
	if err != nil {
		return fmt.Errorf("marshaling proposed topics: %w", err)
	}
	history, err := json.Marshal(conv.History)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, field, interests, stage, proposed_topics, history, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			field=excluded.field,
			interests=excluded.interests,
			stage=excluded.stage,
			proposed_topics=excluded.proposed_topics,
			history=excluded.history,
			updated_at=excluded.updated_at`,
		sessionID, conv.Field, string(interests), string(conv.Stage),
		string(topics), string(history), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sessionID, err)
	}
	return nil
}

// LoadContext returns the stored conversation context for a session.
func (s *Store) LoadContext(ctx context.Context, sessionID string) (types.ConversationContext, error) {
	var (
		conv      types.ConversationContext
		field     sql.NullString
		interests sql.NullString
		stage     string
		topics    sql.NullString
		history   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT field, interests, stage, proposed_topics, history
		FROM sessions WHERE id = ?`, sessionID,
	).Scan(&field, &interests, &stage, &topics, &history)
	if err == sql.ErrNoRows {
		return conv, fmt.Errorf("session %s not found", sessionID)
	}
	if err != nil {
		return conv, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	conv.Field = field.String
	conv.Stage = types.Stage(stage)
	if err := unmarshalList(interests, &conv.Interests); err != nil {
		return conv, fmt.Errorf("decoding interests: %w", err)
	}
	if err := unmarshalList(topics, &conv.ProposedTopics); err != nil {
		return conv, fmt.Errorf("decoding proposed topics: %w", err)
	}
	if err := unmarshalList(history, &conv.History); err != nil {
		return conv, fmt.Errorf("decoding history: %w", err)
	}
	return conv, nil
}

// ListSessions returns summaries of all stored sessions, most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, field, stage, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		var (
			info    SessionInfo
			field   sql.NullString
			updated string
		)
		if err := rows.Scan(&info.ID, &field, &info.Stage, &updated); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		info.Field = field.String
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			info.UpdatedAt = t
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// SaveEvaluation stores an evaluation and its sample records under a
// session. A placeholder session row is created when the session has no
// saved context yet, so one-shot evaluations remain exportable.
func (s *Store) SaveEvaluation(ctx context.Context, sessionID string, ev types.TopicEvaluation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO sessions (id, interests, stage, proposed_topics, history, updated_at)
		VALUES (?, '[]', ?, '[]', '[]', ?)`,
		sessionID, string(types.StageAwaitingField), now,
	)
	if err != nil {
		return fmt.Errorf("ensuring session row: %w", err)
	}

	sourceErrors, err := json.Marshal(ev.SourceErrors)
	if err != nil {
		return fmt.Errorf("marshaling source errors: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO evaluations (session_id, topic, paper_count, feasibility, confidence, source_errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, ev.Topic, ev.PaperCount, ev.FeasibilityScore, ev.Confidence,
		string(sourceErrors), now,
	)
	if err != nil {
		return fmt.Errorf("saving evaluation: %w", err)
	}
	evalID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading evaluation id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (evaluation_id, title, authors, abstract, year, source_url, source_id, source, citation_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range ev.SampleRecords {
		authors, err := json.Marshal(r.Authors)
		if err != nil {
			return fmt.Errorf("marshaling authors: %w", err)
		}
		_, err = stmt.ExecContext(ctx, evalID, r.Title, string(authors), r.Abstract,
			r.Year, r.SourceURL, r.SourceID, r.Source, r.CitationText)
		if err != nil {
			return fmt.Errorf("saving record %q: %w", r.Title, err)
		}
	}

	return tx.Commit()
}

// Evaluations returns all stored evaluations for a session in the order
// they were saved, each with its sample records reattached.
func (s *Store) Evaluations(ctx context.Context, sessionID string) ([]types.TopicEvaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, topic, paper_count, feasibility, confidence, source_errors
		FROM evaluations WHERE session_id = ? ORDER BY rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying evaluations: %w", err)
	}
	defer rows.Close()

	var (
		evals []types.TopicEvaluation
		ids   []int64
	)
	for rows.Next() {
		var (
			id           int64
			ev           types.TopicEvaluation
			sourceErrors sql.NullString
		)
		err := rows.Scan(&id, &ev.Topic, &ev.PaperCount, &ev.FeasibilityScore,
			&ev.Confidence, &sourceErrors)
		if err != nil {
			return nil, fmt.Errorf("scanning evaluation row: %w", err)
		}
		if err := unmarshalList(sourceErrors, &ev.SourceErrors); err != nil {
			return nil, fmt.Errorf("decoding source errors: %w", err)
		}
		evals = append(evals, ev)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		records, err := s.recordsForEvaluation(ctx, id)
		if err != nil {
			return nil, err
		}
		evals[i].SampleRecords = records
	}
	return evals, nil
}

func (s *Store) recordsForEvaluation(ctx context.Context, evalID int64) ([]types.LiteratureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, authors, abstract, year, source_url, source_id, source, citation_text
		FROM records WHERE evaluation_id = ? ORDER BY rowid`, evalID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// SearchRecords runs a full-text query over stored record titles and
// abstracts. A limit of zero or less falls back to the store default.
// The same paper saved under several evaluations is reported once.
func (s *Store) SearchRecords(ctx context.Context, query string, limit int) ([]types.LiteratureRecord, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.title, r.authors, r.abstract, r.year, r.source_url, r.source_id, r.source, r.citation_text
		FROM records_fts
		JOIN records r ON r.rowid = records_fts.rowid
		WHERE records_fts MATCH ?
		ORDER BY records_fts.rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	return dedupeRecords(records), nil
}

// recordsForSession returns every sample record saved under a session,
// in evaluation order.
func (s *Store) recordsForSession(ctx context.Context, sessionID string) ([]types.LiteratureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.title, r.authors, r.abstract, r.year, r.source_url, r.source_id, r.source, r.citation_text
		FROM records r
		JOIN evaluations e ON r.evaluation_id = e.rowid
		WHERE e.session_id = ?
		ORDER BY e.rowid, r.rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]types.LiteratureRecord, error) {
	var records []types.LiteratureRecord
	for rows.Next() {
		var (
			r         types.LiteratureRecord
			authors   sql.NullString
			abstract  sql.NullString
			year      sql.NullInt64
			sourceURL sql.NullString
			sourceID  sql.NullString
			source    sql.NullString
			citation  sql.NullString
		)
		err := rows.Scan(&r.Title, &authors, &abstract, &year,
			&sourceURL, &sourceID, &source, &citation)
		if err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		if err := unmarshalList(authors, &r.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
		r.Abstract = abstract.String
		r.Year = int(year.Int64)
		r.SourceURL = sourceURL.String
		r.SourceID = sourceID.String
		r.Source = source.String
		r.CitationText = citation.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// dedupeRecords drops later copies of the same paper, keyed by source URL
// when present and lowercased title otherwise.
func dedupeRecords(records []types.LiteratureRecord) []types.LiteratureRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for _, r := range records {
		key := r.SourceURL
		if key == "" {
			key = "title:" + normalizeTitle(r.Title)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

func unmarshalList(col sql.NullString, dst *[]string) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}
