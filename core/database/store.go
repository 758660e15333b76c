package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/pagerbot/core/docs"
	"github.com/m3rciful/pagerbot/core/logger"
	"github.com/m3rciful/pagerbot/core/paginator"
)

// Store keeps documents and the pagination session journal in Postgres.
type Store struct {
	db       *sqlx.DB
	platform string
}

var (
	_ docs.Source       = (*Store)(nil)
	_ docs.Writer       = (*Store)(nil)
	_ paginator.Journal = (*Store)(nil)
)

// NewStore wraps db. platform is recorded with every journaled session.
func NewStore(db *sqlx.DB, platform string) *Store {
	return &Store{db: db, platform: platform}
}

const (
	deleteRespelledSQL = `DELETE FROM documents WHERE lower(name) = lower($1) AND name <> $1`
	upsertDocumentSQL  = `
		INSERT INTO documents (name, title, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET title = EXCLUDED.title, updated_at = now()`
)

type documentRow struct {
	Name  string `db:"name"`
	Title string `db:"title"`
}

type pageRow struct {
	Document string         `db:"document"`
	Position int            `db:"position"`
	Embed    []byte         `db:"embed"`
	FileName sql.NullString `db:"file_name"`
	FileType sql.NullString `db:"file_type"`
	FileData []byte         `db:"file_data"`
}

// Names lists stored document names.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM documents ORDER BY name`); err != nil {
		return nil, fmt.Errorf("select document names: %w", err)
	}
	return names, nil
}

// Document loads a document and its pages. Names match case-insensitively.
func (s *Store) Document(ctx context.Context, name string) (*docs.Document, error) {
	var head documentRow
	err := s.db.GetContext(ctx, &head,
		`SELECT name, title FROM documents WHERE lower(name) = lower($1)`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", docs.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("select document %q: %w", name, err)
	}

	var rows []pageRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT document, position, embed, file_name, file_type, file_data
		FROM document_pages
		WHERE document = $1
		ORDER BY position`, head.Name)
	if err != nil {
		return nil, fmt.Errorf("select pages of %q: %w", head.Name, err)
	}
	return documentFromRows(head, rows)
}

// SaveDocument replaces the stored document with doc in one transaction.
func (s *Store) SaveDocument(ctx context.Context, doc *docs.Document) (err error) {
	if err := doc.Validate(); err != nil {
		return err
	}
	rows, err := rowsFromDocument(doc)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Names are unique case-insensitively; a renamed spelling replaces the old row.
	if _, err = tx.ExecContext(ctx, deleteRespelledSQL, doc.Name); err != nil {
		return fmt.Errorf("replace document %q: %w", doc.Name, err)
	}
	if _, err = tx.ExecContext(ctx, upsertDocumentSQL, doc.Name, doc.Title); err != nil {
		return fmt.Errorf("upsert document %q: %w", doc.Name, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM document_pages WHERE document = $1`, doc.Name); err != nil {
		return fmt.Errorf("clear pages of %q: %w", doc.Name, err)
	}
	for _, r := range rows {
		if _, err = tx.NamedExecContext(ctx, `
			INSERT INTO document_pages (document, position, embed, file_name, file_type, file_data)
			VALUES (:document, :position, :embed, :file_name, :file_type, :file_data)`, r); err != nil {
			return fmt.Errorf("insert page %d of %q: %w", r.Position, doc.Name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.LogEvent(ctx, logger.DB, slog.LevelDebug, "document.saved",
		slog.String("document", doc.Name),
		slog.Int("pages", len(rows)),
	)
	return nil
}

// SessionStarted records a new pagination session.
func (s *Store) SessionStarted(ctx context.Context, info paginator.SessionInfo) error {
	id, err := uuid.Parse(info.ID)
	if err != nil {
		return fmt.Errorf("session id %q: %w", info.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pager_sessions (id, platform, document, owner_id, channel_id, message_id, pages, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, s.platform, info.Label, info.Owner,
		info.Message.ChannelID, info.Message.MessageID, info.Pages, info.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionEnded closes the journal entry of a session.
func (s *Store) SessionEnded(ctx context.Context, id string, reason paginator.StopReason, page int) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("session id %q: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE pager_sessions
		SET ended_at = $2, end_reason = $3, last_page = $4
		WHERE id = $1 AND ended_at IS NULL`,
		sid, time.Now().UTC(), reason.String(), page)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not journaled or already ended", id)
	}
	return nil
}

// SessionStats summarizes journaled sessions by end reason; open sessions use "open".
func (s *Store) SessionStats(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Reason string `db:"reason"`
		Count  int    `db:"count"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT COALESCE(end_reason, 'open') AS reason, count(*) AS count
		FROM pager_sessions
		WHERE platform = $1
		GROUP BY 1`, s.platform)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Reason] = r.Count
	}
	return out, nil
}

func rowsFromDocument(doc *docs.Document) ([]pageRow, error) {
	rows := make([]pageRow, len(doc.Pages))
	for i, p := range doc.Pages {
		embed, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode page %d of %q: %w", i+1, doc.Name, err)
		}
		rows[i] = pageRow{Document: doc.Name, Position: i, Embed: embed}
		if i < len(doc.Files) && doc.Files[i] != nil {
			f := doc.Files[i]
			rows[i].FileName = sql.NullString{String: f.Name, Valid: true}
			rows[i].FileType = sql.NullString{String: f.ContentType, Valid: f.ContentType != ""}
			rows[i].FileData = f.Data
		}
	}
	return rows, nil
}

func documentFromRows(head documentRow, rows []pageRow) (*docs.Document, error) {
	doc := &docs.Document{
		Name:  head.Name,
		Title: head.Title,
		Pages: make([]*paginator.Embed, len(rows)),
	}
	for i, r := range rows {
		var e paginator.Embed
		if err := json.Unmarshal(r.Embed, &e); err != nil {
			return nil, fmt.Errorf("decode page %d of %q: %w", r.Position, head.Name, err)
		}
		doc.Pages[i] = &e
		if !r.FileName.Valid {
			continue
		}
		if doc.Files == nil {
			doc.Files = make([]*paginator.File, len(rows))
		}
		doc.Files[i] = &paginator.File{
			Name:        r.FileName.String,
			ContentType: r.FileType.String,
			Data:        r.FileData,
		}
	}
	return doc, nil
}
