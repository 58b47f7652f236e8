package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/kanstart/internal/app"
	"github.com/evanschultz/kanstart/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores onboarding boards in sqlite.
type Repository struct {
	db *sql.DB
}

// Open opens the database at path, creating its directory and schema.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Each pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the schema.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 1000;`,
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			template TEXT NOT NULL,
			background TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS lists (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			list_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE,
			FOREIGN KEY(list_id) REFERENCES lists(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lists_board_position ON lists(board_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_list_position ON cards(list_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_boards_created_at ON boards(created_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateBoardTree inserts a board with its lists and cards in one transaction.
func (r *Repository) CreateBoardTree(ctx context.Context, tree domain.BoardTree) (err error) {
	if err := tree.Validate(); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b := tree.Board
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO boards(id, slug, name, template, background, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Slug, b.Name, b.Template, b.Background, ts(b.CreatedAt), ts(b.UpdatedAt), nullableTS(b.ArchivedAt)); err != nil {
		return classify(fmt.Errorf("insert board: %w", err))
	}
	for _, lt := range tree.Lists {
		l := lt.List
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO lists(id, board_id, name, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, l.ID, l.BoardID, l.Name, l.Position, ts(l.CreatedAt), ts(l.UpdatedAt)); err != nil {
			return classify(fmt.Errorf("insert list: %w", err))
		}
		for _, c := range lt.Cards {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO cards(id, board_id, list_id, position, title, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, c.ID, c.BoardID, c.ListID, c.Position, c.Title, ts(c.CreatedAt), ts(c.UpdatedAt)); err != nil {
				return classify(fmt.Errorf("insert card: %w", err))
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit board: %w", err))
	}
	return nil
}

// ListBoards lists boards newest first.
func (r *Repository) ListBoards(ctx context.Context, includeArchived bool) ([]domain.Board, error) {
	query := `
		SELECT id, slug, name, template, background, created_at, updated_at, archived_at
		FROM boards
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]domain.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBoardTree loads a board with its ordered lists and cards.
func (r *Repository) GetBoardTree(ctx context.Context, id string) (domain.BoardTree, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, template, background, created_at, updated_at, archived_at
		FROM boards
		WHERE id = ?
	`, id)
	b, err := scanBoard(row)
	if err != nil {
		return domain.BoardTree{}, err
	}
	tree := domain.BoardTree{Board: b}

	lists, err := r.listsForBoard(ctx, b.ID)
	if err != nil {
		return domain.BoardTree{}, err
	}
	cards, err := r.cardsForBoard(ctx, b.ID)
	if err != nil {
		return domain.BoardTree{}, err
	}
	for _, l := range lists {
		tree.Lists = append(tree.Lists, domain.ListTree{List: l, Cards: cards[l.ID]})
	}
	return tree, nil
}

// listsForBoard returns a board's lists in position order.
func (r *Repository) listsForBoard(ctx context.Context, boardID string) ([]domain.List, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, name, position, created_at, updated_at
		FROM lists
		WHERE board_id = ?
		ORDER BY position ASC
	`, boardID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []domain.List
	for rows.Next() {
		var (
			l                      domain.List
			createdRaw, updatedRaw string
		)
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.Position, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		l.CreatedAt = parseTS(createdRaw)
		l.UpdatedAt = parseTS(updatedRaw)
		out = append(out, l)
	}
	return out, rows.Err()
}

// cardsForBoard returns a board's cards grouped by list in position order.
func (r *Repository) cardsForBoard(ctx context.Context, boardID string) (map[string][]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, list_id, position, title, created_at, updated_at
		FROM cards
		WHERE board_id = ?
		ORDER BY list_id ASC, position ASC
	`, boardID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := map[string][]domain.Card{}
	for rows.Next() {
		var (
			c                      domain.Card
			createdRaw, updatedRaw string
		)
		if err := rows.Scan(&c.ID, &c.BoardID, &c.ListID, &c.Position, &c.Title, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTS(createdRaw)
		c.UpdatedAt = parseTS(updatedRaw)
		out[c.ListID] = append(out[c.ListID], c)
	}
	return out, rows.Err()
}

// scanner is satisfied by sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanBoard scans one boards row.
func scanBoard(s scanner) (domain.Board, error) {
	var (
		b          domain.Board
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(&b.ID, &b.Slug, &b.Name, &b.Template, &b.Background, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, app.ErrNotFound
		}
		return domain.Board{}, err
	}
	b.CreatedAt = parseTS(createdRaw)
	b.UpdatedAt = parseTS(updatedRaw)
	b.ArchivedAt = parseNullTS(archived)
	return b, nil
}

// classify marks lock contention as transient so callers can retry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isBusyErr(err) {
		return fmt.Errorf("%w: %w", app.ErrTransient, err)
	}
	return err
}

// isBusyErr reports whether err comes from sqlite lock contention.
func isBusyErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked")
}

// ts formats a timestamp for storage.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
