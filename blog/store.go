package blog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/eringen/inkpost/richtext"
)

// timeLayout is fixed-width so text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store wraps the relational database holding posts and profiles. It runs
// on SQLite (default) or PostgreSQL; queries are written with ? placeholders
// and rebound for the active driver.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens (or creates) the database and runs schema migrations.
// driver is "sqlite" or "postgres"; for SQLite dsn is a file path.
func NewStore(driver, dsn string) (*Store, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		driver = "sqlite"
	case "postgres", "postgresql", "pgx":
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// WAL lets readers run alongside the writer; the busy timeout makes
		// writers wait instead of failing with SQLITE_BUSY.
		if _, err := db.Exec(`
			PRAGMA journal_mode=WAL;
			PRAGMA busy_timeout=5000;
			PRAGMA synchronous=NORMAL;
			PRAGMA foreign_keys=ON;
		`); err != nil {
			db.Close()
			return nil, err
		}
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT,
    body TEXT,
    image TEXT,
    status TEXT NOT NULL DEFAULT 'draft',
    read_time INTEGER NOT NULL DEFAULT 0,
    slug TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS posts_user_updated ON posts (user_id, updated_at)`,
		`CREATE INDEX IF NOT EXISTS posts_status_created ON posts (status, created_at)`,
		`
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    display_name TEXT,
    avatar_url TEXT,
    updated_at TEXT NOT NULL
)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

type postRow struct {
	ID           string         `db:"id"`
	UserID       string         `db:"user_id"`
	Title        string         `db:"title"`
	Summary      sql.NullString `db:"summary"`
	Body         sql.NullString `db:"body"`
	Image        sql.NullString `db:"image"`
	Status       string         `db:"status"`
	ReadTime     int            `db:"read_time"`
	Slug         string         `db:"slug"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    string         `db:"updated_at"`
	AuthorName   sql.NullString `db:"author_name"`
	AuthorAvatar sql.NullString `db:"author_avatar"`
}

func postColumns(prefix string) string {
	cols := []string{"id", "user_id", "title", "summary", "body", "image", "status", "read_time", "slug", "created_at", "updated_at"}
	for i, c := range cols {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

func (r postRow) post() (Post, error) {
	var body *richtext.Node
	if r.Body.Valid {
		var err error
		body, err = richtext.Parse([]byte(r.Body.String))
		if err != nil {
			return Post{}, fmt.Errorf("post %s: %w", r.ID, err)
		}
	}
	p := Post{
		ID:        r.ID,
		OwnerID:   r.UserID,
		Title:     r.Title,
		Summary:   r.Summary.String,
		Body:      body,
		Image:     r.Image.String,
		Status:    Status(r.Status),
		ReadTime:  r.ReadTime,
		Slug:      r.Slug,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
	if r.AuthorName.Valid || r.AuthorAvatar.Valid {
		p.Author = &Profile{ID: r.UserID, DisplayName: r.AuthorName.String, AvatarURL: r.AuthorAvatar.String}
	}
	return p, nil
}

func rowsToPosts(rows []postRow) ([]Post, error) {
	posts := make([]Post, 0, len(rows))
	for _, r := range rows {
		p, err := r.post()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// ListByOwner returns the owner's posts ordered by updated_at descending,
// optionally restricted to one status.
func (s *Store) ListByOwner(ctx context.Context, ownerID string, status Status) ([]Post, error) {
	query := `SELECT ` + postColumns("") + ` FROM posts WHERE user_id = ?`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC`

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rowsToPosts(rows)
}

// GetByOwner returns one post if it exists and belongs to ownerID.
// It returns ErrNotFound otherwise.
func (s *Store) GetByOwner(ctx context.Context, ownerID, id string) (Post, error) {
	var row postRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+postColumns("")+` FROM posts WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return row.post()
}

// Insert stores a new post.
func (s *Store) Insert(ctx context.Context, p Post) error {
	body, err := encodeBody(p.Body)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO posts (id, user_id, title, summary, body, image, status, read_time, slug, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.OwnerID, p.Title, nullString(p.Summary), body, nullString(p.Image), string(p.Status), p.ReadTime, p.Slug,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

// Update rewrites the mutable fields of an owned post and reports how many
// rows matched. The slug and creation time are never touched.
func (s *Store) Update(ctx context.Context, p Post) (int64, error) {
	body, err := encodeBody(p.Body)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE posts SET title = ?, summary = ?, body = ?, image = ?, status = ?, read_time = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		p.Title, nullString(p.Summary), body, nullString(p.Image), string(p.Status), p.ReadTime, formatTime(p.UpdatedAt),
		p.ID, p.OwnerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes an owned post and reports how many rows matched.
func (s *Store) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM posts WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const publishedSelect = `SELECT ` + `%s, pr.display_name AS author_name, pr.avatar_url AS author_avatar
FROM posts p LEFT JOIN profiles pr ON pr.id = p.user_id
WHERE p.status = ?`

// ListPublished returns published posts with their authors, newest first.
// limit <= 0 means no limit.
func (s *Store) ListPublished(ctx context.Context, limit int) ([]Post, error) {
	query := fmt.Sprintf(publishedSelect, postColumns("p.")) + ` ORDER BY p.created_at DESC`
	args := []any{string(StatusPublished)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rowsToPosts(rows)
}

// GetPublishedBySlug returns a published post by slug, or ErrNotFound.
func (s *Store) GetPublishedBySlug(ctx context.Context, slug string) (Post, error) {
	query := fmt.Sprintf(publishedSelect, postColumns("p.")) + ` AND p.slug = ?`
	var row postRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(query), string(StatusPublished), slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return row.post()
}

// Stats counts the owner's posts by status.
func (s *Store) Stats(ctx context.Context, ownerID string) (Stats, error) {
	var rows []struct {
		Status  string `db:"status"`
		N       int    `db:"n"`
		Minutes int    `db:"minutes"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT status, COUNT(*) AS n, COALESCE(SUM(read_time), 0) AS minutes FROM posts WHERE user_id = ? GROUP BY status`), ownerID)
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, r := range rows {
		st.Total += r.N
		st.ReadMinutes += r.Minutes
		switch Status(r.Status) {
		case StatusPublished:
			st.Published += r.N
		case StatusDraft:
			st.Drafts += r.N
		}
	}
	return st, nil
}

type profileRow struct {
	ID          string         `db:"id"`
	DisplayName sql.NullString `db:"display_name"`
	AvatarURL   sql.NullString `db:"avatar_url"`
	UpdatedAt   string         `db:"updated_at"`
}

// GetProfile returns the profile for id, or ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, id string) (Profile, error) {
	var row profileRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT id, display_name, avatar_url, updated_at FROM profiles WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	return Profile{
		ID:          row.ID,
		DisplayName: row.DisplayName.String,
		AvatarURL:   row.AvatarURL.String,
		UpdatedAt:   parseTime(row.UpdatedAt),
	}, nil
}

// UpsertProfile creates or replaces the profile row.
func (s *Store) UpsertProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO profiles (id, display_name, avatar_url, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name, avatar_url = excluded.avatar_url, updated_at = excluded.updated_at`),
		p.ID, nullString(p.DisplayName), nullString(p.AvatarURL), formatTime(p.UpdatedAt))
	return err
}

func encodeBody(body *richtext.Node) (sql.NullString, error) {
	if body == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode body: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
