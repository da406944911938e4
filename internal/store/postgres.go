package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink-go/internal/shortlink"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// sortColumns maps service sort keys to table columns. Keys are already
// whitelisted by the service; the map guards against injection anyway.
var sortColumns = map[string]string{
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
	"clicks":         "click_count",
	"lastAccessedAt": "last_accessed_at",
	"expiresAt":      "expires_at",
	"originalUrl":    "original_url",
	"shortCode":      "short_code",
}

const linkColumns = `id, original_url, short_code, click_count, is_active, expires_at, created_at, updated_at, last_accessed_at, tags`

// likeEscaper neutralizes LIKE metacharacters in user-supplied search text.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresStore is a PostgreSQL implementation of shortlink.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed repository.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the short_links table if it does not exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS short_links (
			id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			original_url     TEXT NOT NULL,
			short_code       TEXT NOT NULL UNIQUE,
			click_count      BIGINT NOT NULL DEFAULT 0,
			is_active        BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at       TIMESTAMPTZ,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_accessed_at TIMESTAMPTZ,
			tags             TEXT[]
		);
		CREATE INDEX IF NOT EXISTS idx_short_links_original_url ON short_links (original_url) WHERE is_active;
		CREATE INDEX IF NOT EXISTS idx_short_links_expires_at ON short_links (expires_at) WHERE is_active;
	`

	_, err := p.pool.Exec(ctx, schema)

	return err
}

func (p *PostgresStore) Create(ctx context.Context, link *shortlink.ShortLink) error {
	query := `
		INSERT INTO short_links (original_url, short_code, click_count, is_active, expires_at, created_at, updated_at, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := p.pool.QueryRow(ctx, query,
		link.OriginalURL,
		link.ShortCode,
		link.ClickCount,
		link.IsActive,
		link.ExpiresAt,
		link.CreatedAt,
		link.UpdatedAt,
		link.Tags,
	).Scan(&link.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return shortlink.ErrCodeTaken
		}

		return err
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code string) (*shortlink.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links WHERE short_code = $1`

	return p.scanOne(p.pool.QueryRow(ctx, query, code))
}

func (p *PostgresStore) FindActiveByURL(ctx context.Context, originalURL string) (*shortlink.ShortLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM short_links
		WHERE original_url = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT 1
	`

	return p.scanOne(p.pool.QueryRow(ctx, query, originalURL))
}

func (p *PostgresStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM short_links WHERE short_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (p *PostgresStore) RegisterClick(ctx context.Context, code string, at time.Time) error {
	// Single UPDATE so the increment and the access timestamp move
	// together; concurrent redirects never lose counts.
	query := `
		UPDATE short_links
		SET click_count = click_count + 1, last_accessed_at = $2, updated_at = $2
		WHERE short_code = $1 AND is_active
	`

	tag, err := p.pool.Exec(ctx, query, code, at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortlink.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) Deactivate(ctx context.Context, code string, at time.Time) error {
	query := `UPDATE short_links SET is_active = FALSE, updated_at = $2 WHERE short_code = $1`

	tag, err := p.pool.Exec(ctx, query, code, at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortlink.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE short_links
		SET is_active = FALSE, updated_at = $1
		WHERE is_active AND expires_at IS NOT NULL AND expires_at < $1
	`

	tag, err := p.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (p *PostgresStore) Delete(ctx context.Context, code string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM short_links WHERE short_code = $1`, code)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortlink.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) List(ctx context.Context, q shortlink.Query) ([]shortlink.ShortLink, int64, error) {
	var (
		conditions []string
		args       []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !q.IncludeExpired {
		conditions = append(conditions,
			fmt.Sprintf("is_active AND (expires_at IS NULL OR expires_at > %s)", arg(q.Now)))
	}

	if q.Search != "" {
		// The search term is literal text, not a pattern.
		pattern := "%" + likeEscaper.Replace(q.Search) + "%"
		conditions = append(conditions,
			fmt.Sprintf(`(original_url ILIKE %s ESCAPE '\' OR short_code ILIKE %s ESCAPE '\')`,
				arg(pattern), arg(pattern)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM short_links`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}

	direction := "DESC"
	if q.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(
		`SELECT %s FROM short_links%s ORDER BY %s %s, id LIMIT %s OFFSET %s`,
		linkColumns, where, column, direction, arg(q.Limit), arg(q.Offset),
	)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var links []shortlink.ShortLink

	for rows.Next() {
		var link shortlink.ShortLink
		if err := scanLink(rows, &link); err != nil {
			return nil, 0, err
		}

		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return links, total, nil
}

func (p *PostgresStore) Stats(ctx context.Context, now, dayStart time.Time) (shortlink.Stats, error) {
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE is_active),
			count(*) FILTER (WHERE NOT is_active AND expires_at IS NOT NULL AND expires_at < $1),
			COALESCE(sum(click_count), 0),
			count(*) FILTER (WHERE created_at >= $2)
		FROM short_links
	`

	var stats shortlink.Stats

	err := p.pool.QueryRow(ctx, query, now, dayStart).Scan(
		&stats.TotalLinks,
		&stats.ActiveLinks,
		&stats.ExpiredLinks,
		&stats.TotalClicks,
		&stats.CreatedToday,
	)
	if err != nil {
		return shortlink.Stats{}, err
	}

	return stats, nil
}

func (p *PostgresStore) scanOne(row pgx.Row) (*shortlink.ShortLink, error) {
	var link shortlink.ShortLink

	if err := scanLink(row, &link); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortlink.ErrNotFound
		}

		return nil, err
	}

	return &link, nil
}

func scanLink(row pgx.Row, link *shortlink.ShortLink) error {
	return row.Scan(
		&link.ID,
		&link.OriginalURL,
		&link.ShortCode,
		&link.ClickCount,
		&link.IsActive,
		&link.ExpiresAt,
		&link.CreatedAt,
		&link.UpdatedAt,
		&link.LastAccessedAt,
		&link.Tags,
	)
}

// Compile-time check.
var _ shortlink.Repository = (*PostgresStore)(nil)
