package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinmews/coinmews/internal/domain/enums"
)

// CatalogFilter narrows public listings. Empty fields do not filter.
type CatalogFilter struct {
	Status      string
	Category    string
	ContentType string
	EventType   string
	Kind        string
	Blockchain  string
	Query       string
	Limit       int
	Offset      int
}

type SitemapEntry struct {
	Kind    enums.ContentKind
	Slug    string
	LastMod time.Time
}

type catalogTable struct {
	name       string
	visibility string
	titleCol   string
}

var catalogTables = map[enums.ContentKind]catalogTable{
	enums.ContentKindArticle:  {name: "articles", visibility: "status = 'published'", titleCol: "title"},
	enums.ContentKindAirdrop:  {name: "airdrops", visibility: "status IN ('upcoming', 'ongoing', 'ended')", titleCol: "project_name"},
	enums.ContentKindPresale:  {name: "presales", visibility: "status IN ('upcoming', 'ongoing', 'ended')", titleCol: "project_name"},
	enums.ContentKindEvent:    {name: "events", visibility: "status IN ('upcoming', 'ongoing', 'completed')", titleCol: "title"},
	enums.ContentKindExchange: {name: "exchanges", visibility: "is_active", titleCol: "name"},
	enums.ContentKindMeme:     {name: "memes", visibility: "is_published", titleCol: "title"},
}

// CatalogRepo holds the queries shared by every public collection.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

func (r *CatalogRepo) IncrementViews(ctx context.Context, kind enums.ContentKind, id int64) error {
	if r.pool == nil {
		return errNilPool
	}
	table, ok := catalogTables[kind]
	if !ok {
		return fmt.Errorf("unknown content kind %q", kind)
	}

	if _, err := r.pool.Exec(ctx, `UPDATE `+table.name+` SET view_count = view_count + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment %s views: %w", kind, err)
	}
	return nil
}

// ListSitemapEntries returns every publicly visible slug of kind with its last modification time.
func (r *CatalogRepo) ListSitemapEntries(ctx context.Context, kind enums.ContentKind, limit int) ([]SitemapEntry, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	table, ok := catalogTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	if limit <= 0 {
		limit = 5000
	}

	lastMod := "updated_at"
	if kind == enums.ContentKindMeme {
		lastMod = "created_at"
	}

	rows, err := r.pool.Query(ctx, `
SELECT slug, `+lastMod+`
FROM `+table.name+`
WHERE `+table.visibility+`
ORDER BY `+lastMod+` DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s sitemap entries: %w", kind, err)
	}
	defer rows.Close()

	entries := make([]SitemapEntry, 0)
	for rows.Next() {
		entry := SitemapEntry{Kind: kind}
		if err := rows.Scan(&entry.Slug, &entry.LastMod); err != nil {
			return nil, fmt.Errorf("scan %s sitemap entry: %w", kind, err)
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate %s sitemap entries: %w", kind, rows.Err())
	}

	return entries, nil
}

// whereBuilder accumulates positional predicates for list queries.
type whereBuilder struct {
	clauses []string
	args    []any
}

func newWhere(base string) *whereBuilder {
	return &whereBuilder{clauses: []string{base}}
}

func (w *whereBuilder) eq(column, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	w.args = append(w.args, value)
	w.clauses = append(w.clauses, fmt.Sprintf("%s = $%d", column, len(w.args)))
}

func (w *whereBuilder) contains(column, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	w.args = append(w.args, "%"+escapeLike(value)+"%")
	w.clauses = append(w.clauses, fmt.Sprintf("%s ILIKE $%d", column, len(w.args)))
}

func (w *whereBuilder) sql() string {
	return strings.Join(w.clauses, " AND ")
}

// page appends limit and offset and returns their placeholders.
func (w *whereBuilder) page(limit, offset int) string {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	w.args = append(w.args, limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func countRows(ctx context.Context, db DBTX, table string, w *whereBuilder) (int, error) {
	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+` WHERE `+w.sql(), w.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return total, nil
}
