package blog

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Blogs is the blog store
type Blogs interface {
	repository.TransactionManager

	Insert(ctx context.Context, blog *Blog) (*Blog, error)
	GetByID(ctx context.Context, id string) (*Blog, error)
	GetByTitle(ctx context.Context, title string) (*Blog, error)
	GetPublishedTx(ctx context.Context, tx bun.IDB, id string) (*Blog, error)
	List(ctx context.Context, filter ListFilter) ([]*Blog, int, error)
	UpdateColumns(ctx context.Context, blog *Blog, columns ...string) error
	Remove(ctx context.Context, id string) error
	IncrementReadCountTx(ctx context.Context, tx bun.IDB, id string) (bool, error)
}

// ListFilter selects and orders a page of blogs. Title and Tags match
// case-insensitively against the title_key and tag_keys columns.
type ListFilter struct {
	AuthorID    string
	State       State
	Title       string
	Tags        []string
	OrderBy     string
	Descending  bool
	Offset      int
	Limit       int
	WithAuthors bool
}

// sortable maps public sort keys to columns
var sortable = map[string]string{
	"read_count":   "read_count",
	"reading_time": "reading_minutes",
	"created_at":   "created_at",
}

type blogs struct {
	base repository.Repository[*Blog]
	db   *bun.DB
	now  func() time.Time
}

type BlogsOption func(*blogs)

func WithBlogsClock(now func() time.Time) BlogsOption {
	return func(b *blogs) {
		if now != nil {
			b.now = now
		}
	}
}

func NewBlogsRepository(db *bun.DB, opts ...BlogsOption) Blogs {
	base := repository.NewRepository[*Blog](db, repository.ModelHandlers[*Blog]{
		NewRecord: func() *Blog { return &Blog{} },
		GetID: func(b *Blog) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *Blog, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	repo := &blogs{
		base: base,
		db:   db,
		now:  time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}

	return repo
}

func (r *blogs) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return r.db.RunInTx(ctx, opts, f)
	}
}

func (r *blogs) Insert(ctx context.Context, blog *Blog) (*Blog, error) {
	if blog.ID == uuid.Nil {
		blog.ID = uuid.New()
	}
	now := r.now().UTC()
	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = now
	}
	blog.UpdatedAt = now
	if blog.State == "" {
		blog.State = StateDraft
	}
	if blog.Tags == nil {
		blog.Tags = Tags{}
	}
	blog.refreshSearchKeys()
	return r.base.CreateTx(ctx, r.db, blog)
}

func (r *blogs) GetByID(ctx context.Context, id string) (*Blog, error) {
	return r.base.GetByID(ctx, id)
}

func (r *blogs) GetByTitle(ctx context.Context, title string) (*Blog, error) {
	return r.base.GetByIdentifier(ctx, title)
}

// GetPublishedTx loads a published blog with its author summary
func (r *blogs) GetPublishedTx(ctx context.Context, tx bun.IDB, id string) (*Blog, error) {
	record := &Blog{}
	err := tx.NewSelect().
		Model(record).
		Relation("Author").
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.state = ?", StatePublished).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id})
		}
		return nil, err
	}
	return record, nil
}

// List returns one page of matching blogs and the total match count
func (r *blogs) List(ctx context.Context, filter ListFilter) ([]*Blog, int, error) {
	records := make([]*Blog, 0)

	q := r.db.NewSelect().Model(&records)

	if filter.WithAuthors {
		q = q.Relation("Author")
	}

	if filter.AuthorID != "" {
		q = q.Where("?TableAlias.author_id = ?", filter.AuthorID)
	}

	if filter.State != "" {
		q = q.Where("?TableAlias.state = ?", filter.State)
	}

	if title := strings.TrimSpace(filter.Title); title != "" {
		q = q.Where("?TableAlias.title_key LIKE ? ESCAPE '\\'", containsPattern(title))
	}

	if tags := NewTags(filter.Tags...); len(tags) > 0 {
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			for _, tag := range tags {
				pattern := containsPattern(tagDelimiter + tag + tagDelimiter)
				sq = sq.WhereOr("?TableAlias.tag_keys LIKE ? ESCAPE '\\'", pattern)
			}
			return sq
		})
	}

	column, ok := sortable[filter.OrderBy]
	if !ok {
		column = "created_at"
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	q = q.OrderExpr("?TableAlias.? "+direction, bun.Ident(column)).
		OrderExpr("?TableAlias.id ASC")

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, count, nil
}

// UpdateColumns writes only the given columns plus updated_at
func (r *blogs) UpdateColumns(ctx context.Context, blog *Blog, columns ...string) error {
	blog.UpdatedAt = r.now().UTC()
	columns = append(columns, "updated_at")

	if slices.Contains(columns, "title") || slices.Contains(columns, "tags") {
		blog.refreshSearchKeys()
		columns = append(columns, "title_key", "tag_keys")
	}

	res, err := r.db.NewUpdate().
		Model(blog).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": blog.ID.String()})
	}
	return nil
}

func (r *blogs) Remove(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*Blog)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id})
	}
	return nil
}

// IncrementReadCountTx bumps read_count in place for a published blog
// and reports whether a row matched
func (r *blogs) IncrementReadCountTx(ctx context.Context, tx bun.IDB, id string) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*Blog)(nil)).
		Set("read_count = read_count + 1").
		Where("id = ?", id).
		Where("state = ?", StatePublished).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func containsPattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(s)) + "%"
}
