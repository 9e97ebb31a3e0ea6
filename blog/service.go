package blog

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-blogify/auth"
	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-blogify/persistence"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	DefaultTimeout   = 10 * time.Second
)

type CreateMessage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        Tags   `json:"tags"`
	Body        string `json:"body"`
}

func (m CreateMessage) Type() string { return "blog.create" }

func (m CreateMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&m.Body, validation.Required),
	)
}

// UpdateMessage is a partial update, nil and empty fields are left alone
type UpdateMessage struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Tags        *Tags   `json:"tags"`
	Body        *string `json:"body"`
	State       *string `json:"state"`
}

func (m UpdateMessage) Type() string { return "blog.update" }

// Page is one page of a blog listing
type Page struct {
	Blogs []*Blog `json:"blogs"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
}

// Service runs the blog operations with ownership checks
type Service struct {
	repo    Blogs
	logger  logging.Logger
	timeout time.Duration
}

type ServiceOption func(*Service)

func WithLogger(logger logging.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func NewService(repo Blogs, opts ...ServiceOption) *Service {
	s := &Service{
		repo:    repo,
		logger:  logging.Default("blog"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) begin(ctx context.Context, operation string) (context.Context, context.CancelFunc, error) {
	select {
	case <-ctx.Done():
		return ctx, func() {}, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during "+operation,
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return ctx, cancel, nil
}

// Create stores a new draft owned by authorID
func (s *Service) Create(ctx context.Context, authorID string, msg CreateMessage) (*Blog, error) {
	ctx, cancel, err := s.begin(ctx, "blog create")
	defer cancel()
	if err != nil {
		return nil, err
	}

	author, err := uuid.Parse(authorID)
	if err != nil {
		return nil, auth.Unauthenticated("Unauthorized - no token provided")
	}

	msg.Title = strings.TrimSpace(msg.Title)
	if err := msg.Validate(); err != nil {
		return nil, auth.ValidationError(err, "Title and body are required")
	}

	if _, err := s.repo.GetByTitle(ctx, msg.Title); err == nil {
		return nil, titleTaken()
	} else if !persistence.IsNotFound(err) {
		return nil, auth.Internal(err, "failed to look up blog title")
	}

	blog := &Blog{
		AuthorID:    author,
		Title:       msg.Title,
		Description: strings.TrimSpace(msg.Description),
		Tags:        NewTags(msg.Tags...),
		State:       StateDraft,
	}
	blog.SetBody(msg.Body)

	created, err := s.repo.Insert(ctx, blog)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return nil, titleTaken()
		}
		return nil, auth.Internal(err, "could not create blog")
	}

	s.logger.Info("blog %s created by %s", created.ID, authorID)

	return created, nil
}

// Update applies a partial update for the owner
func (s *Service) Update(ctx context.Context, userID, id string, msg UpdateMessage) (*Blog, error) {
	ctx, cancel, err := s.begin(ctx, "blog update")
	defer cancel()
	if err != nil {
		return nil, err
	}

	blog, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, 6)

	if msg.Title != nil {
		if title := strings.TrimSpace(*msg.Title); title != "" {
			blog.Title = title
			columns = append(columns, "title")
		}
	}

	if msg.Description != nil && *msg.Description != "" {
		blog.Description = strings.TrimSpace(*msg.Description)
		columns = append(columns, "description")
	}

	if msg.Tags != nil && len(*msg.Tags) > 0 {
		blog.Tags = NewTags(*msg.Tags...)
		columns = append(columns, "tags")
	}

	if msg.Body != nil && *msg.Body != "" && *msg.Body != blog.Body {
		blog.SetBody(*msg.Body)
		columns = append(columns, "body", "reading_time", "reading_minutes")
	}

	if msg.State != nil {
		if state := State(strings.ToLower(strings.TrimSpace(*msg.State))); state.Valid() {
			blog.State = state
			columns = append(columns, "state")
		}
	}

	if len(columns) == 0 {
		return blog, nil
	}

	if err := s.repo.UpdateColumns(ctx, blog, columns...); err != nil {
		if persistence.IsUniqueViolation(err) {
			return nil, titleTaken()
		}
		return nil, s.fail(err, "failed to update blog")
	}

	return blog, nil
}

// Publish moves an owned blog to published, publishing twice is a no-op
func (s *Service) Publish(ctx context.Context, userID, id string) (*Blog, error) {
	ctx, cancel, err := s.begin(ctx, "blog publish")
	defer cancel()
	if err != nil {
		return nil, err
	}

	blog, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	blog.State = StatePublished
	if err := s.repo.UpdateColumns(ctx, blog, "state"); err != nil {
		return nil, s.fail(err, "failed to publish blog")
	}

	return blog, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel, err := s.begin(ctx, "blog delete")
	defer cancel()
	if err != nil {
		return err
	}

	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return s.fail(err, "failed to delete blog")
	}

	s.logger.Info("blog %s deleted by %s", id, userID)

	return nil
}

// GetPublished returns a published blog and counts the read
func (s *Service) GetPublished(ctx context.Context, id string) (*Blog, error) {
	ctx, cancel, err := s.begin(ctx, "blog read")
	defer cancel()
	if err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, notPublished()
	}

	var blog *Blog
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ok, err := s.repo.IncrementReadCountTx(ctx, tx, id)
		if err != nil {
			return auth.Internal(err, "failed to count read")
		}
		if !ok {
			return notPublished()
		}

		blog, err = s.repo.GetPublishedTx(ctx, tx, id)
		if err != nil {
			if persistence.IsNotFound(err) {
				return notPublished()
			}
			return auth.Internal(err, "failed to load blog")
		}
		return nil
	})
	if err != nil {
		return nil, auth.Internal(err, "blog read transaction failed")
	}

	return blog, nil
}

// GetMine returns an owned blog in any state
func (s *Service) GetMine(ctx context.Context, userID, id string) (*Blog, error) {
	ctx, cancel, err := s.begin(ctx, "blog fetch")
	defer cancel()
	if err != nil {
		return nil, err
	}

	blog, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !blog.OwnedBy(userID) {
		return nil, auth.NotFound("Blog not found")
	}

	return blog, nil
}

// ListQuery is a listing request as received from the client
type ListQuery struct {
	Page    int
	Limit   int
	Author  string
	Title   string
	Tags    []string
	OrderBy string
	Order   string
	State   string
}

// ListPublished lists published blogs with their authors
func (s *Service) ListPublished(ctx context.Context, q ListQuery) (*Page, error) {
	filter := ListFilter{
		AuthorID:    q.Author,
		State:       StatePublished,
		Title:       q.Title,
		Tags:        q.Tags,
		OrderBy:     q.OrderBy,
		Descending:  !strings.EqualFold(q.Order, "asc"),
		WithAuthors: true,
	}
	return s.list(ctx, "blog list", q, filter)
}

// ListMine lists the caller's blogs newest first, optionally by state
func (s *Service) ListMine(ctx context.Context, userID string, q ListQuery) (*Page, error) {
	if userID == "" {
		return nil, auth.Unauthenticated("Unauthorized - no token provided")
	}

	filter := ListFilter{
		AuthorID:   userID,
		State:      State(strings.ToLower(q.State)),
		OrderBy:    "created_at",
		Descending: true,
	}
	return s.list(ctx, "own blog list", q, filter)
}

func (s *Service) list(ctx context.Context, operation string, q ListQuery, filter ListFilter) (*Page, error) {
	ctx, cancel, err := s.begin(ctx, operation)
	defer cancel()
	if err != nil {
		return nil, err
	}

	page, limit := Paginate(q.Page, q.Limit)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, auth.Internal(err, "failed to list blogs")
	}

	return &Page{
		Blogs: records,
		Total: total,
		Page:  page,
		Pages: PageCount(total, limit),
	}, nil
}

// Paginate normalizes page and limit, limit is capped at MaxPageLimit
func Paginate(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func (s *Service) owned(ctx context.Context, userID, id string) (*Blog, error) {
	blog, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !blog.OwnedBy(userID) {
		return nil, auth.Forbidden("Not authorized")
	}

	return blog, nil
}

func (s *Service) find(ctx context.Context, id string) (*Blog, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, auth.NotFound("Blog not found")
	}

	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, auth.NotFound("Blog not found")
		}
		return nil, auth.Internal(err, "failed to load blog")
	}

	return blog, nil
}

func (s *Service) fail(err error, message string) error {
	if persistence.IsNotFound(err) {
		return auth.NotFound("Blog not found")
	}
	return auth.Internal(err, message)
}

func titleTaken() error {
	return auth.Conflict("A blog with this title already exists")
}

func notPublished() error {
	return auth.NotFound("Blog not found or not published")
}
