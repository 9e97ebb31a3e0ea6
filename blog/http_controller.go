package blog

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-blogify/auth"
	"github.com/goliatone/go-blogify/logging"
	"github.com/goliatone/go-router"
)

// ListParams are the query parameters of the listing endpoints
type ListParams struct {
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Author  string `json:"author"`
	Title   string `json:"title"`
	Tags    string `json:"tags"`
	OrderBy string `json:"order_by"`
	Order   string `json:"order"`
	State   string `json:"state"`
}

func (p ListParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Author, is.UUID),
		validation.Field(&p.Order, validation.In("asc", "desc", "ASC", "DESC")),
		validation.Field(&p.State, validation.In(string(StateDraft), string(StatePublished))),
	)
}

func (p ListParams) query() ListQuery {
	var tags []string
	if p.Tags != "" {
		tags = strings.Split(p.Tags, ",")
	}
	return ListQuery{
		Page:    p.Page,
		Limit:   p.Limit,
		Author:  p.Author,
		Title:   p.Title,
		Tags:    tags,
		OrderBy: p.OrderBy,
		Order:   p.Order,
		State:   p.State,
	}
}

type Controller struct {
	Logger  logging.Logger
	Service *Service
}

func NewController(service *Service, logger logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default("blog")
	}
	return &Controller{
		Logger:  logger,
		Service: service,
	}
}

// RegisterBlogRoutes mounts the blog endpoints, protected guards the
// author only routes
func RegisterBlogRoutes[T any](app router.Router[T], b *Controller, protected router.MiddlewareFunc) {
	app.Get("/", b.ListPublished).SetName("blogs.list")
	app.Get("/me/blogs", b.ListMine, protected).SetName("blogs.mine.list")
	app.Get("/me/blogs/:id", b.GetMine, protected).SetName("blogs.mine.get")
	app.Get("/:id", b.GetPublished).SetName("blogs.get")

	app.Post("/", b.Create, protected).SetName("blogs.create")
	app.Patch("/:id/publish", b.Publish, protected).SetName("blogs.publish")
	app.Patch("/:id", b.Update, protected).SetName("blogs.update")
	app.Delete("/:id", b.Delete, protected).SetName("blogs.delete")
}

func (b *Controller) ListPublished(c router.Context) error {
	params, err := b.listParams(c)
	if err != nil {
		return err
	}

	page, err := b.Service.ListPublished(c.Context(), params.query())
	if err != nil {
		return err
	}

	return b.sendPage(c, page)
}

func (b *Controller) ListMine(c router.Context) error {
	params, err := b.listParams(c)
	if err != nil {
		return err
	}

	page, err := b.Service.ListMine(c.Context(), auth.CurrentUserID(c), params.query())
	if err != nil {
		return err
	}

	return b.sendPage(c, page)
}

func (b *Controller) GetPublished(c router.Context) error {
	blog, err := b.Service.GetPublished(c.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, router.ViewContext{"success": true, "blog": blog})
}

func (b *Controller) GetMine(c router.Context) error {
	blog, err := b.Service.GetMine(c.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, router.ViewContext{"success": true, "blog": blog})
}

func (b *Controller) Create(c router.Context) error {
	payload := new(CreateMessage)
	if err := b.bind(c, payload); err != nil {
		return err
	}

	blog, err := b.Service.Create(c.Context(), auth.CurrentUserID(c), *payload)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusCreated, router.ViewContext{"success": true, "blog": blog})
}

func (b *Controller) Update(c router.Context) error {
	payload := new(UpdateMessage)
	if err := b.bind(c, payload); err != nil {
		return err
	}

	blog, err := b.Service.Update(c.Context(), auth.CurrentUserID(c), c.Param("id"), *payload)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, router.ViewContext{"success": true, "blog": blog})
}

func (b *Controller) Publish(c router.Context) error {
	blog, err := b.Service.Publish(c.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(router.StatusOK, router.ViewContext{"success": true, "blog": blog})
}

func (b *Controller) Delete(c router.Context) error {
	if err := b.Service.Delete(c.Context(), auth.CurrentUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(router.StatusOK, router.ViewContext{"success": true, "message": "Blog deleted"})
}

func (b *Controller) listParams(c router.Context) (*ListParams, error) {
	params := &ListParams{
		Author:  c.Query("author"),
		Title:   c.Query("title"),
		Tags:    c.Query("tags"),
		OrderBy: c.Query("order_by"),
		Order:   c.Query("order"),
		State:   c.Query("state"),
	}

	var err error
	if params.Page, err = queryInt(c, "page"); err != nil {
		b.Logger.Debug("parse query: %v", err)
		return nil, auth.BadRequest("Invalid query parameters")
	}
	if params.Limit, err = queryInt(c, "limit"); err != nil {
		b.Logger.Debug("parse query: %v", err)
		return nil, auth.BadRequest("Invalid query parameters")
	}

	if err := params.Validate(); err != nil {
		return nil, auth.ValidationError(err, "Invalid query parameters")
	}

	return params, nil
}

func (b *Controller) sendPage(c router.Context, page *Page) error {
	return c.JSON(router.StatusOK, router.ViewContext{
		"success": true,
		"blogs":   page.Blogs,
		"total":   page.Total,
		"page":    page.Page,
		"pages":   page.Pages,
	})
}

func (b *Controller) bind(c router.Context, payload any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.Bind(payload); err != nil {
		b.Logger.Debug("parse payload: %v", err)
		return auth.BadRequest("Invalid request body")
	}
	return nil
}

// queryInt is zero when the parameter is absent
func queryInt(c router.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
