package blog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type State string

const (
	StateDraft     State = "draft"
	StatePublished State = "published"
)

// Valid reports whether s is a known blog state
func (s State) Valid() bool {
	return s == StateDraft || s == StatePublished
}

// Author is the public summary of a blog owner
type Author struct {
	bun.BaseModel `bun:"table:users,alias:author"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	FirstName string    `bun:"first_name" json:"first_name"`
	LastName  string    `bun:"last_name" json:"last_name"`
	Email     string    `bun:"email" json:"email"`
}

// Blog is the blog model
type Blog struct {
	bun.BaseModel `bun:"table:blogs,alias:b"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	AuthorID       uuid.UUID `bun:"author_id,notnull,type:uuid" json:"author_id"`
	Author         *Author   `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Title          string    `bun:"title,notnull,unique" json:"title"`
	TitleKey       string    `bun:"title_key,notnull" json:"-"`
	Description    string    `bun:"description" json:"description"`
	Tags           Tags      `bun:"tags" json:"tags"`
	TagKeys        string    `bun:"tag_keys,notnull" json:"-"`
	Body           string    `bun:"body,notnull" json:"body"`
	ReadingTime    string    `bun:"reading_time" json:"reading_time"`
	ReadingMinutes int       `bun:"reading_minutes" json:"-"`
	State          State     `bun:"state,notnull" json:"state"`
	ReadCount      int64     `bun:"read_count" json:"read_count"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// SetBody replaces the body and recomputes the reading time
func (b *Blog) SetBody(body string) {
	b.Body = body
	b.ReadingMinutes = ReadingMinutes(body)
	b.ReadingTime = FormatReadingTime(b.ReadingMinutes)
}

// refreshSearchKeys keeps the lowercase copies matched by the title
// and tag filters. Folding happens here, SQLite LOWER only folds ASCII.
func (b *Blog) refreshSearchKeys() {
	b.TitleKey = strings.ToLower(b.Title)
	b.TagKeys = strings.ToLower(b.Tags.encode())
}

// OwnedBy reports whether userID is the author
func (b *Blog) OwnedBy(userID string) bool {
	return userID != "" && b.AuthorID.String() == userID
}

const wordsPerMinute = 200

// ReadingMinutes is the word count at 200 words per minute, rounded up
func ReadingMinutes(body string) int {
	words := len(strings.Fields(body))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

func FormatReadingTime(minutes int) string {
	return fmt.Sprintf("%d min", minutes)
}

// Tags keep their order and first spelling. They are stored as a
// delimited string so membership can be matched with LIKE on any dialect.
type Tags []string

const tagDelimiter = ","

// NewTags trims, drops empty values and removes case-insensitive duplicates
func NewTags(values ...string) Tags {
	seen := make(map[string]bool, len(values))
	tags := make(Tags, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, tagDelimiter) {
			part = strings.TrimSpace(part)
			key := strings.ToLower(part)
			if part == "" || seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, part)
		}
	}
	return tags
}

// Value encodes the tags as ",a,b," or an empty string
func (t Tags) Value() (driver.Value, error) {
	return t.encode(), nil
}

func (t Tags) encode() string {
	if len(t) == 0 {
		return ""
	}
	return tagDelimiter + strings.Join(t, tagDelimiter) + tagDelimiter
}

func (t *Tags) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("blog: can not scan %T into Tags", src)
	}
	*t = NewTags(raw)
	return nil
}

// UnmarshalJSON accepts a list of tags or a comma separated string
func (t *Tags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = NewTags(list...)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("blog: tags must be a list or a comma separated string")
	}
	*t = NewTags(raw)
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}
