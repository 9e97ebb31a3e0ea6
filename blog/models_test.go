package blog_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/goliatone/go-blogify/blog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "0 min"},
		{"whitespace", "   \n\t ", "0 min"},
		{"one word", "hello", "1 min"},
		{"exactly 200", strings.Repeat("word ", 200), "1 min"},
		{"201 words", strings.Repeat("word ", 201), "2 min"},
		{"irregular spacing", "a  b\n\nc\td", "1 min"},
		{"1000 words", strings.Repeat("w ", 1000), "5 min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &blog.Blog{}
			b.SetBody(tt.body)
			assert.Equal(t, tt.want, b.ReadingTime)
		})
	}
}

func TestNewTags(t *testing.T) {
	tags := blog.NewTags(" go ", "Go", "web,api", "", "  ")
	assert.Equal(t, blog.Tags{"go", "web", "api"}, tags)
}

func TestTags_ValueAndScan(t *testing.T) {
	value, err := blog.Tags{"go", "web"}.Value()
	require.NoError(t, err)
	assert.Equal(t, ",go,web,", value)

	empty, err := blog.Tags{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	var scanned blog.Tags
	require.NoError(t, scanned.Scan(",go,web,"))
	assert.Equal(t, blog.Tags{"go", "web"}, scanned)

	require.NoError(t, scanned.Scan([]byte("")))
	assert.Empty(t, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestTags_JSON(t *testing.T) {
	var fromList blog.Tags
	require.NoError(t, json.Unmarshal([]byte(`["go","web"]`), &fromList))
	assert.Equal(t, blog.Tags{"go", "web"}, fromList)

	var fromString blog.Tags
	require.NoError(t, json.Unmarshal([]byte(`"go, web"`), &fromString))
	assert.Equal(t, blog.Tags{"go", "web"}, fromString)

	var invalid blog.Tags
	assert.Error(t, json.Unmarshal([]byte(`42`), &invalid))

	raw, err := json.Marshal(blog.Blog{})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tags":[]`)
	assert.NotContains(t, string(raw), "reading_minutes")
	assert.NotContains(t, string(raw), `"author":`)
}

func TestState_Valid(t *testing.T) {
	assert.True(t, blog.StateDraft.Valid())
	assert.True(t, blog.StatePublished.Valid())
	assert.False(t, blog.State("archived").Valid())
}

func TestPaginate(t *testing.T) {
	page, limit := blog.Paginate(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, blog.DefaultPageLimit, limit)

	page, limit = blog.Paginate(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, blog.MaxPageLimit, limit)

	assert.Equal(t, 0, blog.PageCount(0, 20))
	assert.Equal(t, 1, blog.PageCount(20, 20))
	assert.Equal(t, 2, blog.PageCount(21, 20))
}
