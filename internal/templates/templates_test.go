package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIndex(t *testing.T) {
	tmpls, err := New()
	require.NoError(t, err)

	page, err := tmpls.RenderIndex(IndexParams{Title: "My Archive", Description: "a <mirror>"})
	require.NoError(t, err)
	assert.Contains(t, page, "<title>My Archive</title>")
	assert.Contains(t, page, "<p>a &lt;mirror&gt;</p>")
}

func TestRenderProfile(t *testing.T) {
	tmpls, err := New()
	require.NoError(t, err)

	page, err := tmpls.RenderProfile(ProfileParams{
		Type:     "Person",
		Account:  "alice@example.com",
		ActorURL: "https://archive.example/static/users/example.com/alice.json",
		Name:     "Alice",
		Summary:  "<p>bio</p>",
		URL:      "https://example.com/@alice",
	})
	require.NoError(t, err)
	assert.Contains(t, page, "<h1>Archived Person: alice@example.com</h1>")
	assert.Contains(t, page, `<link href="https://archive.example/static/users/example.com/alice.json" rel="alternate" type="application/activity+json">`)
	// Summary is stored actor HTML and passes through unescaped.
	assert.Contains(t, page, "<dt>Summary</dt><dd><p>bio</p></dd>")
	assert.NotContains(t, page, "Moved To")
}

func TestRenderProfileMoved(t *testing.T) {
	tmpls, err := New()
	require.NoError(t, err)

	page, err := tmpls.RenderProfile(ProfileParams{
		Type:            "Person",
		Account:         "alice@example.com",
		ActorURL:        "https://archive.example/static/users/example.com/alice.json",
		MovedTo:         "https://new.example/users/alice",
		MovedProfileURL: "https://new.example/@alice",
	})
	require.NoError(t, err)
	assert.Contains(t, page, `<dt>Moved To</dt><dd><a href="https://new.example/@alice">https://new.example/users/alice</a></dd>`)
}

func TestRenderObject(t *testing.T) {
	tmpls, err := New()
	require.NoError(t, err)

	page, err := tmpls.RenderObject(ObjectParams{
		Type:      "Note",
		Account:   "alice@example.com",
		ObjectURL: "https://archive.example/static/users/example.com/alice/entities/42.json",
		Content:   "<p>hello</p>",
		Published: "2021-01-02T03:04:05Z",
	})
	require.NoError(t, err)
	assert.Contains(t, page, "<h1>Archived Note by alice@example.com</h1>")
	assert.Contains(t, page, "<div><p>hello</p></div>")
	assert.Contains(t, page, "Published: 2021-01-02T03:04:05Z")
}
