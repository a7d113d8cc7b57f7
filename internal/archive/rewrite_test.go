package archive

import (
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizunashi-mana/archivedon/ap"
)

func TestExtractIdentity(t *testing.T) {
	for input, want := range map[string]string{
		"https://example.com/users/alice/statuses/109421":  "109421",
		"https://example.com/users/alice/statuses/109421/": "109421",
		"https://example.com/notes/42?query=1":             "42",
	} {
		got, err := extractIdentity(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestExtractIdentityFailsWithoutDigits(t *testing.T) {
	for _, input := range []string{
		"https://example.com/users/alice",
		"https://example.com/notes/42abc",
		"https://example.com/",
	} {
		_, err := extractIdentity(input)
		require.Error(t, err, input)
		assert.True(t, errors.Is(err, IdentityError{}), input)
	}
}

func TestRewriteObject(t *testing.T) {
	staticBase, _ := url.Parse("https://archive.example/")
	account := testAccount(t, staticBase)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	object := &ap.Object{
		SchemaContext: ap.PureContext(),
		ID:            "https://example.com/users/alice/statuses/42",
		Type:          []string{"Note"},
		ObjectItems: ap.ObjectItems{
			Content: []string{"<p>hello</p>"},
			URL: &ap.Link{
				Href:      "https://example.com/@alice/42",
				MediaType: []string{"text/html"},
			},
		},
	}

	result, err := rewriteObject(account, staticBase, object, now)
	require.NoError(t, err)

	assert.Equal(t, "42", result.id)
	assert.Equal(t, "https://archive.example/users/example.com/alice/entities/42.json", result.object.ID)
	require.NotNil(t, result.object.Updated)
	assert.Equal(t, now, *result.object.Updated)
	assert.Equal(t, []string{"<p>hello</p>"}, result.object.Content)

	require.NotNil(t, result.originalURL)
	assert.Equal(t, "https://example.com/@alice/42", result.originalURL.String())
	assert.Equal(t, []string{"text/html"}, result.mediaTypes)

	// The archived copy's url points at its own HTML page.
	require.NotNil(t, result.object.URL)
	assert.Equal(t, "https://archive.example/users/example.com/alice/entities/42.html", result.object.URL.Href)

	// The source object is left untouched.
	assert.Equal(t, "https://example.com/users/alice/statuses/42", object.ID)
	assert.Nil(t, object.Updated)
}

func TestRewriteObjectDefaultsWildcardMediaType(t *testing.T) {
	staticBase, _ := url.Parse("https://archive.example/")
	account := testAccount(t, staticBase)

	object := &ap.Object{
		ID: "https://example.com/users/alice/statuses/42",
		ObjectItems: ap.ObjectItems{
			URL: ap.LinkTo("https://example.com/@alice/42"),
		},
	}

	result, err := rewriteObject(account, staticBase, object, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"*/*"}, result.mediaTypes)
}

func TestRewriteActivity(t *testing.T) {
	staticBase, _ := url.Parse("https://archive.example/")
	account := testAccount(t, staticBase)

	object := &ap.Object{
		SchemaContext: ap.PureContext(),
		ID:            "https://example.com/users/alice/statuses/42",
		Type:          []string{"Note"},
	}
	activity := &ap.Object{
		SchemaContext: ap.PureContext(),
		ID:            "https://example.com/users/alice/statuses/42/activity",
		Type:          []string{"Create"},
		ActivityItems: ap.ActivityItems{
			Actor:  []ap.ObjectOrLink{ap.Ref("https://example.com/users/alice")},
			Object: []ap.ObjectOrLink{ap.Ref(object.ID)},
		},
	}

	result, err := rewriteObject(account, staticBase, object, time.Now())
	require.NoError(t, err)
	newActivity := rewriteActivity(account, staticBase, activity, result)

	assert.Equal(t, "https://archive.example/users/example.com/alice/entities/42/activity.json", newActivity.ID)
	require.Len(t, newActivity.ActivityItems.Actor, 1)
	assert.Equal(t, account.ActorURL, newActivity.ActivityItems.Actor[0].Href())
	require.Len(t, newActivity.ActivityItems.Origin, 1)
	assert.Equal(t, "https://example.com/users/alice/statuses/42/activity", newActivity.ActivityItems.Origin[0].Href())

	require.Len(t, newActivity.ActivityItems.Object, 1)
	embedded := newActivity.ActivityItems.Object[0].Object
	require.NotNil(t, embedded)
	assert.Equal(t, result.object.ID, embedded.ID)
	assert.Nil(t, embedded.SchemaContext)
}
