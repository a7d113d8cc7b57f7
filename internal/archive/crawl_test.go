package archive

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizunashi-mana/archivedon/ap"
	"github.com/mizunashi-mana/archivedon/internal/resource"
)

type mockFetcher struct {
	actorURLs map[string]string
	objects   map[string]*ap.Object

	fetches []string
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		actorURLs: map[string]string{},
		objects:   map[string]*ap.Object{},
	}
}

func (m *mockFetcher) ResolveActor(_ context.Context, domain, subject string) (string, error) {
	actorURL, ok := m.actorURLs[subject]
	if !ok {
		return "", fmt.Errorf("no webfinger resource on %s for %s", domain, subject)
	}
	return actorURL, nil
}

func (m *mockFetcher) FetchObject(_ context.Context, uri string) (*ap.Object, error) {
	m.fetches = append(m.fetches, uri)
	object, ok := m.objects[uri]
	if !ok {
		return nil, fmt.Errorf("not found: %s", uri)
	}
	return object, nil
}

func (m *mockFetcher) FetchActor(ctx context.Context, uri string) (*ap.Object, error) {
	object, err := m.FetchObject(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !object.IsActor() {
		return nil, fmt.Errorf("not an actor: %s", uri)
	}
	return object, nil
}

func (m *mockFetcher) countFetches(uri string) int {
	count := 0
	for _, fetched := range m.fetches {
		if fetched == uri {
			count++
		}
	}
	return count
}

func testArchiver(t *testing.T, fetcher Fetcher, input *Input) *Archiver {
	t.Helper()
	if input.StaticBaseURL == "" {
		input.StaticBaseURL = "https://archive.example/"
	}
	if input.DefaultMaxPages <= 0 {
		input.DefaultMaxPages = defaultMaxPages
	}
	if input.PageItemsCount <= 0 {
		input.PageItemsCount = defaultPageItemCount
	}
	store, err := resource.Open(t.TempDir())
	require.NoError(t, err)
	archiver, err := New(fetcher, store, input)
	require.NoError(t, err)
	return archiver
}

func noteActivity(n int) (*ap.Object, *ap.Object) {
	note := &ap.Object{
		ID:   fmt.Sprintf("https://example.com/users/alice/statuses/%d", n),
		Type: []string{"Note"},
		ObjectItems: ap.ObjectItems{
			Content: []string{fmt.Sprintf("<p>post %d</p>", n)},
		},
	}
	activity := &ap.Object{
		ID:   note.ID + "/activity",
		Type: []string{"Create"},
		ActivityItems: ap.ActivityItems{
			Object: []ap.ObjectOrLink{ap.Embed(note)},
		},
	}
	return activity, note
}

// pageChain registers an outbox with K linked pages of one activity each
// and no declared totalItems.
func pageChain(fetcher *mockFetcher, pages int) (outboxURL string, pageURLs []string) {
	outboxURL = "https://example.com/users/alice/outbox"
	for i := 0; i < pages; i++ {
		pageURLs = append(pageURLs, fmt.Sprintf("%s?page=%d", outboxURL, i+1))
	}

	first := ap.Ref(pageURLs[0])
	fetcher.objects[outboxURL] = &ap.Object{
		ID:   outboxURL,
		Type: []string{"OrderedCollection"},
		CollectionItems: ap.CollectionItems{
			First: &first,
		},
	}

	for i, pageURL := range pageURLs {
		activity, _ := noteActivity(i + 1)
		page := &ap.Object{
			ID:   pageURL,
			Type: []string{"OrderedCollectionPage"},
			OrderedCollectionItems: ap.OrderedCollectionItems{
				OrderedItems: []ap.ObjectOrLink{ap.Embed(activity)},
			},
		}
		if i+1 < len(pageURLs) {
			next := ap.Ref(pageURLs[i+1])
			page.Next = &next
		}
		fetcher.objects[pageURL] = page
	}
	return outboxURL, pageURLs
}

func TestCrawlBudgetTruncatesCleanly(t *testing.T) {
	fetcher := newMockFetcher()
	outboxURL, pageURLs := pageChain(fetcher, 7)

	archiver := testArchiver(t, fetcher, &Input{DefaultMaxPages: 3})

	var got []string
	err := archiver.crawlOutbox(context.Background(), outboxURL, func(activity, object *ap.Object) error {
		got = append(got, object.ID)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, got, 3)
	for i, pageURL := range pageURLs {
		want := 0
		if i < 3 {
			want = 1
		}
		assert.Equal(t, want, fetcher.countFetches(pageURL), pageURL)
	}
}

func TestCrawlDeclaredTotalItemsIsTheBudget(t *testing.T) {
	fetcher := newMockFetcher()
	outboxURL, pageURLs := pageChain(fetcher, 5)
	fetcher.objects[outboxURL].TotalItems = ap.IntRef(2)

	archiver := testArchiver(t, fetcher, &Input{DefaultMaxPages: 100})

	count := 0
	err := archiver.crawlOutbox(context.Background(), outboxURL, func(activity, object *ap.Object) error {
		count++
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, 0, fetcher.countFetches(pageURLs[2]))
}

func TestCrawlEmptyOutbox(t *testing.T) {
	fetcher := newMockFetcher()
	outboxURL := "https://example.com/users/alice/outbox"
	fetcher.objects[outboxURL] = &ap.Object{
		ID:   outboxURL,
		Type: []string{"OrderedCollection"},
		CollectionItems: ap.CollectionItems{
			TotalItems: ap.IntRef(0),
		},
	}

	archiver := testArchiver(t, fetcher, &Input{})

	err := archiver.crawlOutbox(context.Background(), outboxURL, func(activity, object *ap.Object) error {
		t.Fatal("empty outbox must emit nothing")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{outboxURL}, fetcher.fetches)
}

func TestCrawlInlineItems(t *testing.T) {
	fetcher := newMockFetcher()
	activity, note := noteActivity(1)
	outboxURL := "https://example.com/users/alice/outbox"
	fetcher.objects[outboxURL] = &ap.Object{
		ID:   outboxURL,
		Type: []string{"OrderedCollection"},
		OrderedCollectionItems: ap.OrderedCollectionItems{
			OrderedItems: []ap.ObjectOrLink{ap.Embed(activity)},
		},
	}

	archiver := testArchiver(t, fetcher, &Input{})

	var got []string
	err := archiver.crawlOutbox(context.Background(), outboxURL, func(activity, object *ap.Object) error {
		got = append(got, object.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{note.ID}, got)
}

func TestCrawlDereferencesLinkedItems(t *testing.T) {
	fetcher := newMockFetcher()
	activity, note := noteActivity(1)
	activity.ActivityItems.Object = []ap.ObjectOrLink{ap.Ref(note.ID)}
	fetcher.objects[activity.ID] = activity
	fetcher.objects[note.ID] = note

	outboxURL := "https://example.com/users/alice/outbox"
	fetcher.objects[outboxURL] = &ap.Object{
		ID:   outboxURL,
		Type: []string{"OrderedCollection"},
		OrderedCollectionItems: ap.OrderedCollectionItems{
			OrderedItems: []ap.ObjectOrLink{ap.Ref(activity.ID)},
		},
	}

	archiver := testArchiver(t, fetcher, &Input{})

	var got []string
	err := archiver.crawlOutbox(context.Background(), outboxURL, func(activity, object *ap.Object) error {
		got = append(got, object.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{note.ID}, got)
	assert.Equal(t, 1, fetcher.countFetches(activity.ID))
	assert.Equal(t, 1, fetcher.countFetches(note.ID))
}

func TestCrawlSkipsAnnounces(t *testing.T) {
	fetcher := newMockFetcher()
	createActivity, note := noteActivity(1)
	announce := &ap.Object{
		ID:   "https://example.com/users/alice/statuses/2/activity",
		Type: []string{"Announce"},
		ActivityItems: ap.ActivityItems{
			Object: []ap.ObjectOrLink{ap.Ref("https://other.example/notes/9")},
		},
	}

	outboxURL := "https://example.com/users/alice/outbox"
	fetcher.objects[outboxURL] = &ap.Object{
		ID:   outboxURL,
		Type: []string{"OrderedCollection"},
		OrderedCollectionItems: ap.OrderedCollectionItems{
			OrderedItems: []ap.ObjectOrLink{ap.Embed(announce), ap.Embed(createActivity)},
		},
	}

	archiver := testArchiver(t, fetcher, &Input{})

	var got []string
	err := archiver.crawlOutbox(context.Background(), outboxURL, func(activity, object *ap.Object) error {
		got = append(got, object.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{note.ID}, got)
	assert.Equal(t, 0, fetcher.countFetches("https://other.example/notes/9"))
}

func TestCrawlIncludesAnnouncesWhenConfigured(t *testing.T) {
	fetcher := newMockFetcher()
	boosted := &ap.Object{
		ID:   "https://other.example/notes/9",
		Type: []string{"Note"},
	}
	fetcher.objects[boosted.ID] = boosted
	announce := &ap.Object{
		ID:   "https://example.com/users/alice/statuses/2/activity",
		Type: []string{"Announce"},
		ActivityItems: ap.ActivityItems{
			Object: []ap.ObjectOrLink{ap.Ref(boosted.ID)},
		},
	}

	outboxURL := "https://example.com/users/alice/outbox"
	fetcher.objects[outboxURL] = &ap.Object{
		ID:   outboxURL,
		Type: []string{"OrderedCollection"},
		OrderedCollectionItems: ap.OrderedCollectionItems{
			OrderedItems: []ap.ObjectOrLink{ap.Embed(announce)},
		},
	}

	archiver := testArchiver(t, fetcher, &Input{IncludeAnnounces: true})

	var got []string
	err := archiver.crawlOutbox(context.Background(), outboxURL, func(activity, object *ap.Object) error {
		got = append(got, object.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{boosted.ID}, got)
}
