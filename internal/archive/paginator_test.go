package archive

import (
	"fmt"
	"net/url"
	"os"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizunashi-mana/archivedon"
	"github.com/mizunashi-mana/archivedon/ap"
	"github.com/mizunashi-mana/archivedon/internal/resource"
)

func testAccount(t *testing.T, staticBase *url.URL) archivedon.Account {
	t.Helper()
	account, err := archivedon.ParseAccount("alice@example.com", staticBase)
	require.NoError(t, err)
	return account
}

func loadStaticObject(t *testing.T, store *resource.Store, path string) *ap.Object {
	t.Helper()
	data, err := os.ReadFile(store.Paths().StaticResource(path))
	require.NoError(t, err)
	var object ap.Object
	require.NoError(t, json.Unmarshal(data, &object))
	return &object
}

func TestPaginatorRequiresPositivePageSize(t *testing.T) {
	staticBase, _ := url.Parse("https://archive.example/")
	store, err := resource.Open(t.TempDir())
	require.NoError(t, err)

	_, err = NewPaginator(testAccount(t, staticBase), staticBase, store, 0)
	require.Error(t, err)
}

func TestPaginatorFlushContract(t *testing.T) {
	staticBase, _ := url.Parse("https://archive.example/")
	store, err := resource.Open(t.TempDir())
	require.NoError(t, err)
	account := testAccount(t, staticBase)

	const pageSize = 3
	paginator, err := NewPaginator(account, staticBase, store, pageSize)
	require.NoError(t, err)

	total := pageSize*3 + 2
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("%d", 100+i)
		require.NoError(t, paginator.Push(id, ap.Ref(account.EntityURL(staticBase, id+"/activity", "json"))))
	}

	outbox, err := paginator.Finish()
	require.NoError(t, err)

	require.NotNil(t, outbox.TotalItems)
	assert.Equal(t, total, *outbox.TotalItems)

	// Pages are named after their first buffered item.
	firstIDs := []string{"100", "103", "106", "109"}
	wantCounts := []int{pageSize, pageSize, pageSize, 2}

	firstPageURL := account.EntityURL(staticBase, firstIDs[0]+"/page", "json")
	require.NotNil(t, outbox.First)
	assert.Equal(t, firstPageURL, outbox.First.Href())
	require.NotNil(t, outbox.Last)
	assert.Equal(t, account.EntityURL(staticBase, firstIDs[3]+"/page", "json"), outbox.Last.Href())

	var prevURL string
	for i, firstID := range firstIDs {
		page := loadStaticObject(t, store, account.EntityPath(firstID+"/page", "json"))
		assert.Equal(t, []string{"OrderedCollectionPage"}, page.Type)
		assert.Len(t, page.OrderedItems, wantCounts[i])

		require.NotNil(t, page.First, "page %d", i)
		assert.Equal(t, firstPageURL, page.First.Href())

		require.NotNil(t, page.PartOf)
		assert.Equal(t, account.OutboxURL(staticBase), page.PartOf.Href())

		if i == 0 {
			assert.Nil(t, page.Prev)
		} else {
			require.NotNil(t, page.Prev, "page %d", i)
			assert.Equal(t, prevURL, page.Prev.Href())
		}
		prevURL = page.ID
	}
}

func TestPaginatorEmptyFinish(t *testing.T) {
	staticBase, _ := url.Parse("https://archive.example/")
	store, err := resource.Open(t.TempDir())
	require.NoError(t, err)
	account := testAccount(t, staticBase)

	paginator, err := NewPaginator(account, staticBase, store, 10)
	require.NoError(t, err)

	outbox, err := paginator.Finish()
	require.NoError(t, err)
	require.NotNil(t, outbox.TotalItems)
	assert.Equal(t, 0, *outbox.TotalItems)
	assert.Nil(t, outbox.First)
	assert.Nil(t, outbox.Last)

	written := loadStaticObject(t, store, account.OutboxPath())
	assert.Equal(t, []string{"OrderedCollection"}, written.Type)
	require.NotNil(t, written.TotalItems)
	assert.Equal(t, 0, *written.TotalItems)
	assert.Nil(t, written.First)
	assert.Nil(t, written.Last)
}
