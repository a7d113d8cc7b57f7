package archive

import (
	"net/url"

	"github.com/pkg/errors"

	"github.com/mizunashi-mana/archivedon"
	"github.com/mizunashi-mana/archivedon/ap"
	"github.com/mizunashi-mana/archivedon/internal/resource"
)

// Paginator rebuilds an account's outbox as a fixed-size page chain. It is
// fed one rewritten activity at a time; a full buffer flushes an
// OrderedCollectionPage named after its first item, and Finish writes the
// outer OrderedCollection with the final first/last links.
type Paginator struct {
	account    archivedon.Account
	staticBase *url.URL
	store      *resource.Store
	pageSize   int

	buffered    []ap.ObjectOrLink
	firstItemID string
	total       int

	firstPageURL string
	prevPageURL  string
	lastPageURL  string
}

func NewPaginator(account archivedon.Account, staticBase *url.URL, store *resource.Store, pageSize int) (*Paginator, error) {
	if pageSize <= 0 {
		return nil, errors.Errorf("page size must be positive, got %d", pageSize)
	}
	return &Paginator{
		account:    account,
		staticBase: staticBase,
		store:      store,
		pageSize:   pageSize,
	}, nil
}

// Push buffers one activity under the id its page may be named after.
func (p *Paginator) Push(id string, item ap.ObjectOrLink) error {
	if len(p.buffered) == 0 {
		p.firstItemID = id
	}
	p.buffered = append(p.buffered, item)
	p.total++

	if len(p.buffered) >= p.pageSize {
		return p.flush()
	}
	return nil
}

func (p *Paginator) flush() error {
	pageName := p.firstItemID + "/page"
	pageURL := p.account.EntityURL(p.staticBase, pageName, "json")

	if p.firstPageURL == "" {
		p.firstPageURL = pageURL
	}

	page := &ap.Object{
		SchemaContext: ap.PureContext(),
		ID:            pageURL,
		Type:          []string{"OrderedCollectionPage"},
		OrderedCollectionItems: ap.OrderedCollectionItems{
			OrderedItems: p.buffered,
		},
	}
	first := ap.Ref(p.firstPageURL)
	page.First = &first
	partOf := ap.Ref(p.account.OutboxURL(p.staticBase))
	page.PartOf = &partOf
	if p.prevPageURL != "" {
		prev := ap.Ref(p.prevPageURL)
		page.Prev = &prev
	}

	if err := p.store.SaveStaticJSON(p.account.EntityPath(pageName, "json"), page); err != nil {
		return err
	}

	p.prevPageURL = pageURL
	p.lastPageURL = pageURL
	p.buffered = nil
	p.firstItemID = ""
	return nil
}

// Finish flushes any partial page and writes the outer OrderedCollection,
// returning it. first and last are absent when no page was ever flushed.
func (p *Paginator) Finish() (*ap.Object, error) {
	if len(p.buffered) > 0 {
		if err := p.flush(); err != nil {
			return nil, err
		}
	}

	var first, last *ap.ObjectOrLink
	if p.firstPageURL != "" {
		firstRef := ap.Ref(p.firstPageURL)
		first = &firstRef
		lastRef := ap.Ref(p.lastPageURL)
		last = &lastRef
	}

	outbox := ap.NewCollection(
		p.account.OutboxURL(p.staticBase),
		[]string{"OrderedCollection"},
		ap.IntRef(p.total),
		first,
		last,
		nil,
		nil,
	)
	if err := p.store.SaveStaticJSON(p.account.OutboxPath(), outbox); err != nil {
		return nil, err
	}
	return outbox, nil
}
