package archive

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mizunashi-mana/archivedon/ap"
)

// dereference depth bound for nested object references; the remote data is
// untrusted and may chain links indefinitely.
const maxDerefDepth = 4

// crawlOutbox walks the outbox under a page budget and hands each accepted
// (activity, object) pair to emit. Budget exhaustion truncates the crawl
// cleanly.
func (a *Archiver) crawlOutbox(ctx context.Context, outboxURL string, emit func(activity, object *ap.Object) error) error {
	outbox, err := a.fetcher.FetchObject(ctx, outboxURL)
	if err != nil {
		return errors.Wrap(err, "fetch outbox")
	}

	if items := collectionItems(outbox); len(items) > 0 {
		return a.processItems(ctx, items, emit)
	}

	if outbox.TotalItems != nil && *outbox.TotalItems == 0 {
		return nil
	}
	if outbox.First == nil {
		return nil
	}

	budget := a.input.DefaultMaxPages
	if outbox.TotalItems != nil && *outbox.TotalItems > 0 {
		budget = *outbox.TotalItems
	}

	ref := outbox.First
	for ref != nil && budget > 0 {
		budget--

		page, err := a.derefPage(ctx, ref)
		if err != nil {
			return err
		}
		if err := a.processItems(ctx, collectionItems(page), emit); err != nil {
			return err
		}
		ref = page.Next
	}
	if ref != nil {
		log.Warn().Str("outbox", outboxURL).Msg("page budget exhausted, archive truncated")
	}
	return nil
}

func (a *Archiver) derefPage(ctx context.Context, ref *ap.ObjectOrLink) (*ap.Object, error) {
	if ref.Object != nil {
		return ref.Object, nil
	}
	if ref.Link == nil || ref.Link.Href == "" {
		return nil, errors.New("page reference carries no target")
	}
	page, err := a.fetcher.FetchObject(ctx, ref.Link.Href)
	if err != nil {
		return nil, errors.Wrap(err, "fetch outbox page")
	}
	return page, nil
}

func collectionItems(collection *ap.Object) []ap.ObjectOrLink {
	if len(collection.OrderedItems) > 0 {
		return collection.OrderedItems
	}
	return collection.Items
}

func (a *Archiver) processItems(ctx context.Context, items []ap.ObjectOrLink, emit func(activity, object *ap.Object) error) error {
	for _, item := range items {
		activity, err := a.derefObject(ctx, item, 0)
		if err != nil {
			return err
		}

		if !a.acceptActivity(activity) {
			continue
		}

		for i := range activity.ActivityItems.Object {
			object, err := a.derefObject(ctx, activity.ActivityItems.Object[i], 1)
			if err != nil {
				return err
			}
			if err := emit(activity, object); err != nil {
				return err
			}
		}
	}
	return nil
}

// acceptActivity applies the content policy: boosts are skipped unless
// include_announces is set.
func (a *Archiver) acceptActivity(activity *ap.Object) bool {
	if a.input.IncludeAnnounces {
		return true
	}
	if len(activity.Type) == 0 {
		return true
	}
	for _, typ := range activity.Type {
		if typ != "Announce" {
			return true
		}
	}
	return false
}

func (a *Archiver) derefObject(ctx context.Context, ref ap.ObjectOrLink, depth int) (*ap.Object, error) {
	if depth >= maxDerefDepth {
		return nil, errors.Errorf("object dereference too deep at %s", ref.Href())
	}
	if ref.Object != nil {
		return ref.Object, nil
	}
	if ref.Link == nil || ref.Link.Href == "" {
		return nil, errors.New("object reference carries no target")
	}
	object, err := a.fetcher.FetchObject(ctx, ref.Link.Href)
	if err != nil {
		return nil, errors.Wrapf(err, "dereference %s", ref.Link.Href)
	}
	return object, nil
}
