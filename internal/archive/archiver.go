// Package archive implements the archival pipeline: it resolves each input
// account, crawls its outbox under a page budget, rewrites every reachable
// object and activity under the static base URL, and emits the mirror's
// resource tree.
package archive

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mizunashi-mana/archivedon"
	"github.com/mizunashi-mana/archivedon/ap"
	"github.com/mizunashi-mana/archivedon/internal/resource"
	"github.com/mizunashi-mana/archivedon/internal/templates"
	"github.com/mizunashi-mana/archivedon/webfinger"
)

const (
	predefInboxPath                  = "predef/inbox.json"
	predefEmptyCollectionPath        = "predef/empty-collection.json"
	predefEmptyOrderedCollectionPath = "predef/empty-ordered-collection.json"
)

// predefURLs locate the shared stub resources every rewritten actor
// points at.
type predefURLs struct {
	inbox                  string
	emptyCollection        string
	emptyOrderedCollection string
}

type Archiver struct {
	fetcher   Fetcher
	store     *resource.Store
	templates *templates.Templates
	input     *Input

	staticBase *url.URL
	now        func() time.Time
}

func New(fetcher Fetcher, store *resource.Store, input *Input) (*Archiver, error) {
	staticBase, err := url.Parse(input.StaticBaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse static base url %s", input.StaticBaseURL)
	}
	tmpls, err := templates.New()
	if err != nil {
		return nil, err
	}
	return &Archiver{
		fetcher:    fetcher,
		store:      store,
		templates:  tmpls,
		input:      input,
		staticBase: staticBase,
		now:        time.Now,
	}, nil
}

// Run archives every input account. A failing account is logged and
// skipped; Run reports an error when any account failed.
func (a *Archiver) Run(ctx context.Context) error {
	indexPage, err := a.templates.RenderIndex(templates.IndexParams{
		Title:       a.input.Title,
		Description: a.input.Description,
	})
	if err != nil {
		return err
	}
	if err := a.store.SaveIndexHTML(indexPage); err != nil {
		return err
	}

	predefs, err := a.savePredefs()
	if err != nil {
		return err
	}

	failed := 0
	for _, handle := range a.input.Accounts {
		if err := a.archiveAccount(ctx, predefs, handle); err != nil {
			log.Error().Err(err).Str("account", handle).Msg("account archival failed")
			failed++
			continue
		}
		log.Info().Str("account", handle).Msg("account archived")
	}
	if failed > 0 {
		return errors.Errorf("%d of %d accounts failed", failed, len(a.input.Accounts))
	}
	return nil
}

func (a *Archiver) savePredefs() (*predefURLs, error) {
	urls := &predefURLs{
		inbox:                  a.staticBase.JoinPath(predefInboxPath).String(),
		emptyCollection:        a.staticBase.JoinPath(predefEmptyCollectionPath).String(),
		emptyOrderedCollection: a.staticBase.JoinPath(predefEmptyOrderedCollectionPath).String(),
	}

	// The archived inbox accepts nothing; it serves a 404-shaped body.
	if err := a.store.SaveStaticJSON(predefInboxPath, map[string]string{"error": "Not Found"}); err != nil {
		return nil, err
	}

	emptyCollection := ap.NewCollection(urls.emptyCollection, []string{"Collection"}, ap.IntRef(0), nil, nil, nil, nil)
	if err := a.store.SaveStaticJSON(predefEmptyCollectionPath, emptyCollection); err != nil {
		return nil, err
	}

	emptyOrdered := ap.NewCollection(urls.emptyOrderedCollection, []string{"OrderedCollection"}, ap.IntRef(0), nil, nil, nil, nil)
	if err := a.store.SaveStaticJSON(predefEmptyOrderedCollectionPath, emptyOrdered); err != nil {
		return nil, err
	}

	return urls, nil
}

func (a *Archiver) archiveAccount(ctx context.Context, predefs *predefURLs, handle string) error {
	account, err := archivedon.ParseAccount(handle, a.staticBase)
	if err != nil {
		return err
	}

	actorURL, err := a.fetcher.ResolveActor(ctx, account.Domain, account.Subject)
	if err != nil {
		return errors.Wrap(err, "resolve actor")
	}

	actor, err := a.fetcher.FetchActor(ctx, actorURL)
	if err != nil {
		return errors.Wrap(err, "fetch actor")
	}

	suspended := actor.Suspended != nil && *actor.Suspended
	if !suspended && actor.MovedTo == "" {
		log.Warn().Str("account", handle).Msg("account is neither suspended nor moved")
	}

	outboxURL := predefs.emptyOrderedCollection
	if a.input.FetchOutbox && actor.Actor.Outbox != "" {
		if err := a.archiveOutbox(ctx, account, actor.Actor.Outbox); err != nil {
			return err
		}
		outboxURL = account.OutboxURL(a.staticBase)
	}

	if err := a.saveWebfinger(account); err != nil {
		return err
	}
	if err := a.saveProfile(account, actor); err != nil {
		return err
	}
	return a.saveActor(account, actor, predefs, outboxURL)
}

// archiveOutbox crawls the original outbox and streams every accepted
// activity through the rewriter into a fresh page chain.
func (a *Archiver) archiveOutbox(ctx context.Context, account archivedon.Account, outboxURL string) error {
	paginator, err := NewPaginator(account, a.staticBase, a.store, a.input.PageItemsCount)
	if err != nil {
		return err
	}

	err = a.crawlOutbox(ctx, outboxURL, func(activity, object *ap.Object) error {
		result, err := rewriteObject(account, a.staticBase, object, a.now())
		if err != nil {
			return err
		}
		newActivity := rewriteActivity(account, a.staticBase, activity, result)

		if err := a.saveEntity(account, result); err != nil {
			return err
		}
		return paginator.Push(result.id, ap.Ref(newActivity.ID))
	})
	if err != nil {
		return err
	}

	_, err = paginator.Finish()
	return err
}

func (a *Archiver) saveEntity(account archivedon.Account, result *rewritten) error {
	if err := a.store.SaveStaticJSON(account.EntityPath(result.id, "json"), result.object); err != nil {
		return err
	}
	if err := a.store.SaveStaticJSON(account.EntityPath(result.id+"/activity", "json"), result.activity); err != nil {
		return err
	}

	page, err := a.templates.RenderObject(templates.ObjectParams{
		Type:      firstOr(result.object.Type, "Object"),
		Account:   account.Handle(),
		ObjectURL: result.object.ID,
		Summary:   firstOr(result.object.Summary, ""),
		Content:   htmlOr(result.object.Content),
		Published: formatTime(result.object.Published),
	})
	if err != nil {
		return err
	}
	if err := a.store.SaveStaticText(account.EntityPath(result.id, "html"), page); err != nil {
		return err
	}

	if result.originalURL != nil {
		newURL, err := url.Parse(result.object.ID)
		if err != nil {
			return errors.Wrapf(err, "parse rewritten object url %s", result.object.ID)
		}
		if err := a.store.RegisterRedirects(result.originalURL, newURL, result.mediaTypes); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archiver) saveWebfinger(account archivedon.Account) error {
	return a.store.SaveWebfinger(&webfinger.Resource{
		Subject: account.Subject,
		Aliases: []string{account.ActorURL, account.ProfileURL},
		Links: []webfinger.Link{
			{
				Rel:  webfinger.RelSelf,
				Type: "application/activity+json",
				Href: account.ActorURL,
			},
			{
				Rel:  webfinger.RelProfilePage,
				Type: "text/html",
				Href: account.ProfileURL,
			},
		},
	})
}

func (a *Archiver) saveProfile(account archivedon.Account, actor *ap.Object) error {
	page, err := a.templates.RenderProfile(templates.ProfileParams{
		Type:     firstOr(actor.Type, "Person"),
		Account:  account.Handle(),
		ActorURL: account.ActorURL,
		Name:     firstOr(actor.Name, ""),
		Summary:  htmlOr(actor.Summary),
		MovedTo:  actor.MovedTo,
	})
	if err != nil {
		return err
	}
	return a.store.SaveStaticText(account.ProfilePath, page)
}

// saveActor re-emits the actor under its archive address: suspended, with
// its collections replaced by the predef stubs and its live endpoints
// cleared, pointing at the rebuilt outbox when one was written.
func (a *Archiver) saveActor(account archivedon.Account, actor *ap.Object, predefs *predefURLs, outboxURL string) error {
	newActor := *actor
	newActor.ID = account.ActorURL
	newActor.Suspended = ap.BoolRef(true)
	newActor.URL = ap.LinkTo(account.ProfileURL)
	newActor.Featured = predefs.emptyOrderedCollection
	newActor.FeaturedTags = predefs.emptyCollection
	newActor.Devices = predefs.emptyCollection

	items := *actor.Actor
	items.Inbox = predefs.inbox
	items.Outbox = outboxURL
	items.Following = predefs.emptyOrderedCollection
	items.Followers = predefs.emptyOrderedCollection
	items.Endpoints = nil
	newActor.Actor = &items

	return a.store.SaveStaticJSON(account.ActorPath, &newActor)
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}

func htmlOr(values []string) templates.HTML {
	if len(values) > 0 {
		return templates.HTML(values[0])
	}
	return ""
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
