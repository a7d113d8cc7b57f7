package archive

import (
	"context"

	"github.com/mizunashi-mana/archivedon/ap"
)

// Fetcher is the federation access the archiver depends on. client.Client
// is the production implementation.
type Fetcher interface {
	ResolveActor(ctx context.Context, domain, subject string) (string, error)
	FetchObject(ctx context.Context, uri string) (*ap.Object, error)
	FetchActor(ctx context.Context, uri string) (*ap.Object, error)
}
