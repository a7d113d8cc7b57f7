package archivedon

import (
	"fmt"
	"net/url"
	"strings"
)

// Account is the immutable per-handle value the archiver works on. All
// destination paths are relative to the static resource root; the URLs are
// the same paths resolved against the configured base.
type Account struct {
	Username string
	Domain   string

	// Subject is the acct: identifier used for WebFinger lookup and the
	// archived WebFinger resource.
	Subject string

	// ActorPath and ProfilePath locate the rewritten actor document and
	// its HTML profile page under the static root.
	ActorPath   string
	ProfilePath string

	// ResourcePrefix is the per-account directory all rewritten entities
	// live under.
	ResourcePrefix string

	ActorURL   string
	ProfileURL string
}

// ParseAccount parses a user@domain handle (with optional leading @) and
// derives the account's destination layout under staticBase.
func ParseAccount(handle string, staticBase *url.URL) (Account, error) {
	stripped := strings.TrimPrefix(handle, "@")

	username, domain, found := strings.Cut(stripped, "@")
	if !found || username == "" || domain == "" {
		return Account{}, fmt.Errorf("illegal account: %s", handle)
	}

	actorPath := fmt.Sprintf("users/%s/%s.json", domain, username)
	profilePath := fmt.Sprintf("users/%s/%s.html", domain, username)
	prefix := fmt.Sprintf("users/%s/%s", domain, username)

	return Account{
		Username:       username,
		Domain:         domain,
		Subject:        fmt.Sprintf("acct:%s@%s", username, domain),
		ActorPath:      actorPath,
		ProfilePath:    profilePath,
		ResourcePrefix: prefix,
		ActorURL:       staticBase.JoinPath(actorPath).String(),
		ProfileURL:     staticBase.JoinPath(profilePath).String(),
	}, nil
}

// Handle returns the user@domain form without the acct: scheme.
func (a Account) Handle() string {
	return fmt.Sprintf("%s@%s", a.Username, a.Domain)
}

// EntityPath returns the static-relative path of a rewritten entity
// resource, e.g. EntityPath("123", "json") or EntityPath("123/activity", "json").
func (a Account) EntityPath(name, ext string) string {
	return fmt.Sprintf("%s/entities/%s.%s", a.ResourcePrefix, name, ext)
}

// EntityURL resolves EntityPath against the static base.
func (a Account) EntityURL(staticBase *url.URL, name, ext string) string {
	return staticBase.JoinPath(a.EntityPath(name, ext)).String()
}

// OutboxPath locates the account's rewritten outbox collection.
func (a Account) OutboxPath() string {
	return a.ResourcePrefix + "/outbox.json"
}

func (a Account) OutboxURL(staticBase *url.URL) string {
	return staticBase.JoinPath(a.OutboxPath()).String()
}
