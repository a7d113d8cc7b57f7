// Package client fetches ActivityPub and WebFinger resources from remote
// servers. It never follows redirects: archival targets are expected to
// answer directly, and a redirect is surfaced as an explicit failure.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/mizunashi-mana/archivedon"
	"github.com/mizunashi-mana/archivedon/ap"
	"github.com/mizunashi-mana/archivedon/webfinger"
)

var tracer = otel.Tracer("client")

const (
	defaultTimeout = 30 * time.Second

	activityJSONType = "application/activity+json"
)

type Client struct {
	client    *http.Client
	userAgent string
}

func New() *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
		// Redirection is unsupported; keep the 3xx response so the
		// status-code policy can reject it.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	c := &Client{
		client:    &httpClient,
		userAgent: fmt.Sprintf("%s/%s", archivedon.ProgName, archivedon.ProgVersion),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// StatusError reports a fetch that answered with an unexpected status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

func (e StatusError) Is(target error) bool {
	_, ok := target.(StatusError)
	if ok {
		return true
	}
	_, ok = target.(*StatusError)
	return ok
}

// RedirectionError reports a 3xx answer; redirects are categorically
// unsupported during archival.
type RedirectionError struct {
	URL        string
	StatusCode int
}

func (e RedirectionError) Error() string {
	return fmt.Sprintf("redirection not supported: status %d from %s", e.StatusCode, e.URL)
}

func (e RedirectionError) Is(target error) bool {
	_, ok := target.(RedirectionError)
	if ok {
		return true
	}
	_, ok = target.(*RedirectionError)
	return ok
}

// get performs one GET and returns the body on 200, applying the strict
// status-code policy otherwise.
func (c *Client) get(ctx context.Context, uri string, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", uri)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// continue
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return nil, RedirectionError{URL: uri, StatusCode: resp.StatusCode}
	default:
		return nil, StatusError{URL: uri, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", uri)
	}
	return body, nil
}

// FetchObject fetches and decodes one ActivityPub document.
func (c *Client) FetchObject(ctx context.Context, uri string) (*ap.Object, error) {
	ctx, span := tracer.Start(ctx, "Client.FetchObject")
	defer span.End()

	body, err := c.get(ctx, uri, activityJSONType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var object ap.Object
	if err := json.Unmarshal(body, &object); err != nil {
		err = errors.Wrapf(err, "decode %s", uri)
		span.RecordError(err)
		return nil, err
	}
	return &object, nil
}

// FetchActor fetches an ActivityPub document and requires it to carry the
// full actor property set.
func (c *Client) FetchActor(ctx context.Context, uri string) (*ap.Object, error) {
	object, err := c.FetchObject(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !object.IsActor() {
		return nil, fmt.Errorf("document %s carries no actor items", uri)
	}
	return object, nil
}

// ResolveActor resolves an acct: subject through the domain's WebFinger
// endpoint and returns the actor document URL from its self link. No
// caching, no retries.
func (c *Client) ResolveActor(ctx context.Context, domain, subject string) (string, error) {
	ctx, span := tracer.Start(ctx, "Client.ResolveActor")
	defer span.End()

	endpoint := url.URL{
		Scheme:   "https",
		Host:     domain,
		Path:     "/.well-known/webfinger",
		RawQuery: url.Values{"resource": {subject}}.Encode(),
	}

	body, err := c.get(ctx, endpoint.String(), "")
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	var resource webfinger.Resource
	if err := json.Unmarshal(body, &resource); err != nil {
		err = errors.Wrapf(err, "decode webfinger resource for %s", subject)
		span.RecordError(err)
		return "", err
	}

	for _, link := range resource.Links {
		if link.Rel != webfinger.RelSelf {
			continue
		}
		if link.Type != "" && link.Type != activityJSONType {
			return "", fmt.Errorf("self link of %s has unexpected type: %s", subject, link.Type)
		}
		if link.Href == "" {
			return "", fmt.Errorf("self link of %s has no href", subject)
		}
		return link.Href, nil
	}

	return "", fmt.Errorf("no self link found for %s", subject)
}
