// Package ap holds the canonical in-memory model for ActivityPub
// documents and its JSON-LD-aware wire codec.
//
// The model flattens every vocabulary extension onto one Object type,
// grouped into independently zero-valued item sets, so an empty Object is
// a valid empty document. Multi-valued properties are ordered slices; the
// wire codec maps them through the lax absent/bare/array convention.
//
// Reference: https://www.w3.org/ns/activitystreams
package ap

import "time"

// Object represents any ActivityPub Object, Actor, Activity, Collection
// or page. Actor is nil unless the document carries the full mandatory
// actor property set (inbox, outbox, followers, following).
type Object struct {
	SchemaContext *Context
	ID            string
	Type          []string

	ObjectItems
	Actor *ActorItems
	ActivityItems
	CollectionItems
	OrderedCollectionItems
	CollectionPageItems
	OrderedCollectionPageItems
	RelationshipItems
	TombstoneItems
	QuestionItems
	PlaceItems
	ASExtItems
	MastodonExtItems
	SecurityItems
}

// Link is an indirect reference to a resource. A Link carrying nothing but
// Href is wire-equivalent to a bare URI string.
//
// Reference: https://www.w3.org/TR/activitystreams-vocabulary/#dfn-link
type Link struct {
	SchemaContext *Context
	ID            string
	Type          []string

	Href      string
	Height    *int
	Hreflang  string
	MediaType []string
	Rel       []string
	Width     *int
}

// LinkTo builds the href-only Link a bare URI string decodes to.
func LinkTo(href string) *Link {
	return &Link{Href: href}
}

// Plain reports whether the link carries no attribute beyond Href, i.e.
// whether it round-trips through a bare string.
func (l *Link) Plain() bool {
	return l.ID == "" &&
		len(l.Type) == 0 &&
		l.Height == nil &&
		l.Hreflang == "" &&
		len(l.MediaType) == 0 &&
		len(l.Rel) == 0 &&
		l.Width == nil
}

// ObjectOrLink is the sum of an embedded Object and a Link; exactly one
// side is non-nil.
type ObjectOrLink struct {
	Link   *Link
	Object *Object
}

// Ref wraps a bare URI.
func Ref(href string) ObjectOrLink {
	return ObjectOrLink{Link: LinkTo(href)}
}

// Embed wraps an inline object.
func Embed(o *Object) ObjectOrLink {
	return ObjectOrLink{Object: o}
}

// Href returns the target URI of the value: the link href, or the embedded
// object's id.
func (r ObjectOrLink) Href() string {
	if r.Link != nil {
		return r.Link.Href
	}
	if r.Object != nil {
		return r.Object.ID
	}
	return ""
}

// ObjectItems are the core Object properties.
//
// Reference: https://www.w3.org/ns/activitystreams#Object
type ObjectItems struct {
	Attachment   []ObjectOrLink
	AttributedTo []ObjectOrLink
	Audience     []ObjectOrLink
	BCC          []ObjectOrLink
	BTO          []ObjectOrLink
	CC           []ObjectOrLink
	Context      []ObjectOrLink
	Generator    []ObjectOrLink
	// Range: Image | Link
	Icon []ObjectOrLink
	// Range: Image | Link
	Image     []ObjectOrLink
	InReplyTo []ObjectOrLink
	Location  []ObjectOrLink
	Preview   []ObjectOrLink
	// Range: Collection
	Replies *Object
	Tag     []ObjectOrLink
	To      []ObjectOrLink
	// URL follows the same bare-string equivalence as ObjectOrLink.
	URL        *Link
	Content    []string
	ContentMap map[string]string
	Name       []string
	NameMap    map[string]string
	Duration   string
	MediaType  []string
	EndTime    *time.Time
	Published  *time.Time
	Summary    []string
	SummaryMap map[string]string
	Updated    *time.Time
	Describes  *Object
}

// ActorItems are the Actor-only properties. The four collection URLs are
// mandatory as a set; NewActorItems and the codec both enforce that.
//
// Reference: https://www.w3.org/ns/activitystreams#Actor
type ActorItems struct {
	Inbox             string
	Outbox            string
	Following         string
	Followers         string
	PreferredUsername string
	Endpoints         map[string]string
}

// NewActorItems builds the mandatory actor property set.
func NewActorItems(inbox, outbox, following, followers string) *ActorItems {
	return &ActorItems{
		Inbox:     inbox,
		Outbox:    outbox,
		Following: following,
		Followers: followers,
	}
}

// Reference: https://www.w3.org/ns/activitystreams#Activity
type ActivityItems struct {
	Actor      []ObjectOrLink
	Instrument []ObjectOrLink
	Origin     []ObjectOrLink
	Object     []ObjectOrLink
	Result     []ObjectOrLink
	Target     []ObjectOrLink
}

// Reference: https://www.w3.org/ns/activitystreams#Collection
type CollectionItems struct {
	TotalItems *int
	// Range: CollectionPage | Link
	Current *ObjectOrLink
	// Range: CollectionPage | Link
	First *ObjectOrLink
	// Range: CollectionPage | Link
	Last  *ObjectOrLink
	Items []ObjectOrLink
}

// Reference: https://www.w3.org/ns/activitystreams#OrderedCollection
type OrderedCollectionItems struct {
	OrderedItems []ObjectOrLink
}

// Reference: https://www.w3.org/ns/activitystreams#CollectionPage
type CollectionPageItems struct {
	Next *ObjectOrLink
	Prev *ObjectOrLink
	// Range: Link | Collection
	PartOf *ObjectOrLink
}

// Reference: https://www.w3.org/ns/activitystreams#OrderedCollectionPage
type OrderedCollectionPageItems struct {
	StartIndex *int
}

// Reference: https://www.w3.org/ns/activitystreams#Relationship
type RelationshipItems struct {
	Subject      *ObjectOrLink
	Relationship []*Object
}

// Reference: https://www.w3.org/ns/activitystreams#Tombstone
type TombstoneItems struct {
	FormerType []*Object
	Deleted    *time.Time
}

// Reference: https://www.w3.org/ns/activitystreams#Question
type QuestionItems struct {
	OneOf []ObjectOrLink
	AnyOf []ObjectOrLink
	// Closed is carried opaquely; the vocabulary allows several shapes.
	Closed RawValue
}

// Reference: https://www.w3.org/ns/activitystreams#Place
type PlaceItems struct {
	Accuracy  *float64
	Altitude  *float64
	Latitude  *float64
	Longitude *float64
	Radius    *float64
	Units     string
}

// ASExtItems are the ActivityStreams extension terms Mastodon publishes.
//
// Reference: https://docs.joinmastodon.org/spec/activitypub/#as
type ASExtItems struct {
	ManuallyApprovesFollowers *bool
	AlsoKnownAs               []string
	MovedTo                   string
}

// MastodonExtItems are the toot: namespace terms.
//
// Reference: https://docs.joinmastodon.org/spec/activitypub/#toot
type MastodonExtItems struct {
	Featured     string
	FeaturedTags string
	Discoverable *bool
	Suspended    *bool
	Devices      string
}

// Reference: https://w3id.org/security/v1
type SecurityItems struct {
	PublicKey *Key
}

// Key is a security vocabulary public key, passed through unverified.
type Key struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem,omitempty"`
}

// NewCollection assembles a (Ordered)Collection document under the plain
// ActivityStreams context.
func NewCollection(id string, typ []string, totalItems *int, first, last *ObjectOrLink, items, orderedItems []ObjectOrLink) *Object {
	return &Object{
		SchemaContext: PureContext(),
		ID:            id,
		Type:          typ,
		CollectionItems: CollectionItems{
			TotalItems: totalItems,
			First:      first,
			Last:       last,
			Items:      items,
		},
		OrderedCollectionItems: OrderedCollectionItems{
			OrderedItems: orderedItems,
		},
	}
}

// IsActor reports whether the document carries the mandatory actor set.
func (o *Object) IsActor() bool {
	return o.Actor != nil
}

// HasType reports whether typ is among the document's type values.
func (o *Object) HasType(typ string) bool {
	for _, t := range o.Type {
		if t == typ {
			return true
		}
	}
	return false
}

// IntRef is a convenience for optional wire integers.
func IntRef(v int) *int { return &v }

// BoolRef is a convenience for optional wire booleans.
func BoolRef(v bool) *bool { return &v }
