package ap

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// RawValue is an opaque JSON fragment carried through without
// interpretation.
type RawValue = json.RawMessage

// marshalLax encodes a multi-valued property: empty omits the field, a
// single value encodes bare, anything longer encodes as an array in order.
func marshalLax[T any](xs []T) (RawValue, error) {
	switch len(xs) {
	case 0:
		return nil, nil
	case 1:
		return json.Marshal(xs[0])
	default:
		return json.Marshal(xs)
	}
}

// unmarshalLax decodes the lax wire form back into an ordered slice: an
// absent field is empty, an array decodes element-wise, any other value
// decodes as a single element.
func unmarshalLax[T any](raw RawValue) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if firstByte(raw) == '[' {
		var xs []T
		if err := json.Unmarshal(raw, &xs); err != nil {
			return nil, err
		}
		return xs, nil
	}
	var x T
	if err := json.Unmarshal(raw, &x); err != nil {
		return nil, err
	}
	return []T{x}, nil
}

// wireObject is the loose JSON-LD document shape. Multi-valued properties
// stay raw until the lax codec resolves them.
type wireObject struct {
	SchemaContext *Context `json:"@context,omitempty"`
	ID            string   `json:"id,omitempty"`
	Type          RawValue `json:"type,omitempty"`

	// https://www.w3.org/ns/activitystreams#Object
	Attachment   RawValue          `json:"attachment,omitempty"`
	AttributedTo RawValue          `json:"attributedTo,omitempty"`
	Audience     RawValue          `json:"audience,omitempty"`
	BCC          RawValue          `json:"bcc,omitempty"`
	BTO          RawValue          `json:"bto,omitempty"`
	CC           RawValue          `json:"cc,omitempty"`
	Context      RawValue          `json:"context,omitempty"`
	Generator    RawValue          `json:"generator,omitempty"`
	Icon         RawValue          `json:"icon,omitempty"`
	Image        RawValue          `json:"image,omitempty"`
	InReplyTo    RawValue          `json:"inReplyTo,omitempty"`
	Location     RawValue          `json:"location,omitempty"`
	Preview      RawValue          `json:"preview,omitempty"`
	Replies      *Object           `json:"replies,omitempty"`
	Tag          RawValue          `json:"tag,omitempty"`
	To           RawValue          `json:"to,omitempty"`
	URL          RawValue          `json:"url,omitempty"`
	Content      RawValue          `json:"content,omitempty"`
	ContentMap   map[string]string `json:"contentMap,omitempty"`
	Name         RawValue          `json:"name,omitempty"`
	NameMap      map[string]string `json:"nameMap,omitempty"`
	Duration     string            `json:"duration,omitempty"`
	MediaType    RawValue          `json:"mediaType,omitempty"`
	EndTime      *time.Time        `json:"endTime,omitempty"`
	Published    *time.Time        `json:"published,omitempty"`
	Summary      RawValue          `json:"summary,omitempty"`
	SummaryMap   map[string]string `json:"summaryMap,omitempty"`
	Updated      *time.Time        `json:"updated,omitempty"`
	Describes    *Object           `json:"describes,omitempty"`

	// https://www.w3.org/ns/activitystreams#Actor
	Inbox             *string           `json:"inbox,omitempty"`
	Outbox            *string           `json:"outbox,omitempty"`
	Following         *string           `json:"following,omitempty"`
	Followers         *string           `json:"followers,omitempty"`
	PreferredUsername string            `json:"preferredUsername,omitempty"`
	Endpoints         map[string]string `json:"endpoints,omitempty"`

	// https://www.w3.org/ns/activitystreams#Activity
	Actor      RawValue `json:"actor,omitempty"`
	Instrument RawValue `json:"instrument,omitempty"`
	Origin     RawValue `json:"origin,omitempty"`
	Object     RawValue `json:"object,omitempty"`
	Result     RawValue `json:"result,omitempty"`
	Target     RawValue `json:"target,omitempty"`

	// https://www.w3.org/ns/activitystreams#Collection
	TotalItems *int          `json:"totalItems,omitempty"`
	Current    *ObjectOrLink `json:"current,omitempty"`
	First      *ObjectOrLink `json:"first,omitempty"`
	Last       *ObjectOrLink `json:"last,omitempty"`
	Items      RawValue      `json:"items,omitempty"`

	// https://www.w3.org/ns/activitystreams#OrderedCollection
	OrderedItems RawValue `json:"orderedItems,omitempty"`

	// https://www.w3.org/ns/activitystreams#CollectionPage
	Next   *ObjectOrLink `json:"next,omitempty"`
	Prev   *ObjectOrLink `json:"prev,omitempty"`
	PartOf *ObjectOrLink `json:"partOf,omitempty"`

	// https://www.w3.org/ns/activitystreams#OrderedCollectionPage
	StartIndex *int `json:"startIndex,omitempty"`

	// https://www.w3.org/ns/activitystreams#Relationship
	Subject      *ObjectOrLink `json:"subject,omitempty"`
	Relationship RawValue      `json:"relationship,omitempty"`

	// https://www.w3.org/ns/activitystreams#Tombstone
	FormerType RawValue   `json:"formerType,omitempty"`
	Deleted    *time.Time `json:"deleted,omitempty"`

	// https://www.w3.org/ns/activitystreams#Question
	OneOf  RawValue `json:"oneOf,omitempty"`
	AnyOf  RawValue `json:"anyOf,omitempty"`
	Closed RawValue `json:"closed,omitempty"`

	// https://www.w3.org/ns/activitystreams#Place
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
	Units     string   `json:"units,omitempty"`

	// https://docs.joinmastodon.org/spec/activitypub/#as
	ManuallyApprovesFollowers *bool    `json:"manuallyApprovesFollowers,omitempty"`
	AlsoKnownAs               RawValue `json:"alsoKnownAs,omitempty"`
	MovedTo                   string   `json:"movedTo,omitempty"`

	// https://docs.joinmastodon.org/spec/activitypub/#toot
	Featured     string `json:"featured,omitempty"`
	FeaturedTags string `json:"featuredTags,omitempty"`
	Discoverable *bool  `json:"discoverable,omitempty"`
	Suspended    *bool  `json:"suspended,omitempty"`
	Devices      string `json:"devices,omitempty"`

	// https://w3id.org/security/v1
	PublicKey *Key `json:"publicKey,omitempty"`
}

type wireLink struct {
	SchemaContext *Context `json:"@context,omitempty"`
	ID            string   `json:"id,omitempty"`
	Type          RawValue `json:"type,omitempty"`

	Href      string   `json:"href"`
	Height    *int     `json:"height,omitempty"`
	Hreflang  string   `json:"hreflang,omitempty"`
	MediaType RawValue `json:"mediaType,omitempty"`
	Rel       RawValue `json:"rel,omitempty"`
	Width     *int     `json:"width,omitempty"`
}

func (o *Object) MarshalJSON() ([]byte, error) {
	w := wireObject{
		SchemaContext: o.SchemaContext,
		ID:            o.ID,
		Replies:       o.Replies,
		ContentMap:    o.ContentMap,
		NameMap:       o.NameMap,
		Duration:      o.Duration,
		EndTime:       o.EndTime,
		Published:     o.Published,
		SummaryMap:    o.SummaryMap,
		Updated:       o.Updated,
		Describes:     o.Describes,
		TotalItems:    o.TotalItems,
		Current:       o.Current,
		First:         o.First,
		Last:          o.Last,
		Next:          o.Next,
		Prev:          o.Prev,
		PartOf:        o.PartOf,
		StartIndex:    o.StartIndex,
		Subject:       o.Subject,
		Deleted:       o.Deleted,
		Closed:        o.Closed,
		Accuracy:      o.Accuracy,
		Altitude:      o.Altitude,
		Latitude:      o.Latitude,
		Longitude:     o.Longitude,
		Radius:        o.Radius,
		Units:         o.Units,

		ManuallyApprovesFollowers: o.ManuallyApprovesFollowers,
		MovedTo:                   o.MovedTo,
		Featured:                  o.Featured,
		FeaturedTags:              o.FeaturedTags,
		Discoverable:              o.Discoverable,
		Suspended:                 o.Suspended,
		Devices:                   o.Devices,
		PublicKey:                 o.PublicKey,
	}

	if o.Actor != nil {
		w.Inbox = &o.Actor.Inbox
		w.Outbox = &o.Actor.Outbox
		w.Following = &o.Actor.Following
		w.Followers = &o.Actor.Followers
		w.PreferredUsername = o.Actor.PreferredUsername
		if len(o.Actor.Endpoints) > 0 {
			w.Endpoints = o.Actor.Endpoints
		}
	}

	if o.URL != nil {
		raw, err := o.URL.laxEncode()
		if err != nil {
			return nil, err
		}
		w.URL = raw
	}

	var err error
	fields := []struct {
		dst *RawValue
		enc func() (RawValue, error)
	}{
		{&w.Type, func() (RawValue, error) { return marshalLax(o.Type) }},
		{&w.Attachment, func() (RawValue, error) { return marshalLax(o.Attachment) }},
		{&w.AttributedTo, func() (RawValue, error) { return marshalLax(o.AttributedTo) }},
		{&w.Audience, func() (RawValue, error) { return marshalLax(o.Audience) }},
		{&w.BCC, func() (RawValue, error) { return marshalLax(o.BCC) }},
		{&w.BTO, func() (RawValue, error) { return marshalLax(o.BTO) }},
		{&w.CC, func() (RawValue, error) { return marshalLax(o.CC) }},
		{&w.Context, func() (RawValue, error) { return marshalLax(o.ObjectItems.Context) }},
		{&w.Generator, func() (RawValue, error) { return marshalLax(o.Generator) }},
		{&w.Icon, func() (RawValue, error) { return marshalLax(o.Icon) }},
		{&w.Image, func() (RawValue, error) { return marshalLax(o.Image) }},
		{&w.InReplyTo, func() (RawValue, error) { return marshalLax(o.InReplyTo) }},
		{&w.Location, func() (RawValue, error) { return marshalLax(o.Location) }},
		{&w.Preview, func() (RawValue, error) { return marshalLax(o.Preview) }},
		{&w.Tag, func() (RawValue, error) { return marshalLax(o.Tag) }},
		{&w.To, func() (RawValue, error) { return marshalLax(o.To) }},
		{&w.Content, func() (RawValue, error) { return marshalLax(o.Content) }},
		{&w.Name, func() (RawValue, error) { return marshalLax(o.Name) }},
		{&w.MediaType, func() (RawValue, error) { return marshalLax(o.MediaType) }},
		{&w.Summary, func() (RawValue, error) { return marshalLax(o.Summary) }},
		{&w.Actor, func() (RawValue, error) { return marshalLax(o.ActivityItems.Actor) }},
		{&w.Instrument, func() (RawValue, error) { return marshalLax(o.Instrument) }},
		{&w.Origin, func() (RawValue, error) { return marshalLax(o.Origin) }},
		{&w.Object, func() (RawValue, error) { return marshalLax(o.ActivityItems.Object) }},
		{&w.Result, func() (RawValue, error) { return marshalLax(o.Result) }},
		{&w.Target, func() (RawValue, error) { return marshalLax(o.Target) }},
		{&w.Items, func() (RawValue, error) { return marshalLax(o.Items) }},
		{&w.OrderedItems, func() (RawValue, error) { return marshalLax(o.OrderedItems) }},
		{&w.Relationship, func() (RawValue, error) { return marshalLax(o.Relationship) }},
		{&w.FormerType, func() (RawValue, error) { return marshalLax(o.FormerType) }},
		{&w.OneOf, func() (RawValue, error) { return marshalLax(o.OneOf) }},
		{&w.AnyOf, func() (RawValue, error) { return marshalLax(o.AnyOf) }},
		{&w.AlsoKnownAs, func() (RawValue, error) { return marshalLax(o.AlsoKnownAs) }},
	}
	for _, f := range fields {
		if *f.dst, err = f.enc(); err != nil {
			return nil, err
		}
	}

	return json.Marshal(w)
}

func (o *Object) UnmarshalJSON(data []byte) error {
	var w wireObject
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	dest := Object{
		SchemaContext: w.SchemaContext,
		ID:            w.ID,
		ObjectItems: ObjectItems{
			Replies:    w.Replies,
			ContentMap: w.ContentMap,
			NameMap:    w.NameMap,
			Duration:   w.Duration,
			EndTime:    w.EndTime,
			Published:  w.Published,
			SummaryMap: w.SummaryMap,
			Updated:    w.Updated,
			Describes:  w.Describes,
		},
		CollectionItems: CollectionItems{
			TotalItems: w.TotalItems,
			Current:    w.Current,
			First:      w.First,
			Last:       w.Last,
		},
		CollectionPageItems: CollectionPageItems{
			Next:   w.Next,
			Prev:   w.Prev,
			PartOf: w.PartOf,
		},
		OrderedCollectionPageItems: OrderedCollectionPageItems{
			StartIndex: w.StartIndex,
		},
		RelationshipItems: RelationshipItems{
			Subject: w.Subject,
		},
		TombstoneItems: TombstoneItems{
			Deleted: w.Deleted,
		},
		QuestionItems: QuestionItems{
			Closed: w.Closed,
		},
		PlaceItems: PlaceItems{
			Accuracy:  w.Accuracy,
			Altitude:  w.Altitude,
			Latitude:  w.Latitude,
			Longitude: w.Longitude,
			Radius:    w.Radius,
			Units:     w.Units,
		},
		ASExtItems: ASExtItems{
			ManuallyApprovesFollowers: w.ManuallyApprovesFollowers,
			MovedTo:                   w.MovedTo,
		},
		MastodonExtItems: MastodonExtItems{
			Featured:     w.Featured,
			FeaturedTags: w.FeaturedTags,
			Discoverable: w.Discoverable,
			Suspended:    w.Suspended,
			Devices:      w.Devices,
		},
		SecurityItems: SecurityItems{
			PublicKey: w.PublicKey,
		},
	}

	actor, err := decodeActorItems(&w)
	if err != nil {
		return err
	}
	dest.Actor = actor

	if len(w.URL) > 0 {
		link, err := laxDecodeLink(w.URL)
		if err != nil {
			return errors.Wrap(err, "decode url")
		}
		dest.URL = link
	}

	var derr error
	decode := func(dst *[]ObjectOrLink, raw RawValue, name string) {
		if derr != nil {
			return
		}
		xs, err := unmarshalLax[ObjectOrLink](raw)
		if err != nil {
			derr = errors.Wrapf(err, "decode %s", name)
			return
		}
		*dst = xs
	}

	if dest.Type, derr = unmarshalLax[string](w.Type); derr != nil {
		return errors.Wrap(derr, "decode type")
	}

	decode(&dest.Attachment, w.Attachment, "attachment")
	decode(&dest.AttributedTo, w.AttributedTo, "attributedTo")
	decode(&dest.Audience, w.Audience, "audience")
	decode(&dest.BCC, w.BCC, "bcc")
	decode(&dest.BTO, w.BTO, "bto")
	decode(&dest.CC, w.CC, "cc")
	decode(&dest.ObjectItems.Context, w.Context, "context")
	decode(&dest.Generator, w.Generator, "generator")
	decode(&dest.Icon, w.Icon, "icon")
	decode(&dest.Image, w.Image, "image")
	decode(&dest.InReplyTo, w.InReplyTo, "inReplyTo")
	decode(&dest.Location, w.Location, "location")
	decode(&dest.Preview, w.Preview, "preview")
	decode(&dest.Tag, w.Tag, "tag")
	decode(&dest.To, w.To, "to")
	decode(&dest.ActivityItems.Actor, w.Actor, "actor")
	decode(&dest.Instrument, w.Instrument, "instrument")
	decode(&dest.Origin, w.Origin, "origin")
	decode(&dest.ActivityItems.Object, w.Object, "object")
	decode(&dest.Result, w.Result, "result")
	decode(&dest.Target, w.Target, "target")
	decode(&dest.Items, w.Items, "items")
	decode(&dest.OrderedItems, w.OrderedItems, "orderedItems")
	decode(&dest.OneOf, w.OneOf, "oneOf")
	decode(&dest.AnyOf, w.AnyOf, "anyOf")
	if derr != nil {
		return derr
	}

	if dest.Content, derr = unmarshalLax[string](w.Content); derr != nil {
		return errors.Wrap(derr, "decode content")
	}
	if dest.Name, derr = unmarshalLax[string](w.Name); derr != nil {
		return errors.Wrap(derr, "decode name")
	}
	if dest.MediaType, derr = unmarshalLax[string](w.MediaType); derr != nil {
		return errors.Wrap(derr, "decode mediaType")
	}
	if dest.Summary, derr = unmarshalLax[string](w.Summary); derr != nil {
		return errors.Wrap(derr, "decode summary")
	}
	if dest.AlsoKnownAs, derr = unmarshalLax[string](w.AlsoKnownAs); derr != nil {
		return errors.Wrap(derr, "decode alsoKnownAs")
	}
	if dest.Relationship, derr = unmarshalLax[*Object](w.Relationship); derr != nil {
		return errors.Wrap(derr, "decode relationship")
	}
	if dest.FormerType, derr = unmarshalLax[*Object](w.FormerType); derr != nil {
		return errors.Wrap(derr, "decode formerType")
	}

	*o = dest
	return nil
}

// decodeActorItems enforces the actor invariant: either none of the four
// mandatory collection URLs is present, or all of them are.
func decodeActorItems(w *wireObject) (*ActorItems, error) {
	present := 0
	for _, f := range []*string{w.Inbox, w.Outbox, w.Following, w.Followers} {
		if f != nil {
			present++
		}
	}
	switch present {
	case 0:
		return nil, nil
	case 4:
		return &ActorItems{
			Inbox:             *w.Inbox,
			Outbox:            *w.Outbox,
			Following:         *w.Following,
			Followers:         *w.Followers,
			PreferredUsername: w.PreferredUsername,
			Endpoints:         w.Endpoints,
		}, nil
	default:
		return nil, errors.New("ap: actor document must carry all of inbox, outbox, following and followers")
	}
}

// laxEncode applies the bare-string equivalence: a link with nothing but
// href encodes as its href.
func (l *Link) laxEncode() (RawValue, error) {
	if l.Plain() {
		return json.Marshal(l.Href)
	}
	return json.Marshal(l)
}

func laxDecodeLink(raw RawValue) (*Link, error) {
	if firstByte(raw) == '"' {
		var href string
		if err := json.Unmarshal(raw, &href); err != nil {
			return nil, err
		}
		return LinkTo(href), nil
	}
	var link Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (l *Link) MarshalJSON() ([]byte, error) {
	w := wireLink{
		SchemaContext: l.SchemaContext,
		ID:            l.ID,
		Href:          l.Href,
		Height:        l.Height,
		Hreflang:      l.Hreflang,
		Width:         l.Width,
	}
	var err error
	if w.Type, err = marshalLax(l.Type); err != nil {
		return nil, err
	}
	if w.MediaType, err = marshalLax(l.MediaType); err != nil {
		return nil, err
	}
	if w.Rel, err = marshalLax(l.Rel); err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (l *Link) UnmarshalJSON(data []byte) error {
	var w wireLink
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	dest := Link{
		SchemaContext: w.SchemaContext,
		ID:            w.ID,
		Href:          w.Href,
		Height:        w.Height,
		Hreflang:      w.Hreflang,
		Width:         w.Width,
	}
	var err error
	if dest.Type, err = unmarshalLax[string](w.Type); err != nil {
		return err
	}
	if dest.MediaType, err = unmarshalLax[string](w.MediaType); err != nil {
		return err
	}
	if dest.Rel, err = unmarshalLax[string](w.Rel); err != nil {
		return err
	}
	*l = dest
	return nil
}

func (r ObjectOrLink) MarshalJSON() ([]byte, error) {
	switch {
	case r.Object != nil:
		return r.Object.MarshalJSON()
	case r.Link != nil:
		return r.Link.laxEncode()
	default:
		return nil, errors.New("ap: empty object-or-link")
	}
}

// UnmarshalJSON resolves the untagged sum by trial in fixed preference
// order: a bare string is a link reference, a map carrying href is a Link,
// anything else is an embedded Object.
func (r *ObjectOrLink) UnmarshalJSON(data []byte) error {
	if firstByte(data) == '"' {
		var href string
		if err := json.Unmarshal(data, &href); err != nil {
			return err
		}
		*r = Ref(href)
		return nil
	}
	if hasKey(data, "href") {
		var link Link
		if err := json.Unmarshal(data, &link); err == nil {
			*r = ObjectOrLink{Link: &link}
			return nil
		}
	}
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = ObjectOrLink{Object: &obj}
	return nil
}
