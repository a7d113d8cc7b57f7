package ap

import (
	"bytes"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ActivityStreamsIRI is the namespace every plain ActivityPub document is
// encoded under.
const ActivityStreamsIRI = "https://www.w3.org/ns/activitystreams"

// Context is a JSON-LD @context header: exactly one of Single, Mix or
// TermDefs is set. It is carried structurally and never interpreted.
//
// Schema: https://www.w3.org/TR/json-ld/#the-context
type Context struct {
	Single   *IRI
	Mix      []Context
	TermDefs map[string]IRI
}

// IRI is either a direct IRI string or an @id/@type coercion object.
// Exactly one of Direct (non-empty) or Coercion is set.
type IRI struct {
	Direct   string
	Coercion *TermCoercion
}

type TermCoercion struct {
	ID   string `json:"@id"`
	Type string `json:"@type,omitempty"`
}

// SingleContext wraps a bare namespace IRI.
func SingleContext(iri string) *Context {
	return &Context{Single: &IRI{Direct: iri}}
}

// PureContext is the context attached to plain rewritten documents.
func PureContext() *Context {
	return SingleContext(ActivityStreamsIRI)
}

// ActorContext is the context attached to rewritten actor documents: the
// ActivityStreams and security namespaces plus the Mastodon term set the
// original actor vocabulary relies on.
func ActorContext() *Context {
	return &Context{Mix: []Context{
		{Single: &IRI{Direct: ActivityStreamsIRI}},
		{Single: &IRI{Direct: "https://w3id.org/security/v1"}},
		{TermDefs: map[string]IRI{
			"alsoKnownAs":               {Coercion: &TermCoercion{ID: "as:alsoKnownAs", Type: "@id"}},
			"manuallyApprovesFollowers": {Direct: "as:manuallyApprovesFollowers"},
			"movedTo":                   {Coercion: &TermCoercion{ID: "as:movedTo", Type: "@id"}},
		}},
		{TermDefs: map[string]IRI{
			"toot":         {Direct: "http://joinmastodon.org/ns#"},
			"devices":      {Coercion: &TermCoercion{ID: "toot:devices", Type: "@id"}},
			"discoverable": {Direct: "toot:discoverable"},
			"featured":     {Coercion: &TermCoercion{ID: "toot:featured", Type: "@id"}},
			"featuredTags": {Coercion: &TermCoercion{ID: "toot:featuredTags", Type: "@id"}},
			"suspended":    {Direct: "toot:suspended"},
		}},
	}}
}

func (c Context) MarshalJSON() ([]byte, error) {
	switch {
	case c.Single != nil:
		return json.Marshal(c.Single)
	case c.Mix != nil:
		type mix []Context
		return json.Marshal(mix(c.Mix))
	case c.TermDefs != nil:
		return json.Marshal(c.TermDefs)
	default:
		return nil, errors.New("ap: empty context")
	}
}

// UnmarshalJSON disambiguates the untagged wire form by shape: a string or
// coercion object is a single IRI, an array is a mix, any other object is
// a term-definition map.
func (c *Context) UnmarshalJSON(data []byte) error {
	switch firstByte(data) {
	case '[':
		var mix []Context
		if err := json.Unmarshal(data, &mix); err != nil {
			return err
		}
		*c = Context{Mix: mix}
		return nil
	case '{':
		if hasKey(data, "@id") {
			var iri IRI
			if err := json.Unmarshal(data, &iri); err != nil {
				return err
			}
			*c = Context{Single: &iri}
			return nil
		}
		var defs map[string]IRI
		if err := json.Unmarshal(data, &defs); err != nil {
			return err
		}
		*c = Context{TermDefs: defs}
		return nil
	default:
		var iri IRI
		if err := json.Unmarshal(data, &iri); err != nil {
			return err
		}
		*c = Context{Single: &iri}
		return nil
	}
}

func (i IRI) MarshalJSON() ([]byte, error) {
	if i.Coercion != nil {
		return json.Marshal(i.Coercion)
	}
	return json.Marshal(i.Direct)
}

func (i *IRI) UnmarshalJSON(data []byte) error {
	if firstByte(data) == '{' {
		var tc TermCoercion
		if err := json.Unmarshal(data, &tc); err != nil {
			return err
		}
		*i = IRI{Coercion: &tc}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*i = IRI{Direct: s}
	return nil
}

func firstByte(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// hasKey reports whether a JSON object literal carries the given top-level
// key. Used only for variant disambiguation.
func hasKey(data []byte, key string) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, ok := probe[key]
	return ok
}
