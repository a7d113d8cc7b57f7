// Package webfinger holds the RFC 7033 resource wire types.
package webfinger

const (
	// RelSelf marks the link pointing at the actor document.
	RelSelf = "self"
	// RelProfilePage marks the link pointing at the HTML profile.
	RelProfilePage = "http://webfinger.net/rel/profile-page"

	// MediaType is the content type WebFinger responses are served as.
	MediaType = "application/jrd+json"
)

// Resource is a JSON Resource Descriptor.
//
// ref: https://datatracker.ietf.org/doc/html/rfc7033
type Resource struct {
	Subject    string             `json:"subject"`
	Aliases    []string           `json:"aliases,omitempty"`
	Properties map[string]*string `json:"properties,omitempty"`
	Links      []Link             `json:"links,omitempty"`
}

type Link struct {
	Rel        string             `json:"rel"`
	Type       string             `json:"type,omitempty"`
	Href       string             `json:"href,omitempty"`
	Titles     map[string]string  `json:"titles,omitempty"`
	Properties map[string]*string `json:"properties,omitempty"`
}

// FilterLinks keeps only links whose rel is in rels. An empty filter keeps
// everything, per the RFC's rel query parameter semantics.
func (r *Resource) FilterLinks(rels []string) {
	if len(rels) == 0 || r.Links == nil {
		return
	}
	dest := make([]Link, 0, len(r.Links))
	for _, link := range r.Links {
		for _, rel := range rels {
			if rel == link.Rel {
				dest = append(dest, link)
				break
			}
		}
	}
	r.Links = dest
}
