// Package nodeinfo holds the NodeInfo 2.1 wire types served on the
// archive's well-known endpoints.
package nodeinfo

// Discovery is the /.well-known/nodeinfo document.
//
// ref: https://github.com/jhass/nodeinfo/blob/2.1/PROTOCOL.md
type Discovery struct {
	Links []DiscoveryItem `json:"links"`
}

type DiscoveryItem struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// SchemaRel is the discovery rel for the 2.1 schema.
const SchemaRel = "http://nodeinfo.diaspora.software/ns/schema/2.1"

// NodeInfo is the schema 2.1 metadata document.
//
// ref: https://nodeinfo.diaspora.software/ns/schema/2.1
type NodeInfo struct {
	Version           string        `json:"version"`
	Software          SoftwareItems `json:"software"`
	Protocols         []string      `json:"protocols"`
	Services          ServicesItems `json:"services"`
	OpenRegistrations bool          `json:"openRegistrations"`
	Usage             UsageItems    `json:"usage"`
	Metadata          MetadataItems `json:"metadata"`
}

type SoftwareItems struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Repository string `json:"repository,omitempty"`
	Homepage   string `json:"homepage,omitempty"`
}

type ServicesItems struct {
	Inbound  []string `json:"inbound"`
	Outbound []string `json:"outbound"`
}

type UsageItems struct {
	Users         UsersItems `json:"users"`
	LocalPosts    *int       `json:"localPosts,omitempty"`
	LocalComments *int       `json:"localComments,omitempty"`
}

type UsersItems struct {
	Total          *int `json:"total,omitempty"`
	ActiveHalfyear *int `json:"activeHalfyear,omitempty"`
	ActiveMonth    *int `json:"activeMonth,omitempty"`
}

// MetadataItems carries the Misskey metadata extensions.
type MetadataItems struct {
	NodeName        string           `json:"nodeName,omitempty"`
	NodeDescription string           `json:"nodeDescription,omitempty"`
	Maintainer      *MaintainerItems `json:"maintainer,omitempty"`
}

type MaintainerItems struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
