package webfinger

import "slices"

// Link relation types used in local descriptors.
const (
	RelProfilePage = "http://webfinger.net/rel/profile-page"
	RelAvatar      = "http://webfinger.net/rel/avatar"
	RelSelf        = "self"
	RelSubscribe   = "http://ostatus.org/schema/1.0/subscribe"
)

// Media types used in local descriptors and responses.
const (
	MediaTypeJRD         = "application/jrd+json"
	MediaTypeActivity    = "application/activity+json"
	MediaTypeHTML        = "text/html"
	ContentTypeJRDHeader = "application/jrd+json; charset=utf-8"
)

// JRD is a JSON Resource Descriptor (RFC 7033 section 4.4). Alias and link
// order is significant and preserved as built.
type JRD struct {
	Subject    string             `json:"subject"`
	Aliases    []string           `json:"aliases,omitempty"`
	Properties map[string]*string `json:"properties,omitempty"`
	Links      []Link             `json:"links,omitempty"`
}

// Link is one entry of a JRD's links array.
type Link struct {
	Rel        string             `json:"rel"`
	Type       string             `json:"type,omitempty"`
	Href       string             `json:"href,omitempty"`
	Template   string             `json:"template,omitempty"`
	Titles     map[string]string  `json:"titles,omitempty"`
	Properties map[string]*string `json:"properties,omitempty"`
}

// Link returns the first link with the given relation.
func (j *JRD) Link(rel string) (Link, bool) {
	for _, l := range j.Links {
		if l.Rel == rel {
			return l, true
		}
	}
	return Link{}, false
}

// WithRels returns a copy of j keeping only links whose relation is listed,
// as the "rel" request parameter asks (RFC 7033 section 4.3). No rels means
// no filtering. j is not modified.
func (j *JRD) WithRels(rels []string) *JRD {
	if len(rels) == 0 {
		return j
	}
	filtered := &JRD{
		Subject:    j.Subject,
		Aliases:    slices.Clone(j.Aliases),
		Properties: j.Properties,
	}
	for _, l := range j.Links {
		if slices.Contains(rels, l.Rel) {
			filtered.Links = append(filtered.Links, l)
		}
	}
	return filtered
}
