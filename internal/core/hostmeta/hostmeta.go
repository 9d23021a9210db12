// Package hostmeta builds the RFC 6415 host-meta document that points
// clients at the WebFinger endpoint.
package hostmeta

import (
	"encoding/json"
	"encoding/xml"
	"strings"

	"Fingerpost/internal/core/webfinger"
)

const (
	// Path is where the XRD form is served.
	Path = "/.well-known/host-meta"
	// JSONPath is where the JRD form is served.
	JSONPath = "/.well-known/host-meta.json"

	// MediaTypeXRD is the content type of the XML form.
	MediaTypeXRD = "application/xrd+xml"

	// RelLRDD is the link relation of the WebFinger template.
	RelLRDD = "lrdd"

	namespaceXRD = "http://docs.oasis-open.org/ns/xri/xrd-1.0"
)

// Document is a host-meta resource descriptor. The same value serializes
// to XRD through encoding/xml and to JRD through encoding/json.
type Document struct {
	XMLName xml.Name `xml:"http://docs.oasis-open.org/ns/xri/xrd-1.0 XRD" json:"-"`
	Subject string   `xml:"Subject,omitempty" json:"subject,omitempty"`
	Links   []Link   `xml:"Link" json:"links"`
}

// Link is one host-meta link. Template links carry no href.
type Link struct {
	Rel      string `xml:"rel,attr" json:"rel"`
	Type     string `xml:"type,attr,omitempty" json:"type,omitempty"`
	Href     string `xml:"href,attr,omitempty" json:"href,omitempty"`
	Template string `xml:"template,attr,omitempty" json:"template,omitempty"`
}

// New returns the host-meta document for a server reachable at origin.
func New(origin string) *Document {
	origin = strings.TrimRight(origin, "/")
	return &Document{
		XMLName: xml.Name{Space: namespaceXRD, Local: "XRD"},
		Links: []Link{
			{
				Rel:      RelLRDD,
				Type:     webfinger.MediaTypeJRD,
				Template: origin + webfinger.WellKnownPath + "?resource={uri}",
			},
		},
	}
}

// LRDD returns the WebFinger query template, or "" if the document has none.
func (d *Document) LRDD() string {
	for _, l := range d.Links {
		if l.Rel == RelLRDD {
			return l.Template
		}
	}
	return ""
}

// XRD encodes d as an XML document with declaration.
func (d *Document) XRD() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// JRD encodes d as JSON.
func (d *Document) JRD() ([]byte, error) {
	return json.Marshal(d)
}
