// Package nodeinfo serves NodeInfo 2.1 discovery and schema documents.
package nodeinfo

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"Fingerpost/internal/core/accounts"
)

const (
	// WellKnownPath is the discovery endpoint.
	WellKnownPath = "/.well-known/nodeinfo"
	// SchemaPath is where the 2.1 document is served.
	SchemaPath = "/nodeinfo/2.1"

	SchemaVersion = "2.1"
	SchemaRel     = "http://nodeinfo.diaspora.software/ns/schema/2.1"
	ContentType   = `application/json; profile="http://nodeinfo.diaspora.software/ns/schema/2.1#"`

	ProtocolActivityPub = "activitypub"
)

// Software names must be lowercase letters, digits and hyphens.
var softwareNameInvalid = regexp.MustCompile(`[^a-z0-9-]+`)

// Discovery is the document served at WellKnownPath.
type Discovery struct {
	Links []DiscoveryLink `json:"links"`
}

// DiscoveryLink points at one supported schema version.
type DiscoveryLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Document is a NodeInfo 2.1 document.
type Document struct {
	Metadata          map[string]any `json:"metadata"`
	Version           string         `json:"version"`
	Software          Software       `json:"software"`
	Protocols         []string       `json:"protocols"`
	Services          Services       `json:"services"`
	Usage             Usage          `json:"usage"`
	OpenRegistrations bool           `json:"openRegistrations"`
}

type Software struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Repository string `json:"repository,omitempty"`
	Homepage   string `json:"homepage,omitempty"`
}

// Services lists third party sites the server can talk to. Both lists are
// always present, possibly empty.
type Services struct {
	Inbound  []string `json:"inbound"`
	Outbound []string `json:"outbound"`
}

type Usage struct {
	Users Users `json:"users"`
}

type Users struct {
	Total          int `json:"total"`
	ActiveMonth    int `json:"activeMonth"`
	ActiveHalfyear int `json:"activeHalfyear"`
}

// Config holds the static parts of the document.
type Config struct {
	Metadata          map[string]any
	SoftwareName      string
	SoftwareVersion   string
	Repository        string
	Homepage          string
	Inbound           []string
	Outbound          []string
	OpenRegistrations bool
}

// Service builds NodeInfo documents from the account store.
type Service struct {
	stats accounts.StatsReader
	cfg   Config
}

// NewService creates a NodeInfo service. stats may be nil, in which case
// Document always fails with ErrStatsUnavailable.
func NewService(stats accounts.StatsReader, cfg Config) *Service {
	return &Service{stats: stats, cfg: cfg}
}

// Discovery returns the discovery document for a server at origin.
func (s *Service) Discovery(origin string) *Discovery {
	return &Discovery{
		Links: []DiscoveryLink{
			{Rel: SchemaRel, Href: strings.TrimRight(origin, "/") + SchemaPath},
		},
	}
}

// Document returns the 2.1 document with current usage counts.
func (s *Service) Document(ctx context.Context) (*Document, error) {
	if s.stats == nil {
		return nil, fmt.Errorf("%w: no account store configured", ErrStatsUnavailable)
	}
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatsUnavailable, err)
	}
	if stats == nil {
		stats = &accounts.Stats{}
	}

	metadata := s.cfg.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &Document{
		Version: SchemaVersion,
		Software: Software{
			Name:       softwareName(s.cfg.SoftwareName),
			Version:    s.cfg.SoftwareVersion,
			Repository: s.cfg.Repository,
			Homepage:   s.cfg.Homepage,
		},
		Protocols: []string{ProtocolActivityPub},
		Services: Services{
			Inbound:  nonNil(s.cfg.Inbound),
			Outbound: nonNil(s.cfg.Outbound),
		},
		OpenRegistrations: s.cfg.OpenRegistrations,
		Usage: Usage{
			Users: Users{
				Total:          stats.TotalUsers,
				ActiveMonth:    stats.ActiveMonth,
				ActiveHalfyear: stats.ActiveHalfyear,
			},
		},
		Metadata: metadata,
	}, nil
}

func softwareName(name string) string {
	name = softwareNameInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "fingerpost"
	}
	return name
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
