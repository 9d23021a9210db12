package webfinger

import (
	"fmt"
	"regexp"
)

// acctPattern accepts acct:<user>[@<host>]. The user is 3-31 characters of
// letters, digits, underscore and hyphen. The host part is anything
// non-empty that does not start with whitespace; it is checked later,
// depending on where the query is routed.
var acctPattern = regexp.MustCompile(`^(?i:acct):([A-Za-z0-9_-]{3,31})(?:@(\S.*))?$`)

// Identifier is a parsed acct: resource.
type Identifier struct {
	// User is never empty.
	User string
	// Host is empty when the resource named no host, which means local.
	Host string
	// Resource is the string the identifier was parsed from.
	Resource string
}

// ParseIdentifier parses resource into an Identifier. It returns
// ErrMalformedIdentifier for empty input or anything not shaped like an
// acct: URI, and never a partially filled Identifier.
func ParseIdentifier(resource string) (Identifier, error) {
	if resource == "" {
		return Identifier{}, fmt.Errorf("%w: resource is required", ErrMalformedIdentifier)
	}

	m := acctPattern.FindStringSubmatch(resource)
	if m == nil {
		return Identifier{}, fmt.Errorf("%w: %q is not acct:<user>[@<host>]", ErrMalformedIdentifier, resource)
	}

	return Identifier{
		User:     m[1],
		Host:     m[2],
		Resource: resource,
	}, nil
}

// HasHost reports whether the resource named a host.
func (id Identifier) HasHost() bool {
	return id.Host != ""
}

func (id Identifier) String() string {
	if id.Host == "" {
		return "acct:" + id.User
	}
	return "acct:" + id.User + "@" + id.Host
}
