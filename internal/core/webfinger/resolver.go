// Package webfinger resolves acct: resources into JSON Resource
// Descriptors, answering from local storage for accounts hosted here and
// relaying the query to the account's own server otherwise.
package webfinger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"Fingerpost/internal/core/mediatype"
	"Fingerpost/internal/metrics"
)

// Resolver answers WebFinger queries. It keeps no state between calls and
// is safe for concurrent use.
type Resolver struct {
	fetcher RemoteFetcher
	prober  mediatype.Prober
}

// NewResolver creates a resolver. fetcher is used for remote accounts and
// prober labels local avatars; either may be nil, which makes the matching
// path degrade as documented on Resolve.
func NewResolver(fetcher RemoteFetcher, prober mediatype.Prober) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		prober:  prober,
	}
}

// Resolution is the outcome of one successful Resolve call.
type Resolution struct {
	// JRD is the descriptor built for a local account.
	JRD *JRD
	// Remote is the JSON answer of the remote server, byte for byte.
	Remote     json.RawMessage
	Identifier Identifier
	Local      bool
}

// Document serializes the descriptor.
func (r *Resolution) Document() ([]byte, error) {
	if r.Local {
		return json.Marshal(r.JRD)
	}
	return bytes.Clone(r.Remote), nil
}

// WithRels narrows a local descriptor to the given link relations. Remote
// descriptors are relayed as received and are returned unchanged.
func (r *Resolution) WithRels(rels []string) *Resolution {
	if !r.Local || len(rels) == 0 {
		return r
	}
	narrowed := *r
	narrowed.JRD = r.JRD.WithRels(rels)
	return &narrowed
}

// Resolve parses resource, decides whether it names a local or remote
// account and returns its descriptor.
//
// Errors:
//   - ErrMalformedIdentifier: the resource is not acct:<user>[@<host>]
//   - ErrStorageUnavailable: the local account store is missing or failing
//   - ErrNotFound: no such active local account, or the remote server did
//     not answer 200
//   - ErrNetworkFailure: the remote server could not be reached in time
//   - ErrDecodeFailure: the remote server answered 200 with a non-JSON body
//
// A failed avatar probe never fails the call; the avatar type is omitted.
func (r *Resolver) Resolve(ctx context.Context, resource string, site Site) (*Resolution, error) {
	id, err := ParseIdentifier(resource)
	if err != nil {
		metrics.ObserveResolution("unknown", outcome(err))
		return nil, err
	}

	if site.IsLocal(id) {
		jrd, err := r.resolveLocal(ctx, id, site)
		metrics.ObserveResolution("local", outcome(err))
		if err != nil {
			return nil, err
		}
		return &Resolution{Identifier: id, Local: true, JRD: jrd}, nil
	}

	slog.Debug("[WEBFINGER] relaying query to remote host",
		"resource", id.Resource,
		"host", id.Host)

	doc, err := r.resolveRemote(ctx, id)
	metrics.ObserveResolution("remote", outcome(err))
	if err != nil {
		return nil, err
	}
	return &Resolution{Identifier: id, Remote: doc}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedIdentifier):
		return "malformed"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrNetworkFailure):
		return "network_failure"
	case errors.Is(err, ErrDecodeFailure):
		return "decode_failure"
	default:
		return "error"
	}
}
