package webfinger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"Fingerpost/internal/core/accounts"
	"Fingerpost/internal/metrics"
)

// resolveLocal builds the descriptor for an account hosted on site.
func (r *Resolver) resolveLocal(ctx context.Context, id Identifier, site Site) (*JRD, error) {
	if site.HostLabel() == "" {
		return nil, ErrNoPublicHost
	}
	if site.Accounts == nil {
		return nil, fmt.Errorf("%w: no account store configured", ErrStorageUnavailable)
	}

	account, err := site.Accounts.FindActiveByUsername(ctx, id.User)
	if errors.Is(err, accounts.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	// Archived accounts are hidden even from a finder that returns them.
	if account == nil || account.Archived {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	origin := site.PublicOrigin()
	username := account.Username
	profileURL := origin + "/@" + username
	actorURL := origin + "/user/" + username

	avatar := site.missingAvatar()
	if account.HasAvatar() {
		avatar = account.Avatar
	} else if account.Avatar != "" {
		slog.Warn("[WEBFINGER] avatar outside image prefix, using missing avatar",
			"username", username,
			"avatar", account.Avatar,
			"prefix", accounts.AvatarPrefix)
	}
	avatar = strings.TrimPrefix(avatar, "/")

	return &JRD{
		Subject: "acct:" + username + "@" + site.HostLabel(),
		Aliases: []string{profileURL, actorURL},
		Links: []Link{
			{
				Rel:  RelProfilePage,
				Type: MediaTypeHTML,
				Href: profileURL,
			},
			{
				Rel:  RelAvatar,
				Type: r.probeAvatar(ctx, site, username, avatar),
				Href: origin + "/" + avatar,
			},
			{
				Rel:  RelSelf,
				Type: MediaTypeActivity,
				Href: actorURL,
			},
			{
				Rel:      RelSubscribe,
				Template: origin + "/authorize_interaction?uri={uri}",
			},
		},
	}, nil
}

// probeAvatar returns the media type of the avatar file, or "" when it
// cannot be determined. Failures are logged and never abort resolution.
func (r *Resolver) probeAvatar(ctx context.Context, site Site, username, avatar string) string {
	path := filepath.Join(site.ImageRoot, filepath.FromSlash(avatar))

	if r.prober == nil {
		r.logProbeFailure(username, path, errors.New("no prober configured"))
		return ""
	}

	mediaType, err := r.prober.Probe(ctx, path)
	if err != nil {
		r.logProbeFailure(username, path, err)
		return ""
	}
	return mediaType
}

func (r *Resolver) logProbeFailure(username, path string, cause error) {
	metrics.ObserveProbeFailure()
	slog.Warn("[WEBFINGER] avatar type omitted",
		"username", username,
		"path", path,
		"error", fmt.Errorf("%w: %w", ErrProbeFailure, cause),
	)
}
