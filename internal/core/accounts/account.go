package accounts

import (
	"path"
	"strings"
	"time"
)

// AvatarPrefix is the directory below the image root that avatar files
// live in. It is also the URL path they are served under.
const AvatarPrefix = "i/"

// Account is a locally hosted account as far as discovery is concerned.
// Only the fields WebFinger and NodeInfo need are carried.
type Account struct {
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Username    string    `json:"username" db:"username"`
	DisplayName string    `json:"displayName,omitempty" db:"display_name"`
	// Avatar is a path relative to the image root below AvatarPrefix, or
	// empty when the account never uploaded one.
	Avatar   string `json:"avatar" db:"avatar"`
	Archived bool   `json:"archived" db:"archived"`
}

// HasAvatar reports whether the account references its own servable
// avatar file. References outside AvatarPrefix count as none.
func (a *Account) HasAvatar() bool {
	return IsAvatarPath(a.Avatar)
}

// IsAvatarPath reports whether p names a file below AvatarPrefix. A leading
// slash is tolerated; p must not climb out of the prefix.
func IsAvatarPath(p string) bool {
	if p == "" {
		return false
	}
	clean := path.Clean("/" + p)
	return strings.HasPrefix(clean, "/"+AvatarPrefix) && len(clean) > len(AvatarPrefix)+1
}

// Stats are aggregate counts published through NodeInfo.
type Stats struct {
	TotalUsers     int `json:"total"`
	ActiveMonth    int `json:"activeMonth"`
	ActiveHalfyear int `json:"activeHalfyear"`
}
