package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccount_HasAvatar(t *testing.T) {
	assert.False(t, (&Account{Username: "alice"}).HasAvatar())
	assert.True(t, (&Account{Username: "alice", Avatar: "i/accounts/avatars/alice.png"}).HasAvatar())
	assert.False(t, (&Account{Username: "alice", Avatar: "avatars/alice.png"}).HasAvatar())
}

func TestIsAvatarPath(t *testing.T) {
	valid := []string{
		"i/accounts/avatars/alice.png",
		"/i/accounts/avatars/alice.png",
		"i/a.png",
	}
	invalid := []string{
		"",
		"i/",
		"i",
		"avatars/x.png",
		"images/i/x.png",
		"i/../secret.txt",
		"/etc/passwd",
	}
	for _, p := range valid {
		assert.True(t, IsAvatarPath(p), p)
	}
	for _, p := range invalid {
		assert.False(t, IsAvatarPath(p), p)
	}
}
