package nodeinfo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"Fingerpost/internal/core/accounts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStatsReader is a mock implementation of accounts.StatsReader
type MockStatsReader struct {
	mock.Mock
}

func (m *MockStatsReader) Stats(ctx context.Context) (*accounts.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Stats), args.Error(1)
}

func TestService_Discovery(t *testing.T) {
	svc := NewService(nil, Config{})
	doc := svc.Discovery("https://example.com/")

	require.Len(t, doc.Links, 1)
	assert.Equal(t, "http://nodeinfo.diaspora.software/ns/schema/2.1", doc.Links[0].Rel)
	assert.Equal(t, "https://example.com/nodeinfo/2.1", doc.Links[0].Href)
}

func TestService_Document(t *testing.T) {
	stats := new(MockStatsReader)
	stats.On("Stats", mock.Anything).
		Return(&accounts.Stats{TotalUsers: 42, ActiveMonth: 7, ActiveHalfyear: 19}, nil)

	svc := NewService(stats, Config{
		SoftwareName:      "Fingerpost",
		SoftwareVersion:   "1.2.0",
		OpenRegistrations: true,
		Metadata:          map[string]any{"nodeName": "example"},
	})

	doc, err := svc.Document(context.Background())
	require.NoError(t, err)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"version": "2.1",
		"software": {"name": "fingerpost", "version": "1.2.0"},
		"protocols": ["activitypub"],
		"services": {"inbound": [], "outbound": []},
		"openRegistrations": true,
		"usage": {"users": {"total": 42, "activeMonth": 7, "activeHalfyear": 19}},
		"metadata": {"nodeName": "example"}
	}`, string(out))
	stats.AssertExpectations(t)
}

func TestService_DocumentStatsFailure(t *testing.T) {
	stats := new(MockStatsReader)
	stats.On("Stats", mock.Anything).Return(nil, errors.New("connection reset"))

	doc, err := NewService(stats, Config{}).Document(context.Background())
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrStatsUnavailable)
}

func TestService_DocumentNoStore(t *testing.T) {
	_, err := NewService(nil, Config{}).Document(context.Background())
	assert.ErrorIs(t, err, ErrStatsUnavailable)
}

func TestSoftwareName(t *testing.T) {
	tests := map[string]string{
		"Fingerpost":      "fingerpost",
		"my server 2":     "my-server-2",
		"  ":              "fingerpost",
		"--odd__name--":   "odd-name",
		"already-correct": "already-correct",
	}
	for in, want := range tests {
		assert.Equal(t, want, softwareName(in), "input %q", in)
	}
}
