package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRoomRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "limits are per session")

	now = now.Add(11 * time.Second)
	assert.True(t, rl.Allow("a"), "window slid past old attempts")
}

func TestRoomRateLimiterForget(t *testing.T) {
	rl := NewRoomRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
}

func TestRoomRateLimiterDisabled(t *testing.T) {
	rl := NewRoomRateLimiter(0, time.Minute)
	for range 100 {
		assert.True(t, rl.Allow("a"))
	}
}

func TestParseMaxPlayers(t *testing.T) {
	n, err := parseMaxPlayers([]byte(`4`))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = parseMaxPlayers([]byte(`"12"`))
	assert.NoError(t, err)
	assert.Equal(t, 12, n)

	for _, raw := range []string{``, `null`, `"abc"`, `0`, `300`} {
		_, err := parseMaxPlayers([]byte(raw))
		assert.Error(t, err, raw)
	}
}
