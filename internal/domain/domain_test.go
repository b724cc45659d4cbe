package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("  alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Len(t, string(u.ID), MaxUserIDLen)

	_, err = NewUser("")
	assert.ErrorIs(t, err, ErrUsernameEmpty)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewUser(strings.Repeat("x", MaxUsernameLen+1))
	assert.ErrorIs(t, err, ErrUsernameTooLong)
}

func TestParseCapacity(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"4", 4, true},
		{" 20 ", 20, true},
		{"1", 1, true},
		{"255", 255, true},
		{"0", 0, false},
		{"256", 0, false},
		{"-3", 0, false},
		{"four", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCapacity(tt.raw)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidCapacity)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRoomCopiesProperties(t *testing.T) {
	props := map[string]string{"map": "dust"}
	r, err := NewRoom("Alpha", 2, props)
	require.NoError(t, err)
	props["map"] = "mirage"
	assert.Equal(t, "dust", r.Properties["map"])

	_, err = NewRoom("Alpha", 0, nil)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewRoom(RoomName(strings.Repeat("r", MaxRoomNameLen+1)), 2, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "room_full", Reason(fmt.Errorf("join: %w", ErrRoomFull)))
	assert.Equal(t, "username_empty", Reason(ErrUsernameEmpty))
	assert.Equal(t, "invalid_capacity", Reason(ErrInvalidCapacity))
	assert.Equal(t, "no_open_rooms_found", Reason(ErrNoOpenRoomsFound))
	assert.Equal(t, "internal", Reason(errors.New("boom")))
}
