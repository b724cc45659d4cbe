package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNameTaken        = errors.New("room name taken")
	ErrRoomFull         = errors.New("room full")
	ErrRoomClosed       = errors.New("room closed")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNoOpenRoomsFound = errors.New("no open rooms found")

	ErrInvalidInput    = errors.New("invalid input")
	ErrUsernameEmpty   = fmt.Errorf("%w: username empty", ErrInvalidInput)
	ErrUsernameTooLong = fmt.Errorf("%w: username too long", ErrInvalidInput)
	ErrInvalidCapacity = fmt.Errorf("%w: capacity", ErrInvalidInput)

	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrAlreadyInRoom    = errors.New("already in room")
	ErrNotInRoom        = errors.New("not in room")
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrNameTaken, "name_taken"},
	{ErrRoomFull, "room_full"},
	{ErrRoomClosed, "room_closed"},
	{ErrRoomNotFound, "room_not_found"},
	{ErrNoOpenRoomsFound, "no_open_rooms_found"},
	{ErrUsernameEmpty, "username_empty"},
	{ErrUsernameTooLong, "username_too_long"},
	{ErrInvalidCapacity, "invalid_capacity"},
	{ErrInvalidInput, "invalid_input"},
	{ErrNotConnected, "not_connected"},
	{ErrAlreadyConnected, "already_connected"},
	{ErrAlreadyInRoom, "already_in_room"},
	{ErrNotInRoom, "not_in_room"},
}

// Reason maps an error to a stable wire code. Unknown errors become "internal".
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal"
}
