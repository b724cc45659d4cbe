package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinCapacity     = 1
	MaxCapacity     = 255
	MaxRoomNameLen  = 36
	DefaultCapacity = 20
)

type RoomName string

// Room is the static part of a room: what the creator asked for.
// Live flags and membership belong to core.RoomService.
type Room struct {
	Name       RoomName
	Capacity   int
	Properties map[string]string
}

func NewRoom(name RoomName, capacity int, props map[string]string) (*Room, error) {
	if err := ValidateCapacity(capacity); err != nil {
		return nil, err
	}
	if len(name) > MaxRoomNameLen {
		return nil, fmt.Errorf("%w: room name too long", ErrInvalidInput)
	}
	cp := make(map[string]string, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return &Room{Name: name, Capacity: capacity, Properties: cp}, nil
}

func ValidateCapacity(capacity int) error {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidCapacity, capacity, MinCapacity, MaxCapacity)
	}
	return nil
}

// ParseCapacity accepts user-typed max players, e.g. "4" or " 12 ".
func ParseCapacity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidCapacity, raw)
	}
	if err := ValidateCapacity(n); err != nil {
		return 0, err
	}
	return n, nil
}
