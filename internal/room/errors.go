package room

import "errors"

// Join-time errors, returned synchronously to the requester. Move-time
// failures (wrong turn, illegal move) are never surfaced as errors.
var (
	ErrRoomNotFound    = errors.New("Room not found")
	ErrRoomUnavailable = errors.New("Room is no longer available")
	ErrAlreadyAssigned = errors.New("Already joined this room")
)
