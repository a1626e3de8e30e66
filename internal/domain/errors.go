package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrPeerClosed      = errors.New("peer is closed")
	ErrNotWaiting      = errors.New("peer not found in waiting queue")
	ErrAlreadyAdmitted = errors.New("peer already admitted")
	ErrAdminConflict   = errors.New("room already has an active admin")
)
