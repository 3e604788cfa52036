package tui

import "go.trai.ch/mkd/internal/core/domain"

// MsgContent carries a new version of the file.
type MsgContent struct {
	Content string
}

// MsgStatus carries a connection status change.
type MsgStatus struct {
	Status domain.ConnectionStatus
}
