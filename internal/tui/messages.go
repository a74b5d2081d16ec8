package tui

import (
	"github.com/dm/meshtop-go/internal/client"
	"github.com/dm/meshtop-go/internal/model"
)

// NamespacesMsg delivers the namespace discovery result. Nonce ties a
// response to the request that issued it; stale responses are dropped.
type NamespacesMsg struct {
	Nonce int
	Infos []client.NamespaceInfo
	Err   error
}

// DebounceMsg reports that the coalescing timer for generation Gen
// expired.
type DebounceMsg struct{ Gen int }

// GraphResultMsg delivers a successful fetch to the TUI.
type GraphResultMsg struct {
	Seq      uint64
	Snapshot *model.GraphSnapshot
}

// GraphErrorMsg signals a fetch failure.
type GraphErrorMsg struct {
	Seq uint64
	Err error
}

// RefreshTickMsg triggers the next scheduled refresh. Gen invalidates
// ticks armed before a newer one.
type RefreshTickMsg struct{ Gen int }

// AlertExpireMsg clears the alert banner with matching ID.
type AlertExpireMsg struct{ ID int }
