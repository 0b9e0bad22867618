package protocol

import "fmt"

// Stable error codes carried inside Result.Error and HTTP error bodies.
const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Dispatch layer.
	ErrUnknownAction = "E_UNKNOWN_ACTION"
	ErrBotOffline    = "E_BOT_OFFLINE"
	ErrAlreadyMoving = "E_ALREADY_MOVING"
	ErrBadParams     = "E_BAD_PARAMS"

	// Store layer.
	ErrStoreInternal = "E_STORE_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrUnknownAction:   {},
	ErrBotOffline:      {},
	ErrAlreadyMoving:   {},
	ErrBadParams:       {},
	ErrStoreInternal:   {},
}

// IsKnownCode reports whether code is one of the stable error codes.
// The empty string counts as known (no error).
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// Deterministic error strings required by the dispatch contract.

// UnknownActionError names the rejected action.
func UnknownActionError(action string) string {
	return fmt.Sprintf("unknown action: %s", action)
}

// BotOfflineError is returned uniformly by every action that needs a live entity.
const BotOfflineError = "bot offline"

// AlreadyMovingError rejects a move issued while one is in flight.
const AlreadyMovingError = "already moving"
