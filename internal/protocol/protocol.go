package protocol

import "time"

// #region actions
// Action kinds understood by the dispatcher. The set is closed: anything
// outside it yields an E_UNKNOWN_ACTION result instead of failing the batch.
const (
	ActionMove       = "move"
	ActionStop       = "stop"
	ActionJump       = "jump"
	ActionSneak      = "sneak"
	ActionSprint     = "sprint"
	ActionLook       = "look"
	ActionTurn       = "turn"
	ActionHotbar     = "hotbar"
	ActionUse        = "use"
	ActionAttack     = "attack"
	ActionDrop       = "drop"
	ActionSit        = "sit"
	ActionChat       = "chat"
	ActionMine       = "mine"
	ActionPlace      = "place"
	ActionInteract   = "interact"
	ActionRawCommand = "raw_command"
)

var knownActions = map[string]struct{}{
	ActionMove: {}, ActionStop: {}, ActionJump: {}, ActionSneak: {},
	ActionSprint: {}, ActionLook: {}, ActionTurn: {}, ActionHotbar: {},
	ActionUse: {}, ActionAttack: {}, ActionDrop: {}, ActionSit: {},
	ActionChat: {}, ActionMine: {}, ActionPlace: {}, ActionInteract: {},
	ActionRawCommand: {},
}

// IsKnownAction reports whether the dispatcher has a handler for the action.
func IsKnownAction(action string) bool {
	_, ok := knownActions[action]
	return ok
}

// #endregion actions

// #region command
// Command is one instruction from the reasoning backend to the in-game agent.
// The ID is an opaque correlation token, unique per outstanding command;
// commands are never mutated after creation and consumed exactly once.
type Command struct {
	ID     string            `json:"id"`
	Action string            `json:"action"`
	Params map[string]string `json:"params,omitempty"`
}

// Param returns the named parameter or the fallback when absent.
func (c Command) Param(key, fallback string) string {
	if v, ok := c.Params[key]; ok && v != "" {
		return v
	}
	return fallback
}

// #endregion command

// #region result
// Result echoes exactly one Command. The id pairing is the only correctness
// contract between queue and backend.
type Result struct {
	ID    string            `json:"id"`
	OK    bool              `json:"ok"`
	Error string            `json:"error,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// OKResult builds a success result for the command.
func OKResult(id string) Result {
	return Result{ID: id, OK: true}
}

// ErrResult builds a failure result for the command with a stable message.
func ErrResult(id, msg string) Result {
	return Result{ID: id, OK: false, Error: msg}
}

// #endregion result

// #region chat
// ChatEvent is an in-world chat line forwarded to the bridge.
type ChatEvent struct {
	Player  string `json:"player"`
	Message string `json:"message"`
}

// #endregion chat

// #region snapshot
// ContextSnapshot is the agent's periodic world observation. It is immutable
// once pushed: each push replaces the bridge's current snapshot and is also
// appended to memory as a candidate write.
type ContextSnapshot struct {
	Position     Vec3              `json:"position"`
	Yaw          float64           `json:"yaw"`
	Pitch        float64           `json:"pitch"`
	SelectedSlot int               `json:"selected_slot"`
	HeldItem     string            `json:"held_item,omitempty"`
	BlockBelow   string            `json:"block_below,omitempty"`
	BlockNorth   string            `json:"block_north,omitempty"`
	BlockSouth   string            `json:"block_south,omitempty"`
	BlockEast    string            `json:"block_east,omitempty"`
	BlockWest    string            `json:"block_west,omitempty"`
	FloorGrid    []string          `json:"floor_grid,omitempty"`
	MoveActive   bool              `json:"move_active"`
	Extra        map[string]string `json:"extra,omitempty"`
	Time         time.Time         `json:"time"`
}

// Vec3 is a world position in block coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// #endregion snapshot
