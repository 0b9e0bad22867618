package bot

import (
	"errors"
	"fmt"
	"sync"

	"petbridge/internal/protocol"
)

// ErrOffline is returned by every entity action when the bot is not spawned.
var ErrOffline = errors.New("bot offline")

// #region simbot
// SimBot is an in-memory bot used by tests and the demo agent. It tracks
// position, heading, hotbar, a sparse block map, and everything said in chat.
type SimBot struct {
	mu sync.Mutex

	online  bool
	pos     protocol.Vec3
	yaw     float64
	pitch   float64
	slot    int
	held    string
	heading string // active move direction, "" when idle
	sneak   bool
	sprint  bool

	blocks map[string]string // "x,y,z" → block id
	chats  []string
	raw    []string
}

// NewSimBot returns an offline SimBot; Spawn brings it online.
func NewSimBot() *SimBot {
	return &SimBot{blocks: make(map[string]string)}
}

// SetOnline forces the online flag, for tests simulating entity loss.
func (b *SimBot) SetOnline(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.online = on
}

func (b *SimBot) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

func (b *SimBot) Spawn(x, y, z float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.online = true
	b.pos = protocol.Vec3{X: x, Y: y, Z: z}
	return nil
}

// #endregion simbot

// #region motion
func (b *SimBot) StartMove(direction string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.heading = direction
	return nil
}

func (b *SimBot) StopMove() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.heading = ""
	return nil
}

// Advance moves the bot along its heading, called once per scheduler tick.
func (b *SimBot) Advance(blocks float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.heading {
	case "forward":
		b.pos.Z -= blocks
	case "backward":
		b.pos.Z += blocks
	case "left":
		b.pos.X -= blocks
	case "right":
		b.pos.X += blocks
	case "up":
		b.pos.Y += blocks
	case "down":
		b.pos.Y -= blocks
	}
}

func (b *SimBot) Jump() error { return b.requireOnline() }

func (b *SimBot) SetSneak(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.sneak = on
	return nil
}

func (b *SimBot) SetSprint(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.sprint = on
	return nil
}

func (b *SimBot) Look(yaw, pitch float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.yaw, b.pitch = yaw, pitch
	return nil
}

func (b *SimBot) Turn(degrees float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.yaw += degrees
	return nil
}

// #endregion motion

// #region actions
func (b *SimBot) SelectHotbar(slot int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	if slot < 0 || slot > 8 {
		return fmt.Errorf("hotbar slot out of range: %d", slot)
	}
	b.slot = slot
	return nil
}

func (b *SimBot) Use() error    { return b.requireOnline() }
func (b *SimBot) Attack() error { return b.requireOnline() }
func (b *SimBot) Drop() error   { return b.requireOnline() }

func (b *SimBot) Sit(string) error { return b.requireOnline() }

func (b *SimBot) Chat(message string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.chats = append(b.chats, message)
	return nil
}

func (b *SimBot) Mine(x, y, z int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.blocks[blockKey(x, y, z)] = "air"
	return nil
}

func (b *SimBot) Place(x, y, z int, block string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	b.blocks[blockKey(x, y, z)] = block
	return nil
}

func (b *SimBot) Interact(x, y, z int) error { return b.requireOnline() }

func (b *SimBot) RawCommand(cmd string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return "", ErrOffline
	}
	b.raw = append(b.raw, cmd)
	return "", nil
}

// #endregion actions

// #region observe
func (b *SimBot) Snapshot() (protocol.ContextSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return protocol.ContextSnapshot{}, ErrOffline
	}
	return protocol.ContextSnapshot{
		Position:     b.pos,
		Yaw:          b.yaw,
		Pitch:        b.pitch,
		SelectedSlot: b.slot,
		HeldItem:     b.held,
		BlockBelow:   b.blockAt(int(b.pos.X), int(b.pos.Y)-1, int(b.pos.Z)),
		BlockNorth:   b.blockAt(int(b.pos.X), int(b.pos.Y), int(b.pos.Z)-1),
		BlockSouth:   b.blockAt(int(b.pos.X), int(b.pos.Y), int(b.pos.Z)+1),
		BlockEast:    b.blockAt(int(b.pos.X)+1, int(b.pos.Y), int(b.pos.Z)),
		BlockWest:    b.blockAt(int(b.pos.X)-1, int(b.pos.Y), int(b.pos.Z)),
		MoveActive:   b.heading != "",
	}, nil
}

// SetHeld stocks the hotbar for tests and the demo world.
func (b *SimBot) SetHeld(item string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.held = item
}

// Chats returns everything the bot said.
func (b *SimBot) Chats() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.chats))
	copy(out, b.chats)
	return out
}

// BlockAt reports the block at a coordinate ("" when never touched).
func (b *SimBot) BlockAt(x, y, z int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockAt(x, y, z)
}

func (b *SimBot) blockAt(x, y, z int) string {
	return b.blocks[blockKey(x, y, z)]
}

func (b *SimBot) requireOnline() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online {
		return ErrOffline
	}
	return nil
}

func blockKey(x, y, z int) string {
	return fmt.Sprintf("%d,%d,%d", x, y, z)
}

// #endregion observe
