package bot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gorcon/rcon"

	"petbridge/internal/protocol"
)

// #region rconbot
// RconBot drives a Carpet fake player over the server's RCON port. Commands
// follow the Carpet /player syntax; block edits and chat go through vanilla
// commands. World observation is dead-reckoned from issued commands, since
// RCON offers no entity query cheap enough for a 0.5s cadence.
type RconBot struct {
	name string

	mu      sync.Mutex
	conn    *rcon.Conn
	pos     protocol.Vec3
	yaw     float64
	pitch   float64
	slot    int
	heading string
}

// DialRcon connects to the server RCON port and returns a bot driving the
// named fake player.
func DialRcon(addr, password, playerName string) (*RconBot, error) {
	conn, err := rcon.Dial(addr, password)
	if err != nil {
		return nil, fmt.Errorf("rcon dial %s: %w", addr, err)
	}
	return &RconBot{name: playerName, conn: conn}, nil
}

// Close shuts down the RCON connection.
func (b *RconBot) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

func (b *RconBot) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

func (b *RconBot) exec(cmd string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return "", ErrOffline
	}
	out, err := b.conn.Execute(cmd)
	if err != nil {
		return "", fmt.Errorf("rcon %q: %w", cmd, err)
	}
	return out, nil
}

// #endregion rconbot

// #region primitives
func (b *RconBot) Spawn(x, y, z float64) error {
	_, err := b.exec(fmt.Sprintf("player %s spawn at %.1f %.1f %.1f", b.name, x, y, z))
	if err == nil {
		b.mu.Lock()
		b.pos = protocol.Vec3{X: x, Y: y, Z: z}
		b.mu.Unlock()
	}
	return err
}

func (b *RconBot) StartMove(direction string) error {
	_, err := b.exec(fmt.Sprintf("player %s move %s", b.name, direction))
	if err == nil {
		b.mu.Lock()
		b.heading = direction
		b.mu.Unlock()
	}
	return err
}

func (b *RconBot) StopMove() error {
	_, err := b.exec(fmt.Sprintf("player %s stop", b.name))
	if err == nil {
		b.mu.Lock()
		b.heading = ""
		b.mu.Unlock()
	}
	return err
}

func (b *RconBot) Jump() error {
	_, err := b.exec(fmt.Sprintf("player %s jump", b.name))
	return err
}

func (b *RconBot) SetSneak(on bool) error {
	verb := "sneak"
	if !on {
		verb = "unsneak"
	}
	_, err := b.exec(fmt.Sprintf("player %s %s", b.name, verb))
	return err
}

func (b *RconBot) SetSprint(on bool) error {
	verb := "sprint"
	if !on {
		verb = "unsprint"
	}
	_, err := b.exec(fmt.Sprintf("player %s %s", b.name, verb))
	return err
}

func (b *RconBot) Look(yaw, pitch float64) error {
	_, err := b.exec(fmt.Sprintf("player %s look %.1f %.1f", b.name, yaw, pitch))
	if err == nil {
		b.mu.Lock()
		b.yaw, b.pitch = yaw, pitch
		b.mu.Unlock()
	}
	return err
}

func (b *RconBot) Turn(degrees float64) error {
	_, err := b.exec(fmt.Sprintf("player %s turn %.1f", b.name, degrees))
	if err == nil {
		b.mu.Lock()
		b.yaw += degrees
		b.mu.Unlock()
	}
	return err
}

func (b *RconBot) SelectHotbar(slot int) error {
	if slot < 0 || slot > 8 {
		return fmt.Errorf("hotbar slot out of range: %d", slot)
	}
	_, err := b.exec(fmt.Sprintf("player %s hotbar %d", b.name, slot+1))
	if err == nil {
		b.mu.Lock()
		b.slot = slot
		b.mu.Unlock()
	}
	return err
}

func (b *RconBot) Use() error {
	_, err := b.exec(fmt.Sprintf("player %s use", b.name))
	return err
}

func (b *RconBot) Attack() error {
	_, err := b.exec(fmt.Sprintf("player %s attack", b.name))
	return err
}

func (b *RconBot) Drop() error {
	_, err := b.exec(fmt.Sprintf("player %s drop", b.name))
	return err
}

func (b *RconBot) Sit(target string) error {
	_, err := b.exec(fmt.Sprintf("justSit use %s", target))
	return err
}

func (b *RconBot) Chat(message string) error {
	_, err := b.exec("say " + message)
	return err
}

func (b *RconBot) Mine(x, y, z int) error {
	_, err := b.exec(fmt.Sprintf("setblock %d %d %d air destroy", x, y, z))
	return err
}

func (b *RconBot) Place(x, y, z int, block string) error {
	_, err := b.exec(fmt.Sprintf("setblock %d %d %d %s", x, y, z, block))
	return err
}

func (b *RconBot) Interact(x, y, z int) error {
	_, err := b.exec(fmt.Sprintf("execute positioned %d %d %d run player %s use", x, y, z, b.name))
	return err
}

func (b *RconBot) RawCommand(cmd string) (string, error) {
	return b.exec(strings.TrimPrefix(cmd, "/"))
}

// #endregion primitives

// #region observe
// Snapshot reports the dead-reckoned pose. Block neighborhood fields stay
// empty over RCON; the memory store treats absent fields as unobserved.
func (b *RconBot) Snapshot() (protocol.ContextSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return protocol.ContextSnapshot{}, ErrOffline
	}
	return protocol.ContextSnapshot{
		Position:     b.pos,
		Yaw:          b.yaw,
		Pitch:        b.pitch,
		SelectedSlot: b.slot,
		MoveActive:   b.heading != "",
		Extra:        map[string]string{"transport": "rcon"},
	}, nil
}

// #endregion observe
