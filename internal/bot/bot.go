// Package bot abstracts the in-game action primitive set. Implementations
// are assumed atomic and idempotent on retry; the movement machine in
// internal/move is what prevents a move from being reissued while active.
package bot

import "petbridge/internal/protocol"

// Bot is the live entity the dispatcher drives. Every method that needs the
// entity returns an error when it is absent; callers turn that into a
// "bot offline" result rather than a crash.
type Bot interface {
	Online() bool
	Spawn(x, y, z float64) error

	StartMove(direction string) error
	StopMove() error
	Jump() error
	SetSneak(on bool) error
	SetSprint(on bool) error
	Look(yaw, pitch float64) error
	Turn(degrees float64) error

	SelectHotbar(slot int) error
	Use() error
	Attack() error
	Drop() error
	Sit(target string) error

	Chat(message string) error
	Mine(x, y, z int) error
	Place(x, y, z int, block string) error
	Interact(x, y, z int) error
	RawCommand(cmd string) (string, error)

	// Snapshot observes the world around the entity for the context push.
	Snapshot() (protocol.ContextSnapshot, error)
}
