package agent

import (
	"fmt"
	"log"
	"strconv"

	"petbridge/internal/bot"
	"petbridge/internal/move"
	"petbridge/internal/protocol"
)

// #region dispatcher
// Dispatcher maps each Command to exactly one Result through a closed action
// table. One bad command never blocks its siblings: unknown actions, bad
// params, and an absent bot all degrade to per-command error results.
type Dispatcher struct {
	bot      bot.Bot
	move     *move.State
	logger   *log.Logger
	handlers map[string]func(protocol.Command) protocol.Result
}

// NewDispatcher wires the action table against a bot and movement machine.
func NewDispatcher(b bot.Bot, m *move.State, logger *log.Logger) *Dispatcher {
	d := &Dispatcher{bot: b, move: m, logger: logger}
	d.handlers = map[string]func(protocol.Command) protocol.Result{
		protocol.ActionMove:       d.handleMove,
		protocol.ActionStop:       d.handleStop,
		protocol.ActionJump:       d.entityAction(func(protocol.Command) error { return b.Jump() }),
		protocol.ActionSneak:      d.entityAction(d.toggle(b.SetSneak)),
		protocol.ActionSprint:     d.entityAction(d.toggle(b.SetSprint)),
		protocol.ActionLook:       d.entityAction(d.look),
		protocol.ActionTurn:       d.entityAction(d.turn),
		protocol.ActionHotbar:     d.entityAction(d.hotbar),
		protocol.ActionUse:        d.entityAction(func(protocol.Command) error { return b.Use() }),
		protocol.ActionAttack:     d.entityAction(func(protocol.Command) error { return b.Attack() }),
		protocol.ActionDrop:       d.entityAction(func(protocol.Command) error { return b.Drop() }),
		protocol.ActionSit:        d.entityAction(d.sit),
		protocol.ActionChat:       d.entityAction(d.chat),
		protocol.ActionMine:       d.entityAction(d.blockEdit(b.Mine)),
		protocol.ActionPlace:      d.entityAction(d.place),
		protocol.ActionInteract:   d.entityAction(d.blockEdit(b.Interact)),
		protocol.ActionRawCommand: d.entityAction(d.raw),
	}
	return d
}

// Dispatch resolves a batch in order, one Result per Command.
func (d *Dispatcher) Dispatch(cmds []protocol.Command) []protocol.Result {
	results := make([]protocol.Result, 0, len(cmds))
	for _, c := range cmds {
		results = append(results, d.dispatchOne(c))
	}
	return results
}

func (d *Dispatcher) dispatchOne(c protocol.Command) (res protocol.Result) {
	// A handler panic must cost one result, never the batch or the tick loop.
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("[DISPATCH] panic in %s: %v", c.Action, r)
			res = protocol.ErrResult(c.ID, fmt.Sprintf("action %s failed", c.Action))
		}
	}()

	handler, ok := d.handlers[c.Action]
	if !ok {
		return protocol.ErrResult(c.ID, protocol.UnknownActionError(c.Action))
	}
	return handler(c)
}

// #endregion dispatcher

// #region movement
func (d *Dispatcher) handleMove(c protocol.Command) protocol.Result {
	if !d.bot.Online() {
		return protocol.ErrResult(c.ID, protocol.BotOfflineError)
	}
	dir := move.NormalizeDirection(c.Param("direction", ""))
	if !move.IsKnownDirection(dir) {
		return protocol.ErrResult(c.ID, fmt.Sprintf("unknown direction: %s", c.Param("direction", "")))
	}
	dist, err := strconv.ParseFloat(c.Param("distance", "5"), 64)
	if err != nil || dist <= 0 {
		return protocol.ErrResult(c.ID, fmt.Sprintf("bad distance: %s", c.Param("distance", "")))
	}
	if !d.move.Start(dir, dist) {
		return protocol.ErrResult(c.ID, protocol.AlreadyMovingError)
	}
	if err := d.bot.StartMove(dir); err != nil {
		d.move.Stop()
		return protocol.ErrResult(c.ID, protocol.BotOfflineError)
	}
	return protocol.OKResult(c.ID)
}

// handleStop always clears the local movement state, even without an entity;
// the result still reports offline when the motion-stop could not be issued.
func (d *Dispatcher) handleStop(c protocol.Command) protocol.Result {
	d.move.Stop()
	if !d.bot.Online() {
		return protocol.ErrResult(c.ID, protocol.BotOfflineError)
	}
	if err := d.bot.StopMove(); err != nil {
		return protocol.ErrResult(c.ID, protocol.BotOfflineError)
	}
	return protocol.OKResult(c.ID)
}

// #endregion movement

// #region handlers
// entityAction wraps a handler with the uniform bot-absent degradation.
func (d *Dispatcher) entityAction(fn func(protocol.Command) error) func(protocol.Command) protocol.Result {
	return func(c protocol.Command) protocol.Result {
		if !d.bot.Online() {
			return protocol.ErrResult(c.ID, protocol.BotOfflineError)
		}
		if err := fn(c); err != nil {
			return protocol.ErrResult(c.ID, err.Error())
		}
		return protocol.OKResult(c.ID)
	}
}

func (d *Dispatcher) toggle(set func(bool) error) func(protocol.Command) error {
	return func(c protocol.Command) error {
		return set(c.Param("state", "on") != "off")
	}
}

func (d *Dispatcher) look(c protocol.Command) error {
	yaw, err1 := strconv.ParseFloat(c.Param("yaw", "0"), 64)
	pitch, err2 := strconv.ParseFloat(c.Param("pitch", "0"), 64)
	if err1 != nil || err2 != nil {
		return fmt.Errorf("bad look angles")
	}
	return d.bot.Look(yaw, pitch)
}

func (d *Dispatcher) turn(c protocol.Command) error {
	deg, err := strconv.ParseFloat(c.Param("degrees", "90"), 64)
	if err != nil {
		return fmt.Errorf("bad turn degrees: %s", c.Param("degrees", ""))
	}
	return d.bot.Turn(deg)
}

func (d *Dispatcher) hotbar(c protocol.Command) error {
	slot, err := strconv.Atoi(c.Param("slot", "0"))
	if err != nil {
		return fmt.Errorf("bad hotbar slot: %s", c.Param("slot", ""))
	}
	return d.bot.SelectHotbar(slot)
}

func (d *Dispatcher) sit(c protocol.Command) error {
	return d.bot.Sit(c.Param("target", ""))
}

func (d *Dispatcher) chat(c protocol.Command) error {
	msg := c.Param("message", "")
	if msg == "" {
		return fmt.Errorf("empty chat message")
	}
	return d.bot.Chat(msg)
}

func (d *Dispatcher) blockEdit(fn func(x, y, z int) error) func(protocol.Command) error {
	return func(c protocol.Command) error {
		x, y, z, err := coords(c)
		if err != nil {
			return err
		}
		return fn(x, y, z)
	}
}

func (d *Dispatcher) place(c protocol.Command) error {
	x, y, z, err := coords(c)
	if err != nil {
		return err
	}
	block := c.Param("block", "")
	if block == "" {
		return fmt.Errorf("missing block type")
	}
	return d.bot.Place(x, y, z, block)
}

func (d *Dispatcher) raw(c protocol.Command) error {
	cmd := c.Param("command", "")
	if cmd == "" {
		return fmt.Errorf("missing raw command")
	}
	_, err := d.bot.RawCommand(cmd)
	return err
}

func coords(c protocol.Command) (int, int, int, error) {
	x, err1 := strconv.Atoi(c.Param("x", ""))
	y, err2 := strconv.Atoi(c.Param("y", ""))
	z, err3 := strconv.Atoi(c.Param("z", ""))
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, fmt.Errorf("bad coordinates")
	}
	return x, y, z, nil
}

// #endregion handlers
