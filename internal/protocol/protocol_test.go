package protocol

import (
	"strings"
	"testing"
)

// #region action-tests
func TestIsKnownAction(t *testing.T) {
	for _, a := range []string{ActionMove, ActionStop, ActionChat, ActionRawCommand} {
		if !IsKnownAction(a) {
			t.Errorf("expected %q to be known", a)
		}
	}
	if IsKnownAction("dance") {
		t.Error("dance should not be a known action")
	}
	if IsKnownAction("") {
		t.Error("empty action should not be known")
	}
}

func TestCommandParam(t *testing.T) {
	c := Command{ID: "c1", Action: ActionMove, Params: map[string]string{"direction": "forward"}}
	if got := c.Param("direction", "x"); got != "forward" {
		t.Errorf("direction = %q", got)
	}
	if got := c.Param("distance", "5"); got != "5" {
		t.Errorf("fallback = %q", got)
	}
}

// #endregion action-tests

// #region error-tests
func TestErrorStrings(t *testing.T) {
	if got := UnknownActionError("dance"); got != "unknown action: dance" {
		t.Errorf("unknown action string = %q", got)
	}
	if !IsKnownCode(ErrBotOffline) || !IsKnownCode("") {
		t.Error("known codes misreported")
	}
	if IsKnownCode("E_NOPE") {
		t.Error("E_NOPE should be unknown")
	}
}

// #endregion error-tests

// #region schema-tests
func TestDecodeResults_Valid(t *testing.T) {
	body := `[{"id":"a","ok":true},{"id":"b","ok":false,"error":"bot offline"}]`
	results, err := DecodeResults([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Error != "bot offline" {
		t.Errorf("error = %q", results[1].Error)
	}
}

func TestDecodeResults_MissingID(t *testing.T) {
	_, err := DecodeResults([]byte(`[{"ok":true}]`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), ErrProtoBadRequest) {
		t.Errorf("expected %s in %v", ErrProtoBadRequest, err)
	}
}

func TestDecodeChat_Valid(t *testing.T) {
	ev, err := DecodeChat([]byte(`{"player":"Steve","message":"hi petbot"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Player != "Steve" || ev.Message != "hi petbot" {
		t.Errorf("decoded %+v", ev)
	}
}

func TestDecodeChat_EmptyMessage(t *testing.T) {
	if _, err := DecodeChat([]byte(`{"player":"Steve","message":""}`)); err == nil {
		t.Fatal("expected validation error for empty message")
	}
}

func TestDecodeContext_Valid(t *testing.T) {
	body := `{"position":{"x":1,"y":64,"z":-3},"yaw":90,"selected_slot":2,"move_active":true}`
	snap, err := DecodeContext([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Position.X != 1 || snap.Position.Z != -3 {
		t.Errorf("position = %+v", snap.Position)
	}
	if !snap.MoveActive {
		t.Error("move_active lost")
	}
}

func TestDecodeContext_BadSlot(t *testing.T) {
	if _, err := DecodeContext([]byte(`{"position":{"x":0,"y":0,"z":0},"selected_slot":99}`)); err == nil {
		t.Fatal("expected validation error for slot out of range")
	}
}

// #endregion schema-tests
