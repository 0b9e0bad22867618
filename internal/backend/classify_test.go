package backend

import (
	"testing"

	"petbridge/internal/protocol"
)

func TestClassifyDirect(t *testing.T) {
	cases := []struct {
		text   string
		action string
		params map[string]string
	}{
		{"go forward", protocol.ActionMove, map[string]string{"direction": "forward"}},
		{"please WALK BACKWARD now", protocol.ActionMove, map[string]string{"direction": "backward"}},
		{"step left", protocol.ActionMove, map[string]string{"direction": "left"}},
		{"stop moving", protocol.ActionStop, nil},
		{"jump!", protocol.ActionJump, nil},
		{"look north", protocol.ActionLook, map[string]string{"yaw": "180", "pitch": "0"}},
		{"look down", protocol.ActionLook, map[string]string{"pitch": "90"}},
		{"sit down", protocol.ActionSit, nil},
		{"unsneak", protocol.ActionSneak, map[string]string{"state": "off"}},
		{"sneak", protocol.ActionSneak, map[string]string{"state": "on"}},
		{"sprint over here", protocol.ActionSprint, map[string]string{"state": "on"}},
	}
	for _, tc := range cases {
		cmd, ok := ClassifyDirect(tc.text)
		if !ok {
			t.Errorf("ClassifyDirect(%q) did not match", tc.text)
			continue
		}
		if cmd.Action != tc.action {
			t.Errorf("ClassifyDirect(%q) action = %s, want %s", tc.text, cmd.Action, tc.action)
		}
		for k, v := range tc.params {
			if cmd.Params[k] != v {
				t.Errorf("ClassifyDirect(%q) params[%s] = %q, want %q", tc.text, k, cmd.Params[k], v)
			}
		}
	}
}

func TestClassifyDirect_NeedsModel(t *testing.T) {
	for _, text := range []string{
		"what do you think about diamonds?",
		"tell me a story",
		"backward", // bare direction without a movement verb
		"",
	} {
		if _, ok := ClassifyDirect(text); ok {
			t.Errorf("ClassifyDirect(%q) matched, want passthrough to model", text)
		}
	}
}
