package backend

import (
	"strings"
	"testing"
	"unicode/utf8"

	"petbridge/internal/protocol"
)

func TestExtractCommands_PlainArray(t *testing.T) {
	cmds := ExtractCommands(`[{"action":"move","params":{"direction":"forward","distance":3}},{"action":"chat","params":{"message":"coming!"}}]`)
	if len(cmds) != 2 {
		t.Fatalf("got %d commands", len(cmds))
	}
	if cmds[0].Action != protocol.ActionMove || cmds[0].Params["direction"] != "forward" {
		t.Errorf("first = %+v", cmds[0])
	}
	if cmds[0].Params["distance"] != "3" {
		t.Errorf("numeric param not stringified: %q", cmds[0].Params["distance"])
	}
	if cmds[1].Params["message"] != "coming!" {
		t.Errorf("second = %+v", cmds[1])
	}
}

func TestExtractCommands_SingleObject(t *testing.T) {
	cmds := ExtractCommands(`{"action":"jump","params":{}}`)
	if len(cmds) != 1 || cmds[0].Action != protocol.ActionJump {
		t.Fatalf("got %+v", cmds)
	}
}

func TestExtractCommands_FencedBlock(t *testing.T) {
	text := "Sure, here is my plan:\n```json\n[{\"action\":\"sit\",\"params\":{}}]\n```\nHope that helps!"
	cmds := ExtractCommands(text)
	if len(cmds) != 1 || cmds[0].Action != protocol.ActionSit {
		t.Fatalf("got %+v", cmds)
	}
}

func TestExtractCommands_EmbeddedInProse(t *testing.T) {
	text := `I think the right move is {"action":"stop","params":{}} because we arrived.`
	cmds := ExtractCommands(text)
	if len(cmds) != 1 || cmds[0].Action != protocol.ActionStop {
		t.Fatalf("got %+v", cmds)
	}
}

func TestExtractCommands_RepairsSingleQuotesAndTrailingCommas(t *testing.T) {
	cmds := ExtractCommands(`[{'action': 'move', 'params': {'direction': 'left',},},]`)
	if len(cmds) != 1 || cmds[0].Action != protocol.ActionMove || cmds[0].Params["direction"] != "left" {
		t.Fatalf("got %+v", cmds)
	}
}

func TestExtractCommands_UnknownActionsDropped(t *testing.T) {
	cmds := ExtractCommands(`[{"action":"fly","params":{}},{"action":"jump","params":{}}]`)
	if len(cmds) != 1 || cmds[0].Action != protocol.ActionJump {
		t.Fatalf("got %+v", cmds)
	}
}

func TestExtractCommands_ChatCapped(t *testing.T) {
	long := strings.Repeat("a", 200)
	cmds := ExtractCommands(`[{"action":"chat","params":{"message":"` + long + `"}}]`)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands", len(cmds))
	}
	if got := len(cmds[0].Params["message"]); got != maxChatLen {
		t.Errorf("message length = %d", got)
	}
}

func TestExtractCommands_ChatCapOnRuneBoundary(t *testing.T) {
	// 79 ASCII bytes then a 3-byte rune straddling the cap.
	long := strings.Repeat("a", maxChatLen-1) + "世界"
	cmds := ExtractCommands(`[{"action":"chat","params":{"message":"` + long + `"}}]`)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands", len(cmds))
	}
	got := cmds[0].Params["message"]
	if len(got) > maxChatLen {
		t.Errorf("message length = %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
	if got != strings.Repeat("a", maxChatLen-1) {
		t.Errorf("message = %q, want the straddling rune dropped whole", got)
	}
}

func TestExtractCommands_Garbage(t *testing.T) {
	for _, text := range []string{"", "   ", "no json here", `{"foo":1}`} {
		if cmds := ExtractCommands(text); cmds != nil {
			t.Errorf("ExtractCommands(%q) = %+v, want nil", text, cmds)
		}
	}
}

func TestFallbackChat(t *testing.T) {
	got := FallbackChat("```\n*Hello* there    [friend]!\n```")
	if got != "Hello there friend!" {
		t.Errorf("FallbackChat = %q", got)
	}
	if FallbackChat("```*#```") != "" {
		t.Error("markdown-only text should reduce to empty")
	}
}
