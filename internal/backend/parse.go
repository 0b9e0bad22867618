package backend

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"petbridge/internal/protocol"
)

// #region parse
// Models format JSON output in every way imaginable: plain, fenced in
// ```json blocks, embedded in prose, with single quotes or trailing commas.
// ExtractCommands digs the command list out of all of them.

var (
	fenceRe    = regexp.MustCompile("(?s)```(?:json)?\\s*([\\[{].*?[\\]}])\\s*```")
	arraySpan  = regexp.MustCompile(`(?s)\[.*\]`)
	objectSpan = regexp.MustCompile(`(?s)\{.*\}`)
	trailComma = regexp.MustCompile(`,\s*([}\]])`)
)

const maxChatLen = 80

// wireCommand tolerates loosely typed params: models emit numbers and bools
// where the wire wants strings.
type wireCommand struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// ExtractCommands pulls zero or more commands out of raw model text.
// Unknown actions are dropped rather than failing the whole reply, and chat
// messages are capped so the bot cannot flood the in-game chat.
func ExtractCommands(text string) []protocol.Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	for _, candidate := range candidates(text) {
		if cmds := tryParse(candidate); cmds != nil {
			return cmds
		}
	}
	return nil
}

// candidates yields spans to attempt in decreasing order of confidence.
func candidates(text string) []string {
	var out []string
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	if m := arraySpan.FindString(text); m != "" {
		out = append(out, m)
	}
	if m := objectSpan.FindString(text); m != "" {
		out = append(out, m)
	}
	return append(out, text)
}

func tryParse(s string) []protocol.Command {
	s = strings.TrimSpace(s)
	if cmds := decode(s); cmds != nil {
		return cmds
	}
	return decode(repairJSON(s))
}

// decode accepts either a single command object or an array of them.
func decode(s string) []protocol.Command {
	var wires []wireCommand
	if err := json.Unmarshal([]byte(s), &wires); err != nil {
		var single wireCommand
		if err := json.Unmarshal([]byte(s), &single); err != nil {
			return nil
		}
		wires = []wireCommand{single}
	}

	var out []protocol.Command
	for _, w := range wires {
		if !protocol.IsKnownAction(w.Action) {
			continue
		}
		params := make(map[string]string, len(w.Params))
		for k, v := range w.Params {
			params[k] = paramString(v)
		}
		if w.Action == protocol.ActionChat {
			params["message"] = capChat(params["message"])
		}
		out = append(out, protocol.Command{Action: w.Action, Params: params})
	}
	return out
}

func paramString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// repairJSON fixes the two most common model mistakes: single quotes and
// trailing commas. Quote substitution only applies when the span carries no
// double quotes at all, otherwise a mixed string would be corrupted.
func repairJSON(s string) string {
	if !strings.Contains(s, `"`) {
		s = strings.ReplaceAll(s, "'", `"`)
	}
	return trailComma.ReplaceAllString(s, "$1")
}

// capChat bounds a chat line, cutting on a rune boundary so a multi-byte
// character is never split into invalid UTF-8.
func capChat(msg string) string {
	if len(msg) <= maxChatLen {
		return msg
	}
	cut := maxChatLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// FallbackChat reduces unparseable model prose to a plain chat line: markdown
// noise stripped, whitespace collapsed, capped. Empty when nothing survives.
func FallbackChat(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '`', '*', '#', '[', ']', '{', '}', '\n':
			return ' '
		}
		return r
	}, text)
	return capChat(strings.Join(strings.Fields(cleaned), " "))
}

// #endregion parse
