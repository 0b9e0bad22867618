package backend

import (
	"regexp"

	"petbridge/internal/protocol"
)

// #region classify
// directRule maps an obvious chat phrase straight to an action, skipping the
// model round trip entirely. Patterns match against lowercased text; first
// match wins, so more specific rules sit above the generic ones.
type directRule struct {
	pattern *regexp.Regexp
	action  string
	params  map[string]string
}

var directRules = []directRule{
	{regexp.MustCompile(`\b(go|move|walk|step)\s+forward\b`), protocol.ActionMove, map[string]string{"direction": "forward"}},
	{regexp.MustCompile(`\b(go|move|walk|step)\s+back(ward)?\b`), protocol.ActionMove, map[string]string{"direction": "backward"}},
	{regexp.MustCompile(`\b(go|move|walk|step)\s+left\b`), protocol.ActionMove, map[string]string{"direction": "left"}},
	{regexp.MustCompile(`\b(go|move|walk|step)\s+right\b`), protocol.ActionMove, map[string]string{"direction": "right"}},
	{regexp.MustCompile(`\bstop( moving)?\b`), protocol.ActionStop, nil},
	{regexp.MustCompile(`\bjump\b`), protocol.ActionJump, nil},
	{regexp.MustCompile(`\blook\s+north\b`), protocol.ActionLook, map[string]string{"yaw": "180", "pitch": "0"}},
	{regexp.MustCompile(`\blook\s+south\b`), protocol.ActionLook, map[string]string{"yaw": "0", "pitch": "0"}},
	{regexp.MustCompile(`\blook\s+east\b`), protocol.ActionLook, map[string]string{"yaw": "-90", "pitch": "0"}},
	{regexp.MustCompile(`\blook\s+west\b`), protocol.ActionLook, map[string]string{"yaw": "90", "pitch": "0"}},
	{regexp.MustCompile(`\blook\s+up\b`), protocol.ActionLook, map[string]string{"pitch": "-90"}},
	{regexp.MustCompile(`\blook\s+down\b`), protocol.ActionLook, map[string]string{"pitch": "90"}},
	{regexp.MustCompile(`\b(sit|sit\s*down)\b`), protocol.ActionSit, nil},
	{regexp.MustCompile(`\bunsneak\b`), protocol.ActionSneak, map[string]string{"state": "off"}},
	{regexp.MustCompile(`\bsneak\b`), protocol.ActionSneak, map[string]string{"state": "on"}},
	{regexp.MustCompile(`\bsprint\b`), protocol.ActionSprint, map[string]string{"state": "on"}},
}

// ClassifyDirect returns the action for an unambiguous movement-style phrase,
// or ok=false when the text needs the model. The returned command has no id;
// the caller assigns one at enqueue time.
func ClassifyDirect(text string) (protocol.Command, bool) {
	lower := lowerASCII(text)
	for _, rule := range directRules {
		if rule.pattern.MatchString(lower) {
			params := make(map[string]string, len(rule.params))
			for k, v := range rule.params {
				params[k] = v
			}
			return protocol.Command{Action: rule.action, Params: params}, true
		}
	}
	return protocol.Command{}, false
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// #endregion classify
