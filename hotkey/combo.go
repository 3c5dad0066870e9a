package hotkey

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultCombo is the dictation shortcut used when none is configured.
const DefaultCombo = "alt+space"

// Combo is a parsed shortcut such as "alt+space": zero or more modifiers
// followed by one key, all in canonical lower-case names.
type Combo struct {
	Modifiers []string
	Key       string
}

func (c Combo) String() string {
	return strings.Join(append(append([]string(nil), c.Modifiers...), c.Key), "+")
}

// Names returns every key of the combo, modifiers first.
func (c Combo) Names() []string {
	return append(append([]string(nil), c.Modifiers...), c.Key)
}

var modifierAliases = map[string]string{
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"cmd":     "cmd",
	"command": "cmd",
	"meta":    "cmd",
	"super":   "cmd",
	"win":     "cmd",
}

var keyAliases = map[string]string{
	"space":  "space",
	"enter":  "enter",
	"return": "enter",
	"esc":    "esc",
	"escape": "esc",
	"tab":    "tab",
}

// ParseCombo parses a "+"-separated shortcut. The last token is the key;
// the others must be modifiers.
func ParseCombo(s string) (Combo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Combo{}, fmt.Errorf("empty hotkey")
	}
	parts := strings.Split(strings.ToLower(s), "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var c Combo
	seen := make(map[string]bool)
	for _, p := range parts[:len(parts)-1] {
		m, ok := modifierAliases[p]
		if !ok {
			return Combo{}, fmt.Errorf("hotkey %q: %q is not a modifier", s, p)
		}
		if !seen[m] {
			seen[m] = true
			c.Modifiers = append(c.Modifiers, m)
		}
	}

	key, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Combo{}, fmt.Errorf("hotkey %q: %w", s, err)
	}
	c.Key = key
	return c, nil
}

func parseKey(k string) (string, error) {
	if len(k) == 1 {
		ch := k[0]
		if ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' {
			return k, nil
		}
	}
	if name, ok := keyAliases[k]; ok {
		return name, nil
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(k, "f")); err == nil && strings.HasPrefix(k, "f") && n >= 1 && n <= 12 {
		return "f" + strconv.Itoa(n), nil
	}
	if _, ok := modifierAliases[k]; ok {
		return "", fmt.Errorf("missing key after modifier %q", k)
	}
	if k == "" {
		return "", fmt.Errorf("missing key")
	}
	return "", fmt.Errorf("unsupported key %q", k)
}
