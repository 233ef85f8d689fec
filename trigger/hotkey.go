package trigger

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier is a RegisterHotKey modifier flag
type Modifier uint32

const (
	ModAlt     Modifier = 0x0001
	ModControl Modifier = 0x0002
	ModShift   Modifier = 0x0004
	ModWin     Modifier = 0x0008
)

// HotKey is a global key combination: modifiers plus one virtual-key code
type HotKey struct {
	Modifiers Modifier
	Key       uint32
}

// DefaultHotKey is SHIFT+CTRL+D
var DefaultHotKey = HotKey{Modifiers: ModControl | ModShift, Key: 'D'}

var modifierNames = map[string]Modifier{
	"alt":     ModAlt,
	"ctrl":    ModControl,
	"control": ModControl,
	"shift":   ModShift,
	"win":     ModWin,
}

// ParseHotKey parses combinations such as "ctrl+shift+d" or "Alt+F9". At
// least one modifier is required; the key is a letter, a digit or F1-F24.
func ParseHotKey(s string) (HotKey, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) < 2 {
		return HotKey{}, fmt.Errorf("hot-key %q needs at least one modifier and a key", s)
	}

	var hk HotKey
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierNames[strings.TrimSpace(part)]
		if !ok {
			return HotKey{}, fmt.Errorf("hot-key %q: unknown modifier %q", s, part)
		}
		if hk.Modifiers&mod != 0 {
			return HotKey{}, fmt.Errorf("hot-key %q: modifier %q repeated", s, part)
		}
		hk.Modifiers |= mod
	}

	key, err := parseKey(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return HotKey{}, fmt.Errorf("hot-key %q: %w", s, err)
	}
	hk.Key = key
	return hk, nil
}

func parseKey(k string) (uint32, error) {
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint32(c - 'a' + 'A'), nil
		case c >= '0' && c <= '9':
			return uint32(c), nil
		}
	}
	if strings.HasPrefix(k, "f") {
		n, err := strconv.Atoi(k[1:])
		if err == nil && n >= 1 && n <= 24 {
			return uint32(0x70 + n - 1), nil // VK_F1
		}
	}
	return 0, fmt.Errorf("unsupported key %q", k)
}

func (hk HotKey) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Modifier
		name string
	}{{ModControl, "CTRL"}, {ModShift, "SHIFT"}, {ModAlt, "ALT"}, {ModWin, "WIN"}} {
		if hk.Modifiers&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}

	switch {
	case hk.Key >= 0x70 && hk.Key <= 0x87:
		parts = append(parts, fmt.Sprintf("F%d", hk.Key-0x70+1))
	case (hk.Key >= 'A' && hk.Key <= 'Z') || (hk.Key >= '0' && hk.Key <= '9'):
		parts = append(parts, string(rune(hk.Key)))
	default:
		parts = append(parts, fmt.Sprintf("VK(0x%02X)", hk.Key))
	}
	return strings.Join(parts, "+")
}
