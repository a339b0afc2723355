package obf

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for anything but light or heavy.
var ErrUnknownMode = errors.New("obf: unknown mode")

// Mode selects the keystream. A buffer sealed in one mode can only be
// unlocked in the same mode.
type Mode uint8

const (
	// Light XORs the whole buffer against a precomputed keystream.
	Light Mode = iota
	// Heavy walks the buffer byte by byte and recomputes part of the
	// keystream on the fly, using a separate key schedule.
	Heavy
)

func (m Mode) String() string {
	switch m {
	case Light:
		return "light"
	case Heavy:
		return "heavy"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Valid reports whether m is Light or Heavy.
func (m Mode) Valid() bool {
	return m == Light || m == Heavy
}

// ParseMode accepts "light" or "heavy", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "heavy":
		return Heavy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
