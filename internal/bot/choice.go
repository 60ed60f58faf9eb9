package bot

import (
	"errors"
	"fmt"
	"strings"
)

const choiceSeparator = ":"

var ErrMalformedChoice = errors.New("malformed choice")

// EncodeChoice packs a menu id and option value into a platform callback
// payload of at most limit bytes.
func EncodeChoice(menuID, value string, limit int) (string, error) {
	if menuID == "" || strings.Contains(menuID, choiceSeparator) {
		return "", fmt.Errorf("%w: menu id %q", ErrMalformedChoice, menuID)
	}
	s := menuID + choiceSeparator + value
	if limit > 0 && len(s) > limit {
		return "", fmt.Errorf("%w: %q exceeds %d bytes", ErrMalformedChoice, s, limit)
	}
	return s, nil
}

// DecodeChoice is the inverse of EncodeChoice.
func DecodeChoice(s string) (menuID, value string, err error) {
	menuID, value, ok := strings.Cut(s, choiceSeparator)
	if !ok || menuID == "" || value == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedChoice, s)
	}
	return menuID, value, nil
}
