package bot

import (
	"errors"
	"strings"
	"testing"
)

func TestChoiceRoundTrip(t *testing.T) {
	s, err := EncodeChoice(MenuCategory, "Food: take-away", 64)
	if err != nil {
		t.Fatalf("EncodeChoice: %v", err)
	}
	menu, value, err := DecodeChoice(s)
	if err != nil || menu != MenuCategory || value != "Food: take-away" {
		t.Fatalf("DecodeChoice(%q) = %q, %q, %v", s, menu, value, err)
	}
}

func TestChoiceErrors(t *testing.T) {
	if _, err := EncodeChoice(MenuWindow, strings.Repeat("x", 70), 64); !errors.Is(err, ErrMalformedChoice) {
		t.Errorf("oversized payload: %v", err)
	}
	if _, err := EncodeChoice("a:b", "x", 0); !errors.Is(err, ErrMalformedChoice) {
		t.Errorf("separator in menu id: %v", err)
	}
	for _, s := range []string{"", "category", "category:", ":Food"} {
		if _, _, err := DecodeChoice(s); !errors.Is(err, ErrMalformedChoice) {
			t.Errorf("DecodeChoice(%q) err = %v", s, err)
		}
	}
}
