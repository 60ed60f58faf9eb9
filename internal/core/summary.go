package core

import (
	"fmt"
	"strings"
	"time"
)

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Name  string
	Total Money
}

// Summary holds per-category totals over a window, in the order categories
// were first encountered.
type Summary struct {
	Window     Window
	Count      int
	Categories []CategoryTotal
}

// Summarize totals records falling inside w as of now.
func Summarize(records []Expense, w Window, now time.Time) Summary {
	s := Summary{Window: w}
	pos := map[string]int{}
	for _, e := range records {
		if !w.Includes(e.Timestamp, now) {
			continue
		}
		name := e.CategoryLabel()
		i, ok := pos[name]
		if !ok {
			i = len(s.Categories)
			pos[name] = i
			s.Categories = append(s.Categories, CategoryTotal{Name: name})
		}
		s.Categories[i].Total = s.Categories[i].Total.Add(e.Amount)
		s.Count++
	}
	return s
}

// IsEmpty reports whether no record fell inside the window.
func (s Summary) IsEmpty() bool {
	return s.Count == 0
}

// Total returns the grand total across categories.
func (s Summary) Total() Money {
	var t Money
	for _, c := range s.Categories {
		t = t.Add(c.Total)
	}
	return t
}

// Lines renders one "category: total" line per category.
func (s Summary) Lines() []string {
	out := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		out = append(out, fmt.Sprintf("%s: %s", c.Name, c.Total))
	}
	return out
}

// Render formats the summary body with a title line.
func (s Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary (%s):", s.Window.Label)
	for _, l := range s.Lines() {
		b.WriteString("\n")
		b.WriteString(l)
	}
	return b.String()
}
