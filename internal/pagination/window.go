// Package pagination computes the page-number window shown under list pages.
package pagination

import "strconv"

// Siblings is the number of pages shown on each side of the current page.
const Siblings = 2

// Ellipsis marks a gap in the window.
const Ellipsis = "..."

// Item is a page number or a gap.
type Item struct {
	Page int  `json:"page,omitempty"`
	Gap  bool `json:"gap,omitempty"`
}

func (i Item) String() string {
	if i.Gap {
		return Ellipsis
	}
	return strconv.Itoa(i.Page)
}

// Window returns the page items for (current, total). First and last page are
// always present; gaps collapse runs of hidden pages. Out-of-range current
// pages are clamped.
func Window(current, total int) []Item {
	if total <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}
	if total <= Siblings+5 {
		return span(1, total)
	}
	leftGap := current-Siblings > 2
	rightGap := current+Siblings < total-1
	switch {
	case !leftGap && rightGap:
		end := max(1+2*Siblings, current+Siblings)
		return append(span(1, end), Item{Gap: true}, Item{Page: total})
	case leftGap && !rightGap:
		start := min(total-2*Siblings, current-Siblings)
		return append([]Item{{Page: 1}, {Gap: true}}, span(start, total)...)
	default:
		out := []Item{{Page: 1}, {Gap: true}}
		out = append(out, span(current-Siblings, current+Siblings)...)
		return append(out, Item{Gap: true}, Item{Page: total})
	}
}

// Strings renders a window as strings, gaps as "...".
func Strings(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.String()
	}
	return out
}

// Valid reports whether page can be navigated to.
func Valid(page, total int) bool {
	return page >= 1 && page <= total
}

func span(from, to int) []Item {
	out := make([]Item, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, Item{Page: p})
	}
	return out
}
