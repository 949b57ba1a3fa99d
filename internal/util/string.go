// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// UNICODE: all widths are terminal columns, so CJK and emoji count as two.

// StringWidth returns the display width of a string.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to at most width columns, ending in "..." when
// anything was cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// PadRight pads s with spaces to width columns. Longer strings are returned
// unchanged.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// WrapText wraps each line of s at width columns, breaking on spaces.
// Words wider than width are split. Leading indentation of a line is kept
// on its first row only. width <= 0 returns s unchanged.
func WrapText(s string, width int) string {
	if width <= 0 {
		return s
	}

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	words := strings.Fields(line)

	var rows []string
	current := indent
	currentWidth := runewidth.StringWidth(indent)

	flush := func() {
		rows = append(rows, strings.TrimRight(current, " "))
		current = ""
		currentWidth = 0
	}

	for _, word := range words {
		w := runewidth.StringWidth(word)
		sep := 0
		if currentWidth > 0 && strings.TrimSpace(current) != "" {
			sep = 1
		}
		if currentWidth+sep+w <= width {
			if sep == 1 {
				current += " "
			}
			current += word
			currentWidth += sep + w
			continue
		}
		if strings.TrimSpace(current) != "" {
			flush()
		}
		for w > width {
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				// A single rune wider than the row still has to go somewhere
				head = string([]rune(word)[:1])
			}
			rows = append(rows, head)
			word = word[len(head):]
			w = runewidth.StringWidth(word)
		}
		current += word
		currentWidth += w
	}
	if current != "" || len(rows) == 0 {
		flush()
	}
	return rows
}
