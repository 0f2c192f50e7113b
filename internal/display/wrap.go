package display

import "strings"

// Wrap breaks text into lines no longer than width runes, splitting on
// whitespace. Words longer than the width are hard-split so a single long
// token cannot overflow the screen.
func Wrap(text string, width int) []string {
	if width <= 0 {
		width = 1
	}

	var lines []string
	var line strings.Builder
	lineLen := 0

	flush := func() {
		if lineLen > 0 {
			lines = append(lines, line.String())
			line.Reset()
			lineLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)

		// Hard-split oversized words.
		for len(runes) > width {
			flush()
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		if len(runes) == 0 {
			continue
		}

		need := len(runes)
		if lineLen > 0 {
			need++ // separating space
		}
		if lineLen+need > width {
			flush()
		}
		if lineLen > 0 {
			line.WriteByte(' ')
			lineLen++
		}
		line.WriteString(string(runes))
		lineLen += len(runes)
	}
	flush()

	return lines
}

// Center pads a line with leading spaces so it sits in the middle of width.
func Center(line string, width int) string {
	pad := (width - len([]rune(line))) / 2
	if pad <= 0 {
		return line
	}
	return strings.Repeat(" ", pad) + line
}
