package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console renders frames as framed, centered text blocks on an io.Writer.
// It is safe for concurrent use.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	width int
}

// NewConsole creates a console renderer with the given column width.
func NewConsole(out io.Writer, width int) *Console {
	if width <= 0 {
		width = 100
	}
	return &Console{out: out, width: width}
}

func (c *Console) ShowMessage(text string) {
	c.render(Wrap(text, c.width-4))
}

func (c *Console) ShowStatus(text string) {
	c.render([]string{text})
}

func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
}

func (c *Console) Close() error { return nil }

func (c *Console) render(lines []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule := strings.Repeat("-", c.width)
	fmt.Fprintln(c.out, rule)
	for _, line := range lines {
		fmt.Fprintln(c.out, Center(line, c.width))
	}
	fmt.Fprintln(c.out, rule)
}
