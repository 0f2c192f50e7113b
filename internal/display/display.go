package display

// Package display renders chat output for the attached screen. The daemon is
// expected to run on a device whose screen shows either a kiosk browser
// pointed at the HTTP display view or the console itself, so rendering is
// expressed as text frames rather than raw video output.

// FrameKind distinguishes full chat messages from screensaver status lines.
type FrameKind string

const (
	KindMessage FrameKind = "message"
	KindStatus  FrameKind = "status"
	KindBlank   FrameKind = "blank"
)

// Renderer receives text to put on the screen.
type Renderer interface {
	// ShowMessage renders a chat message, wrapped to the display width.
	ShowMessage(text string)
	// ShowStatus renders a single centered screensaver/status line.
	ShowStatus(text string)
	// Clear blanks the screen.
	Clear()
	// Close releases any resources held by the renderer.
	Close() error
}

// Fanout drives several renderers from one call site.
type Fanout []Renderer

func (f Fanout) ShowMessage(text string) {
	for _, r := range f {
		r.ShowMessage(text)
	}
}

func (f Fanout) ShowStatus(text string) {
	for _, r := range f {
		r.ShowStatus(text)
	}
}

func (f Fanout) Clear() {
	for _, r := range f {
		r.Clear()
	}
}

func (f Fanout) Close() error {
	var first error
	for _, r := range f {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
