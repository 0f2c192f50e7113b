package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{
			name:  "fits on one line",
			text:  "hello world",
			width: 20,
			want:  []string{"hello world"},
		},
		{
			name:  "wraps at word boundary",
			text:  "the quick brown fox jumps",
			width: 10,
			want:  []string{"the quick", "brown fox", "jumps"},
		},
		{
			name:  "hard splits oversized word",
			text:  "abcdefghij",
			width: 4,
			want:  []string{"abcd", "efgh", "ij"},
		},
		{
			name:  "empty input",
			text:  "",
			width: 10,
			want:  nil,
		},
		{
			name:  "collapses whitespace runs",
			text:  "a   b\n\nc",
			width: 10,
			want:  []string{"a b c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.text, tt.width))
		})
	}
}

func TestWrapNeverExceedsWidth(t *testing.T) {
	text := "autonomous raspberry pi chatbots discussing the nature of consciousness at length"
	for _, width := range []int{1, 5, 12, 37} {
		for _, line := range Wrap(text, width) {
			assert.LessOrEqual(t, len([]rune(line)), width)
		}
	}
}

func TestCenter(t *testing.T) {
	assert.Equal(t, "  ab", Center("ab", 6))
	assert.Equal(t, "ab", Center("ab", 2))
	// Lines wider than the display are left untouched.
	assert.Equal(t, "abcdef", Center("abcdef", 4))
}

func TestConsoleRender(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 20)

	c.ShowStatus("idle")
	out := buf.String()
	assert.Contains(t, out, strings.Repeat("-", 20))
	assert.Contains(t, out, "idle")
}

func TestFrameStore(t *testing.T) {
	s := NewFrameStore(10)

	s.ShowMessage("hello from pi1")
	f := s.Current()
	assert.Equal(t, KindMessage, f.Kind)
	assert.Equal(t, []string{"hello from", "pi1"}, f.Lines)
	assert.False(t, f.RenderedAt.IsZero())

	s.ShowStatus("dreaming")
	assert.Equal(t, KindStatus, s.Current().Kind)

	s.Clear()
	f = s.Current()
	assert.Equal(t, KindBlank, f.Kind)
	assert.Empty(t, f.Lines)
}

func TestFanout(t *testing.T) {
	var buf bytes.Buffer
	store := NewFrameStore(40)
	f := Fanout{NewConsole(&buf, 40), store}

	f.ShowMessage("broadcast")

	assert.Contains(t, buf.String(), "broadcast")
	assert.Equal(t, KindMessage, store.Current().Kind)
	assert.NoError(t, f.Close())
}
