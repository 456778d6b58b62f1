package window

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestMapMouseButton(t *testing.T) {
	cases := []struct {
		in     glfw.MouseButton
		want   int
		wantOK bool
	}{
		{glfw.MouseButtonLeft, 0, true},
		{glfw.MouseButtonMiddle, 1, true},
		{glfw.MouseButtonRight, 2, true},
		{glfw.MouseButton4, 0, false},
	}
	for _, tc := range cases {
		got, ok := mapMouseButton(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("mapMouseButton(%v) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestWithSizeLimitsKeepsDefaultsForZero(t *testing.T) {
	w := &engineWindow{minWidth: 600, minHeight: 200, maxWidth: 3840, maxHeight: 2160}
	WithSizeLimits(320, 0, 1920, 0)(w)
	if w.minWidth != 320 || w.minHeight != 200 || w.maxWidth != 1920 || w.maxHeight != 2160 {
		t.Errorf("limits = %d,%d %d,%d", w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)
	}
}
