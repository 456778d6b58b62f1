package common

// Virtual key codes delivered by the window layer.
// Printable keys use their ASCII value, the rest follow GLFW.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87 // pan up
	KeyA     = 65 // pan left
	KeyS     = 83 // pan down
	KeyD     = 68 // pan right
	KeyC     = 67 // reset camera
	KeyL     = 76 // cycle LUT
	KeyN     = 78 // randomize settings
	KeyR     = 82 // reset runtime state
	KeyT     = 84 // toggle traces
	KeyV     = 86 // reverse LUT
	KeySpace = 32 // pause

	KeyEsc = 256

	Key1 = 49
	Key2 = 50
	Key3 = 51
	Key4 = 52
	Key5 = 53
	Key6 = 54
)

// Arrow keys (GLFW).
const (
	KeyRight = 262
	KeyLeft  = 263
	KeyDown  = 264
	KeyUp    = 265
)

// Mouse buttons handed to simulations. The window layer translates GLFW's
// left/right/middle (0/1/2) into this order; any other index is a no-op.
const (
	MouseButtonPrimary   = 0
	MouseButtonMiddle    = 1
	MouseButtonSecondary = 2
)
