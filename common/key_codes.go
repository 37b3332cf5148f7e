package common

// Key codes delivered by the window layer. Printable keys use their ASCII value,
// matching GLFW; the rest are GLFW's named key values.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW         = 87
	KeyA         = 65
	KeyS         = 83
	KeyD         = 68
	KeySpace     = 32
	KeyGrave     = 96 // ` toggles the console
	KeyEscape    = 256
	KeyEnter     = 257
	KeyBackspace = 259
	KeyRight     = 262
	KeyLeft      = 263
	KeyDown      = 264
	KeyUp        = 265
	KeyF1        = 290 // raw lightmap toggle
	KeyLeftShift = 340
)

// Mouse buttons delivered by the window layer.
const (
	MouseLeft   = 0
	MouseRight  = 1
	MouseMiddle = 2
)
