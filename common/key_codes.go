package common

// Key codes delivered by the window key callbacks. Values are GLFW key
// codes, which use ASCII for printable keys; only the keys the engine's
// demos react to are named here.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	// KeySpace is the spacebar (ASCII).
	KeySpace = 32

	// KeyEsc is the escape key (GLFW).
	KeyEsc = 256
)
