package backend

import (
	"github.com/valerio/go-jeebie/jeebie/input/action"
	"github.com/valerio/go-jeebie/jeebie/input/event"
	"github.com/valerio/go-jeebie/jeebie/video"
)

// Backend represents a complete emulator platform (rendering + input).
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, SDL window, snapshot file, etc.)
// - Translating platform-specific input into InputEvents
// - Handling backend-specific features (snapshots, test patterns)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config BackendConfig) error

	// Update renders the given frame (or a test pattern if configured) and
	// returns any input events collected since the last call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup releases resources when shutting down.
	Cleanup() error
}

// InputEvent is a single, backend-agnostic input occurrence: a joypad or
// emulator-control action changing state.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// BackendConfig holds configuration for backends.
type BackendConfig struct {
	Title       string
	Scale       int
	VSync       bool
	Fullscreen  bool
	ShowDebug   bool // Backends may ignore unsupported features
	TestPattern bool // Display test pattern instead of emulation
}
