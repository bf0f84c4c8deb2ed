// Package viz renders simulations in the terminal.
//
//   - [Canvas]: braille sub-pixel canvas with per-body colouring
//   - [Viewport] and [Camera]: map 3D positions onto the canvas
//   - [Model]: the bubbletea live view driven by a step function
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	[ ]   - Replay recent history
//	< >   - Change steps per frame
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
