// Package ui holds the screen model: a navigation stack with overlay
// semantics, a small semantic action set decoupled from any physical
// input device, and the screens themselves. Rendering is behind the
// Display interface; this package never draws pixels.
package ui

// Action is an abstract input action, mapped from whatever physical
// device the build runs on. Screens implement behavior against this
// fixed set, never against hardware codes.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionSelect
	ActionBack
	ActionConfirm
)

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionSelect:
		return "select"
	case ActionBack:
		return "back"
	case ActionConfirm:
		return "confirm"
	default:
		return "none"
	}
}
