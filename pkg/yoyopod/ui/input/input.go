// Package input turns device input into semantic UI actions. Adapters
// translate whatever the hardware emits into the fixed Action set; the
// coordinator consumes actions from one channel and never sees key
// codes.
package input

import (
	"context"

	"github.com/yoyopod/yoyopod/pkg/yoyopod/ui"
)

// Source emits semantic actions until stopped.
type Source interface {
	Start() error
	// Actions is the action stream. The channel closes when the source
	// stops.
	Actions() <-chan ui.Action
	Stop(ctx context.Context)
}
