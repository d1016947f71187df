package interaction

import (
	"context"
	"time"

	"google.golang.org/grpc/connectivity"

	"github.com/ocpp-csms-server/csms-go/pkg/log"
)

// StateSource is the part of *grpc.ClientConn that reports connectivity.
type StateSource interface {
	GetState() connectivity.State
	WaitForStateChange(ctx context.Context, source connectivity.State) bool
	Target() string
}

// WatchState logs a state change event for every connectivity transition of
// conn until ctx is done.
func WatchState(ctx context.Context, conn StateSource, logger log.Logger) {
	logger = log.OrNoop(logger)
	state := conn.GetState()
	for conn.WaitForStateChange(ctx, state) {
		next := conn.GetState()
		logger.Log(log.Event{
			Timestamp:  time.Now(),
			Direction:  log.DirectionIn,
			Layer:      log.LayerService,
			Category:   log.CategoryState,
			RemoteAddr: conn.Target(),
			StateChange: &log.StateChangeEvent{
				OldState: state.String(),
				NewState: next.String(),
			},
		})
		state = next
	}
}
