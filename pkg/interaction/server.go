package interaction

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"

	"github.com/ocpp-csms-server/csms-go/pkg/log"
)

// ServerEventInterceptor records the decoded request and the response or
// error of every call a server handles. Events carry the server role and the
// caller's address.
func ServerEventInterceptor(logger log.Logger) grpc.UnaryServerInterceptor {
	logger = log.OrNoop(logger)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		tr := &trace{
			logger:    logger,
			callID:    uuid.NewString(),
			method:    path.Base(info.FullMethod),
			role:      log.RoleServer,
			chargerID: chargerIDOf(req),
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			tr.remote = p.Addr.String()
		}

		tr.request(req, nil)
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			tr.failure(log.LayerService, err)
			return resp, err
		}
		tr.response(resp, nil, time.Since(start))
		return resp, nil
	}
}
