package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ocpp-csms-server/csms-go/pkg/version"
)

// RequireCompatibleClient rejects calls from components whose user agent
// names a major version other than version.Current. Clients that do not
// identify with a component version, such as generic gRPC tools, are served.
func RequireCompatibleClient() grpc.UnaryServerInterceptor {
	current, err := version.Parse(version.Current)
	if err != nil {
		panic(err)
	}
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		for _, ua := range md.Get("user-agent") {
			component, v, err := version.ParseUserAgent(ua)
			if err != nil {
				continue
			}
			if !v.Compatible(current) {
				return nil, status.Errorf(codes.FailedPrecondition,
					"%s %s is not compatible with server version %s", component, v, current)
			}
		}
		return handler(ctx, req)
	}
}
