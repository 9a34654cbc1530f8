package grpcapi

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/oksasatya/go-user-registry/pkg/apperror"
)

// ErrorInterceptor converts apperror values returned by handlers into gRPC
// statuses with structured details. Internal causes are masked in the status,
// so they are logged here.
func ErrorInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if apperror.KindOf(err) == apperror.KindInternal {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": info.FullMethod,
				"code":   string(apperror.CodeOf(err)),
			}).Error("grpc request failed")
		}
		return nil, apperror.ToGRPCStatus(err)
	}
}

// LoggingInterceptor logs method, status code and latency of every unary
// call. It must run outside ErrorInterceptor to observe final codes.
func LoggingInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		st, _ := status.FromError(err)
		entry := logger.WithFields(logrus.Fields{
			"method":     info.FullMethod,
			"code":       st.Code().String(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithField("reason", st.Message()).Warn("grpc request failed")
		} else {
			entry.Debug("grpc request")
		}
		return resp, err
	}
}
