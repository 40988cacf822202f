package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ainside/licensing-api/internal/domain/connection"
	"github.com/ainside/licensing-api/internal/domain/hwid"
	"github.com/ainside/licensing-api/internal/domain/registration"
	"github.com/ainside/licensing-api/internal/handler/dto"
	"github.com/ainside/licensing-api/internal/ierr"
	"github.com/ainside/licensing-api/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const presenceTTL = 90 * time.Second

type HeartbeatService struct {
	registrations registration.Repository
	connections   connection.Repository
	redis         *redis.Client
	logger        *zap.Logger
}

func NewHeartbeatService(
	registrations registration.Repository,
	connections connection.Repository,
	redisClient *redis.Client,
	logger *zap.Logger,
) *HeartbeatService {
	return &HeartbeatService{
		registrations: registrations,
		connections:   connections,
		redis:         redisClient,
		logger:        logger.Named("HeartbeatService"),
	}
}

// Beat refreshes the presence row for a running client. Only hardware
// with an active registration may report presence; this is an existence
// gate, not part of the cryptographic trust chain.
func (s *HeartbeatService) Beat(ctx context.Context, req *dto.HeartbeatRequest) (*connection.Connection, error) {
	id, err := hwid.Parse(strings.TrimSpace(req.HWID))
	if err != nil {
		metrics.HeartbeatsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: %v", ierr.ErrValidation, err)
	}

	if _, err := s.registrations.FindActiveByHWID(ctx, id.String()); err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			metrics.HeartbeatsTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
			s.logger.Info("Heartbeat rejected: unregistered hwid", zap.String("hwid", id.String()))
			return nil, ierr.ErrUnregisteredHWID
		}
		metrics.HeartbeatsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("Failed to check registration for heartbeat", zap.String("hwid", id.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to validate registration", ierr.ErrInternalServer)
	}

	conn, err := s.connections.Upsert(ctx, &connection.Connection{
		HWID:             id.String(),
		PlanName:         strings.TrimSpace(req.PlanName),
		StrategiesActive: req.StrategiesActive,
	})
	if err != nil {
		metrics.HeartbeatsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("Failed to upsert client connection", zap.String("hwid", id.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to record heartbeat", ierr.ErrInternalServer)
	}

	// Short-lived presence key for the admin dashboard; losing it only
	// degrades the online indicator.
	if s.redis != nil {
		if err := s.redis.Set(ctx, "presence:"+id.String(), time.Now().UTC().Format(time.RFC3339), presenceTTL).Err(); err != nil {
			s.logger.Warn("Failed to refresh presence key", zap.String("hwid", id.String()), zap.Error(err))
		}
	}

	metrics.HeartbeatsTotal.WithLabelValues(metrics.OutcomeAllowed).Inc()
	return conn, nil
}
