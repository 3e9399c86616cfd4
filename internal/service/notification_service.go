package service

import (
	"context"
	"fmt"

	"ai-docchat-be/internal/dto"
	"ai-docchat-be/internal/pkg/logger"
	"ai-docchat-be/pkg/events"
	pkgNats "ai-docchat-be/pkg/nats"

	"github.com/google/uuid"
)

// StatusDelivery pushes a file status update to a tenant's live connections.
// Implemented by the websocket hub.
type StatusDelivery interface {
	Send(tenantId uuid.UUID, event dto.FileStatusEvent)
}

// NotificationService bridges the event bus to the websocket hub: ingestion
// status events published by the consumer land here and get forwarded to the
// owning tenant.
type NotificationService struct {
	subscriber *pkgNats.Subscriber
	delivery   StatusDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pkgNats.Subscriber, delivery StatusDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	subject := fmt.Sprintf("events.%s", events.FileStatusEventType)
	if err := s.subscriber.Subscribe(subject, "status-push-worker", s.handleEvent); err != nil {
		s.logger.Error("notification_service", "failed to start status subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("notification_service", "listening for file status events", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	tenantId, err := uuid.Parse(stringField(payload, "tenant_id"))
	if err != nil {
		s.logger.Warn("notification_service", "event without a valid tenant_id", map[string]interface{}{"payload": payload})
		return nil
	}
	fileId, err := uuid.Parse(stringField(payload, "file_id"))
	if err != nil {
		return nil
	}

	chunkCount := 0
	if v, ok := payload["chunk_count"].(float64); ok {
		chunkCount = int(v)
	}

	s.delivery.Send(tenantId, dto.FileStatusEvent{
		TenantId:   tenantId,
		FileId:     fileId,
		Filename:   stringField(payload, "filename"),
		Status:     stringField(payload, "status"),
		Error:      stringField(payload, "error"),
		ChunkCount: chunkCount,
	})
	return nil
}

func stringField(payload map[string]interface{}, key string) string {
	v, _ := payload[key].(string)
	return v
}
