package service

import (
	"context"
	"time"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/pkg/blocks"
	"pagefiber-be/pkg/events"
)

const alertRenderFailed = "render_failed"

// Broadcaster is satisfied by the websocket hub
type Broadcaster interface {
	Broadcast(ctx context.Context, msgType string, data interface{}) error
}

type IAlertService interface {
	// Notifier binds a page to a blocks.FailureNotifier for one render pass
	Notifier(ctx context.Context, page *entity.Page) blocks.FailureNotifier
	PageRenderFailed(ctx context.Context, page *entity.Page, err error)
}

type alertService struct {
	hub            Broadcaster
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewAlertService(hub Broadcaster, eventPublisher events.Publisher, log logger.ILogger) IAlertService {
	return &alertService{
		hub:            hub,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

type pageFailureNotifier struct {
	ctx  context.Context
	svc  *alertService
	page *entity.Page
}

func (n pageFailureNotifier) RenderFailed(err error) {
	n.svc.PageRenderFailed(n.ctx, n.page, err)
}

func (s *alertService) Notifier(ctx context.Context, page *entity.Page) blocks.FailureNotifier {
	return pageFailureNotifier{ctx: ctx, svc: s, page: page}
}

// PageRenderFailed never returns an error; alerting must not break page delivery.
func (s *alertService) PageRenderFailed(ctx context.Context, page *entity.Page, err error) {
	alert := dto.RenderAlert{
		PageId:     page.Id,
		Slug:       page.Slug,
		Title:      page.Title,
		Error:      err.Error(),
		OccurredAt: time.Now().UTC(),
	}

	s.logger.Error("AlertService", "Page render failed", map[string]interface{}{
		"page_id": page.Id,
		"slug":    page.Slug,
		"version": page.Version,
		"error":   alert.Error,
	})

	// detach from the request so a disconnecting client does not cancel the alert
	ctx = context.WithoutCancel(ctx)

	if s.hub != nil {
		if err := s.hub.Broadcast(ctx, alertRenderFailed, alert); err != nil {
			s.logger.Warn("AlertService", "Failed to broadcast alert", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.eventPublisher != nil {
		event := events.New(events.RenderFailed, map[string]interface{}{
			"page_id": page.Id.String(),
			"slug":    page.Slug,
			"version": page.Version,
			"error":   alert.Error,
		})
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("AlertService", "Failed to publish RENDER_FAILED event", map[string]interface{}{"error": err.Error()})
		}
	}
}
