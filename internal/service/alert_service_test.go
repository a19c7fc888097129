package service

import (
	"context"
	"errors"
	"testing"

	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertServiceNotifier(t *testing.T) {
	hub := &fakeBroadcaster{}
	ev := &fakeEvents{}
	svc := NewAlertService(hub, ev, logger.NewNopLogger())
	page := paragraphPage("broken", "Broken", "x", true)

	ctx, cancel := context.WithCancel(context.Background())
	notifier := svc.Notifier(ctx, page)
	cancel()
	notifier.RenderFailed(errors.New("boom"))

	assert.Equal(t, []string{alertRenderFailed}, hub.sent)
	require.Len(t, ev.events, 1)
	assert.Equal(t, events.RenderFailed, ev.events[0].EventType())
	assert.Equal(t, "boom", ev.events[0].Payload()["error"])
	assert.Equal(t, page.Id.String(), ev.events[0].Payload()["page_id"])
}

func TestAlertServiceWithoutChannels(t *testing.T) {
	svc := NewAlertService(nil, nil, logger.NewNopLogger())

	assert.NotPanics(t, func() {
		svc.PageRenderFailed(context.Background(), paragraphPage("p", "P", "x", true), errors.New("boom"))
	})
}
