package service

import (
	"context"
	"encoding/json"

	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/repository/contract"
	"pagefiber-be/pkg/blocks"
)

const rendererModule = "PageRenderer"

// IPageRenderer is the single render path for a stored page. Direct fetch,
// search results and the embedding pipeline all go through it so a page
// looks the same everywhere.
type IPageRenderer interface {
	RenderPage(ctx context.Context, page *entity.Page) *blocks.Document
}

type pageRenderer struct {
	cache  contract.RenderCache
	alerts IAlertService
	logger logger.ILogger
	opts   []blocks.Option
}

func NewPageRenderer(cache contract.RenderCache, alerts IAlertService, log logger.ILogger) IPageRenderer {
	return &pageRenderer{
		cache:  cache,
		alerts: alerts,
		logger: log,
		opts:   pageRenderOptions(),
	}
}

// pageRenderOptions are shared by every render of stored page content
func pageRenderOptions() []blocks.Option {
	return []blocks.Option{
		blocks.WithRule("bookmark", bookmarkRule),
		blocks.WithRule("link_preview", bookmarkRule),
	}
}

// bookmarkRule shows a saved link as a single linked line
func bookmarkRule(_ *blocks.RuleContext, b *blocks.Block) *blocks.RenderNode {
	if b.URL == "" {
		return nil
	}
	label := b.Caption
	if label == "" {
		label = b.Text
	}
	if label == "" {
		label = b.URL
	}
	return &blocks.RenderNode{
		Kind:    blocks.NodeParagraph,
		BlockID: b.ID,
		Runs:    []blocks.Run{{Text: label, Href: b.URL}},
	}
}

// RenderPage returns the cached document for the page's current version or
// renders and caches it. Failed documents are cached as well so a broken
// page raises one alert per version, not one per view.
func (r *pageRenderer) RenderPage(ctx context.Context, page *entity.Page) *blocks.Document {
	if r.cache != nil {
		if raw, ok := r.cache.Get(ctx, page.Id, page.Version); ok {
			var doc blocks.Document
			if err := json.Unmarshal(raw, &doc); err == nil {
				return &doc
			}
			r.logger.Warn(rendererModule, "Discarding unreadable cache entry", map[string]interface{}{"page_id": page.Id})
		}
	}

	opts := r.opts
	if r.alerts != nil {
		opts = append(opts[:len(opts):len(opts)], blocks.WithNotifier(r.alerts.Notifier(ctx, page)))
	}
	doc := blocks.NewRenderer(r.logger, opts...).RenderJSON(page.Content)

	if errs := doc.Errors(); len(errs) > 0 {
		r.logger.Warn(rendererModule, "Some blocks failed to render", map[string]interface{}{
			"page_id": page.Id,
			"slug":    page.Slug,
			"failed":  len(errs),
		})
	}

	if r.cache != nil {
		if raw, err := json.Marshal(doc); err == nil {
			r.cache.Set(ctx, page.Id, page.Version, raw)
		}
	}
	return doc
}
