package service

import (
	"context"
	"errors"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/entity"
	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/internal/pkg/serverutils"
	"pagefiber-be/internal/repository/specification"
	"pagefiber-be/internal/repository/unitofwork"
	"pagefiber-be/pkg/embedding"
	"pagefiber-be/pkg/render/html"
	"pagefiber-be/pkg/render/markdown"
	pkgSearch "pagefiber-be/pkg/search"

	"github.com/google/uuid"
)

var ErrPageNotFound = errors.New("page not found")

const (
	searchTypeLiteralFilter = "literal_filter"
	searchTypeLiteral       = "literal"
	searchTypeSemantic      = "semantic"

	defaultPageLimit = 20
)

type IPageService interface {
	Show(ctx context.Context, slug string) (*dto.PageResponse, error)
	// Preview renders a page by id whether or not it is published
	Preview(ctx context.Context, id uuid.UUID) (*dto.PageResponse, error)
	HTML(ctx context.Context, slug string) (string, error)
	Markdown(ctx context.Context, slug string) (string, error)
	List(ctx context.Context, req *dto.ListPagesRequest) (*serverutils.PagedResponse[*dto.PageSummaryResponse], error)
	Search(ctx context.Context, query string) ([]*dto.SearchPageResponse, error)
}

type SearchOptions struct {
	Threshold float64
	Limit     int
}

type pageService struct {
	uowFactory        unitofwork.RepositoryFactory
	renderer          IPageRenderer
	embeddingProvider embedding.EmbeddingProvider
	htmlRenderer      *html.Renderer
	search            SearchOptions
	logger            logger.ILogger
}

func NewPageService(
	uowFactory unitofwork.RepositoryFactory,
	renderer IPageRenderer,
	embeddingProvider embedding.EmbeddingProvider,
	search SearchOptions,
	log logger.ILogger,
) IPageService {
	if search.Limit <= 0 {
		search.Limit = 10
	}
	return &pageService{
		uowFactory:        uowFactory,
		renderer:          renderer,
		embeddingProvider: embeddingProvider,
		htmlRenderer:      html.NewRenderer(),
		search:            search,
		logger:            log,
	}
}

func (s *pageService) findPublished(ctx context.Context, slug string) (*entity.Page, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.BySlug{Slug: slug}, specification.Published{})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	return page, nil
}

func (s *pageService) toResponse(ctx context.Context, page *entity.Page) *dto.PageResponse {
	return &dto.PageResponse{
		Id:        page.Id,
		Slug:      page.Slug,
		Title:     page.Title,
		Version:   page.Version,
		UpdatedAt: page.UpdatedAt,
		Document:  s.renderer.RenderPage(ctx, page),
	}
}

func (s *pageService) Show(ctx context.Context, slug string) (*dto.PageResponse, error) {
	page, err := s.findPublished(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, page), nil
}

func (s *pageService) Preview(ctx context.Context, id uuid.UUID) (*dto.PageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	page, err := uow.PageRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, ErrPageNotFound
	}
	return s.toResponse(ctx, page), nil
}

func (s *pageService) HTML(ctx context.Context, slug string) (string, error) {
	page, err := s.findPublished(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.htmlRenderer.Page(page.Title, s.renderer.RenderPage(ctx, page)), nil
}

func (s *pageService) Markdown(ctx context.Context, slug string) (string, error) {
	page, err := s.findPublished(ctx, slug)
	if err != nil {
		return "", err
	}
	return "# " + page.Title + "\n\n" + markdown.Render(s.renderer.RenderPage(ctx, page)), nil
}

func (s *pageService) List(ctx context.Context, req *dto.ListPagesRequest) (*serverutils.PagedResponse[*dto.PageSummaryResponse], error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.PageRepository().Count(ctx, specification.Published{})
	if err != nil {
		return nil, err
	}
	pages, err := uow.PageRepository().FindAll(ctx,
		specification.Published{},
		specification.OrderBy{Field: req.OrderBy, Desc: req.Desc},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PageSummaryResponse, 0, len(pages))
	for _, p := range pages {
		items = append(items, &dto.PageSummaryResponse{
			Id:        p.Id,
			Slug:      p.Slug,
			Title:     p.Title,
			Published: p.Published,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return &serverutils.PagedResponse[*dto.PageSummaryResponse]{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: req.Offset,
	}, nil
}

// Search runs slash filters literally, otherwise picks literal or semantic
// matching from the query shape. Semantic search falls back to literal when
// the embedding provider is unavailable or nothing clears the threshold.
func (s *pageService) Search(ctx context.Context, query string) ([]*dto.SearchPageResponse, error) {
	filters := pkgSearch.ParseQuery(query)

	if filters.HasFilters() {
		specs := []specification.Specification{specification.Published{}}
		if filters.SlugPrefix != "" {
			specs = append(specs, specification.BySlugPrefix{Prefix: filters.SlugPrefix})
		}
		if filters.PageTitle != "" {
			specs = append(specs, specification.ByPageTitle{Title: filters.PageTitle})
		}
		if filters.SearchQuery != "" {
			specs = append(specs, specification.PageSearchQuery{Query: filters.SearchQuery})
		}
		return s.literal(ctx, searchTypeLiteralFilter, specs...)
	}

	if pkgSearch.DetermineStrategy(query) == pkgSearch.StrategySemantic && s.embeddingProvider != nil {
		results, err := s.semantic(ctx, query)
		switch {
		case err != nil:
			s.logger.Warn("PageService", "Semantic search failed, falling back to literal", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
		case len(results) > 0:
			return results, nil
		}
	}

	return s.literal(ctx, searchTypeLiteral,
		specification.Published{},
		specification.PageSearchQuery{Query: pkgSearch.Unquote(query)},
	)
}

func (s *pageService) literal(ctx context.Context, searchType string, specs ...specification.Specification) ([]*dto.SearchPageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	specs = append(specs,
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: s.search.Limit},
	)
	pages, err := uow.PageRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	results := make([]*dto.SearchPageResponse, 0, len(pages))
	for _, p := range pages {
		results = append(results, s.toSearchResponse(ctx, p, searchType, nil))
	}
	return results, nil
}

func (s *pageService) semantic(ctx context.Context, query string) ([]*dto.SearchPageResponse, error) {
	res, err := s.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	// several chunks of one page can rank, so over-fetch before deduplicating
	scored, err := uow.PageEmbeddingRepository().SearchSimilarWithScore(ctx, res.Embedding.Values, s.search.Limit*3, s.search.Threshold)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return []*dto.SearchPageResponse{}, nil
	}

	ids := make([]uuid.UUID, 0, len(scored))
	scores := make(map[uuid.UUID]float64, len(scored))
	for _, sr := range scored {
		if _, seen := scores[sr.Embedding.PageId]; seen {
			continue
		}
		scores[sr.Embedding.PageId] = sr.Similarity
		ids = append(ids, sr.Embedding.PageId)
	}

	pages, err := uow.PageRepository().FindAll(ctx, specification.ByIDs{IDs: ids}, specification.Published{})
	if err != nil {
		return nil, err
	}
	byId := make(map[uuid.UUID]*entity.Page, len(pages))
	for _, p := range pages {
		byId[p.Id] = p
	}

	results := make([]*dto.SearchPageResponse, 0, len(ids))
	for _, id := range ids {
		p, ok := byId[id]
		if !ok {
			continue
		}
		score := scores[id]
		results = append(results, s.toSearchResponse(ctx, p, searchTypeSemantic, &score))
		if len(results) == s.search.Limit {
			break
		}
	}
	return results, nil
}

func (s *pageService) toSearchResponse(ctx context.Context, p *entity.Page, searchType string, score *float64) *dto.SearchPageResponse {
	return &dto.SearchPageResponse{
		Id:             p.Id,
		Slug:           p.Slug,
		Title:          p.Title,
		SearchType:     searchType,
		RelevanceScore: score,
		Document:       s.renderer.RenderPage(ctx, p),
	}
}
