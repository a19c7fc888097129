package controller

import (
	"errors"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/pkg/serverutils"
	"pagefiber-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPageController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	HTML(ctx *fiber.Ctx) error
	Markdown(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

type pageController struct {
	pageService service.IPageService
}

func NewPageController(pageService service.IPageService) IPageController {
	return &pageController{
		pageService: pageService,
	}
}

// RegisterRoutes uses greedy params because slugs may contain slashes.
// Exports are registered before the plain page route.
func (c *pageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/page/v1")
	h.Get("", c.List)
	h.Get("/search", c.Search)
	h.Get("/+/html", c.HTML)
	h.Get("/+/markdown", c.Markdown)
	h.Get("/+", c.Show)
}

// pageError maps service sentinels to HTTP errors for ErrorHandlerMiddleware
func pageError(err error) error {
	switch {
	case errors.Is(err, service.ErrPageNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Page not found")
	case errors.Is(err, service.ErrSlugTaken):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}

func (c *pageController) List(ctx *fiber.Ctx) error {
	var req dto.ListPagesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.pageService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Pages", res))
}

func (c *pageController) Show(ctx *fiber.Ctx) error {
	res, err := c.pageService.Show(ctx.UserContext(), ctx.Params("+"))
	if err != nil {
		return pageError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Page", res))
}

func (c *pageController) HTML(ctx *fiber.Ctx) error {
	res, err := c.pageService.HTML(ctx.UserContext(), ctx.Params("+"))
	if err != nil {
		return pageError(err)
	}
	ctx.Type("html", "utf-8")
	return ctx.SendString(res)
}

func (c *pageController) Markdown(ctx *fiber.Ctx) error {
	res, err := c.pageService.Markdown(ctx.UserContext(), ctx.Params("+"))
	if err != nil {
		return pageError(err)
	}
	ctx.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return ctx.SendString(res)
}

func (c *pageController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchPagesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.pageService.Search(ctx.UserContext(), req.Query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Search results", res))
}
