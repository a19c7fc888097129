package controller

import (
	"errors"

	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/pkg/serverutils"
	"pagefiber-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
	PreviewPage(ctx *fiber.Ctx) error
}

type adminController struct {
	logService  service.ILogService
	pageService service.IPageService
	jwtSecret   string
}

func NewAdminController(logService service.ILogService, pageService service.IPageService, jwtSecret string) IAdminController {
	return &adminController{
		logService:  logService,
		pageService: pageService,
		jwtSecret:   jwtSecret,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(serverutils.AdminMiddleware(c.jwtSecret))
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
	h.Get("/pages/:id/preview", c.PreviewPage)
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	logs, err := c.logService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	// log ids are md5 hashes of the line, not uuids
	l, err := c.logService.Detail(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrLogNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Log not found")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", l))
}

// PreviewPage renders a page whether or not it is published
func (c *adminController) PreviewPage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid page id")
	}

	res, err := c.pageService.Preview(ctx.UserContext(), id)
	if err != nil {
		return pageError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Page preview", res))
}
