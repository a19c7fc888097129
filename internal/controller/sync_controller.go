package controller

import (
	"pagefiber-be/internal/dto"
	"pagefiber-be/internal/pkg/serverutils"
	"pagefiber-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISyncController interface {
	RegisterRoutes(r fiber.Router)
	Upsert(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type syncController struct {
	syncService service.ISyncService
	jwtSecret   string
}

func NewSyncController(syncService service.ISyncService, jwtSecret string) ISyncController {
	return &syncController{
		syncService: syncService,
		jwtSecret:   jwtSecret,
	}
}

func (c *syncController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/sync/v1")
	h.Use(serverutils.AdminMiddleware(c.jwtSecret))
	h.Post("/pages", c.Upsert)
	h.Delete("/pages/:id", c.Delete)
}

func (c *syncController) Upsert(ctx *fiber.Ctx) error {
	var req dto.SyncPageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.syncService.Upsert(ctx.UserContext(), &req)
	if err != nil {
		return pageError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Page synced", res))
}

func (c *syncController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid page id")
	}

	if err := c.syncService.Delete(ctx.UserContext(), id); err != nil {
		return pageError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Page deleted", nil))
}
