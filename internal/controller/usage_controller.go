package controller

import (
	"talkzilla/internal/pkg/serverutils"
	"talkzilla/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUsageController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
}

type usageController struct {
	usageService service.IUsageService
}

func NewUsageController(usageService service.IUsageService) IUsageController {
	return &usageController{
		usageService: usageService,
	}
}

func (c *usageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/usage/v1")
	h.Get("", c.Show)
}

func (c *usageController) Show(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get usage", c.usageService.Snapshot()))
}
