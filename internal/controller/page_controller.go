package controller

import (
	"talkzilla/internal/web"

	"github.com/gofiber/fiber/v2"
)

type IPageController interface {
	RegisterRoutes(r fiber.Router)
	Index(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type pageController struct{}

func NewPageController() IPageController {
	return &pageController{}
}

func (c *pageController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Index)
	r.Get("/healthz", c.Health)
}

func (c *pageController) Index(ctx *fiber.Ctx) error {
	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return ctx.Send(web.IndexPage)
}

func (c *pageController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}
