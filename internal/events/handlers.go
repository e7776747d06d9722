package events

import (
	"github.com/gofiber/fiber/v2"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(svc.Current())
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req EventInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		ev, err := svc.Create(c.Context(), auth.IdentityFrom(c), req)
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.Status(fiber.StatusCreated).JSON(ev)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		ev, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(ev)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), auth.IdentityFrom(c), c.Params("id")); err != nil {
			return apperr.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Put("/:id/rsvp", authMiddleware, func(c *fiber.Ctx) error {
		var req RSVPInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		rsvp, err := svc.RSVP(c.Context(), auth.IdentityFrom(c), c.Params("id"), req.Status)
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(rsvp)
	})
}
