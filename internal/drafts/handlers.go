package drafts

import (
	"github.com/gofiber/fiber/v2"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
)

func RegisterRoutes(r fiber.Router, store *Store, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		d, err := store.Load(c.Context(), auth.IdentityFrom(c))
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(d)
	})

	r.Put("/", authMiddleware, func(c *fiber.Ctx) error {
		var d Draft
		if err := c.BodyParser(&d); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := store.Save(c.Context(), auth.IdentityFrom(c), d); err != nil {
			return apperr.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Delete("/", authMiddleware, func(c *fiber.Ctx) error {
		ident := auth.IdentityFrom(c)
		if !ident.SignedIn() {
			return apperr.HTTP(apperr.ErrUnauthenticated)
		}
		if err := store.Clear(c.Context(), ident.ID); err != nil {
			return apperr.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
