package posts

import (
	"github.com/gofiber/fiber/v2"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/feed"
	"github.com/romiluz13/Studio-Oscar/internal/shared/apperr"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(feed.Filter(svc.Current(), c.Query("q")))
	})

	r.Get("/by/:userID", func(c *fiber.Ctx) error {
		list, err := svc.ByAuthor(c.Context(), c.Params("userID"))
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(list)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		post, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(post)
	})

	r.Get("/:id/share", func(c *fiber.Ctx) error {
		share, err := svc.Share(c.Context(), c.Params("id"))
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(share)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req PostInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		post, err := svc.AddPost(c.Context(), auth.IdentityFrom(c), req)
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Post("/blessings", authMiddleware, func(c *fiber.Ctx) error {
		var req BlessingInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		post, err := svc.AddBlessing(c.Context(), auth.IdentityFrom(c), req)
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req TextInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := svc.EditPost(c.Context(), auth.IdentityFrom(c), c.Params("id"), req.Text); err != nil {
			return apperr.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeletePost(c.Context(), auth.IdentityFrom(c), c.Params("id")); err != nil {
			return apperr.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		liked, err := svc.ToggleLike(c.Context(), auth.IdentityFrom(c), c.Params("id"))
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(fiber.Map{"liked": liked})
	})

	r.Post("/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var req TextInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		comment, err := svc.AddComment(c.Context(), auth.IdentityFrom(c), c.Params("id"), req.Text)
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	r.Put("/:id/comments/:commentID", authMiddleware, func(c *fiber.Ctx) error {
		var req TextInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := svc.EditComment(c.Context(), auth.IdentityFrom(c), c.Params("id"), c.Params("commentID"), req.Text); err != nil {
			return apperr.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Delete("/:id/comments/:commentID", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteComment(c.Context(), auth.IdentityFrom(c), c.Params("id"), c.Params("commentID")); err != nil {
			return apperr.HTTP(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
