package group

import (
	"github.com/gofiber/fiber/v3"

	"github.com/portcullis-admin/portcullis/internal/web/handler"
)

// Members lists the users of a group.
func (s *Service) Members(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	members, err := s.deps.Groups.Members(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(members)
}

// Deletable reports whether the group can be deleted and why not.
func (s *Service) Deletable(c fiber.Ctx) error {
	id, err := handler.ID(c, handler.ParamID)
	if err != nil {
		return err
	}

	ok, reasons, err := s.deps.Groups.CanBeDeleted(id)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(Deletable{Deletable: ok, Reasons: reasons})
}
