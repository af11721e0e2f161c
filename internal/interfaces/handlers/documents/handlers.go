package documents

import (
	docsvc "concierge-backend/internal/application/documents"
	"concierge-backend/internal/interfaces/handlers"
	"concierge-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles document handlers with the service.
type Handlers struct {
	Service *docsvc.Service
}

// POST /api/v1/clients/:id/documents: returns a signed upload URL and the stored document row.
func (h *Handlers) CreateUpload(c *fiber.Ctx) error {
	clientID, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	var in docsvc.CreateUploadInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
	}
	slot, err := h.Service.CreateUploadURL(c.UserContext(), clientID, in)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessCreated(c, "Upload URL generated", slot, nil)
}

// GET /api/v1/clients/:id/documents
func (h *Handlers) List(c *fiber.Ctx) error {
	clientID, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	docs, err := h.Service.List(c.UserContext(), clientID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.List(c, "Documents fetched successfully", docs, len(docs))
}

// DELETE /api/v1/documents/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Document deleted", fiber.Map{"id": id}, nil)
}
