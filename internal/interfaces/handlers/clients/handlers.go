package clients

import (
	clientsvc "concierge-backend/internal/application/clients"
	"concierge-backend/internal/interfaces/handlers"
	"concierge-backend/internal/middleware"
	"concierge-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *clientsvc.Service
}

// GET /api/v1/clients?status=&register_type=
func (h *Handlers) List(c *fiber.Ctx) error {
	var in clientsvc.ListClientsInput
	if err := c.QueryParser(&in); err != nil {
		return response.Error(c, "Invalid query", fiber.StatusBadRequest, nil)
	}
	list, err := h.Service.List(c.UserContext(), in)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.List(c, "Clients fetched successfully", list, len(list))
}

// GET /api/v1/clients/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	client, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Client fetched successfully", client, nil)
}

// GET /api/v1/clients/me: the signed-in client's own record.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	client, err := h.Service.GetByAuthID(c.UserContext(), user.UserID)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Client fetched successfully", client, nil)
}

// PUT /api/v1/clients/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	var in clientsvc.UpdateClientInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	client, err := h.Service.Update(c.UserContext(), id, in)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Client updated", client, nil)
}

// POST /api/v1/clients/:id/approve
func (h *Handlers) Approve(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	client, err := h.Service.Approve(c.UserContext(), id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Client approved", client, nil)
}

// DELETE /api/v1/clients/:id removes the client and its login.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Client deleted", fiber.Map{"id": id}, nil)
}

type noteBody struct {
	Text string `json:"text"`
}

// GET /api/v1/clients/:id/notes
func (h *Handlers) ListNotes(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	notes, err := h.Service.ListNotes(c.UserContext(), id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.List(c, "Notes fetched successfully", notes, len(notes))
}

// POST /api/v1/clients/:id/notes
func (h *Handlers) AddNote(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	var body noteBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	author := ""
	if user := middleware.GetUser(c); user != nil {
		author = user.Email
	}
	note, err := h.Service.AddNote(c.UserContext(), id, body.Text, author)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.SuccessCreated(c, "Note added", note, nil)
}

// PUT /api/v1/notes/:id
func (h *Handlers) UpdateNote(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	var body noteBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	note, err := h.Service.UpdateNote(c.UserContext(), id, body.Text)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Note updated", note, nil)
}

// DELETE /api/v1/notes/:id
func (h *Handlers) DeleteNote(c *fiber.Ctx) error {
	id, ok, err := handlers.ParamUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteNote(c.UserContext(), id); err != nil {
		return handlers.RespondError(c, err)
	}
	return response.Success(c, "Note deleted", fiber.Map{"id": id}, nil)
}
