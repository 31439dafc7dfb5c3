package documentapi

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/document"
	"github.com/hypeframe/monarch/pkg/document/documentsrv"
	"github.com/hypeframe/monarch/pkg/httpx"
	"github.com/hypeframe/monarch/pkg/iam"
	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// ============================================================================
// Requests
// ============================================================================

// createRequest ignora userId/ownerUserId: el dueño siempre es el del token.
type createRequest struct {
	Collection string        `json:"collection" validate:"required"`
	Data       document.Data `json:"data" validate:"required"`
}

type readQuery struct {
	Collection     string `query:"collection" validate:"required"`
	ID             string `query:"id"`
	Filter         string `query:"filter"`
	IncludeDeleted bool   `query:"includeDeleted"`
	Page           int    `query:"page" validate:"gte=0"`
	PageSize       int    `query:"pageSize" validate:"gte=0"`
}

type updateRequest struct {
	DocumentID      string        `json:"documentId" validate:"required"`
	Patch           document.Data `json:"patch"`
	Data            document.Data `json:"data"`
	ExpectedVersion *int64        `json:"expectedVersion"`
}

type deleteRequest struct {
	DocumentID string `json:"documentId" query:"documentId" validate:"required"`
	HardDelete bool   `json:"hardDelete" query:"hardDelete"`
}

type restoreRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
}

type bulkRequest struct {
	Ops []documentsrv.BulkOp `json:"ops" validate:"required"`
}

// ============================================================================
// Handlers
// ============================================================================

// DocumentHandlers expone documentsrv sobre HTTP; todas las rutas exigen bearer.
type DocumentHandlers struct {
	service *documentsrv.DocumentService
}

func NewDocumentHandlers(service *documentsrv.DocumentService) *DocumentHandlers {
	return &DocumentHandlers{service: service}
}

// RegisterRoutes monta /db/*.
func (h *DocumentHandlers) RegisterRoutes(router fiber.Router, mw *auth.TokenMiddleware) {
	h.mount(router.Group("/db", mw.RequireProject(), mw.RequireUser()))
}

// RegisterLegacyRoutes monta los mismos handlers bajo /api/project-db/*.
func (h *DocumentHandlers) RegisterLegacyRoutes(router fiber.Router, mw *auth.TokenMiddleware) {
	h.mount(router.Group("/api/project-db", mw.RequireProject(), mw.RequireUser()))
}

func (h *DocumentHandlers) mount(group fiber.Router) {
	group.Post("/create", h.Create)
	group.Get("/read", h.Read)
	group.Put("/update", h.Update)
	group.Delete("/delete", h.Delete)
	group.Post("/restore", h.Restore)
	group.Post("/bulk", h.Bulk)
	group.Get("/collections", h.Collections)
	group.Get("/stats", h.Stats)
}

func (h *DocumentHandlers) Create(c *fiber.Ctx) error {
	owner, err := ownerFrom(c)
	if err != nil {
		return err
	}

	var req createRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	doc, err := h.service.Create(c.UserContext(), owner, req.Collection, req.Data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": doc})
}

func (h *DocumentHandlers) Read(c *fiber.Ctx) error {
	owner, err := ownerFrom(c)
	if err != nil {
		return err
	}

	var q readQuery
	if err := httpx.BindQuery(c, &q); err != nil {
		return err
	}

	var filter document.Data
	if strings.TrimSpace(q.Filter) != "" {
		if err := json.Unmarshal([]byte(q.Filter), &filter); err != nil {
			return httpx.ErrBadRequest().WithDetail("reason", "filter must be a JSON object")
		}
	}

	page, err := h.service.Read(c.UserContext(), owner, documentsrv.ReadQuery{
		Collection:     q.Collection,
		ID:             kernel.NewDocumentID(q.ID),
		Filter:         filter,
		IncludeDeleted: q.IncludeDeleted,
		Page:           q.Page,
		PageSize:       q.PageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Update acepta el patch como "patch" o, por compatibilidad, como "data".
func (h *DocumentHandlers) Update(c *fiber.Ctx) error {
	owner, err := ownerFrom(c)
	if err != nil {
		return err
	}

	var req updateRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	patch := req.Patch
	if patch == nil {
		patch = req.Data
	}
	if patch == nil {
		return httpx.ErrValidationFailed().WithDetail("fields", map[string]string{"patch": "is required"})
	}

	doc, err := h.service.Update(c.UserContext(), owner, kernel.NewDocumentID(req.DocumentID), patch, req.ExpectedVersion)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"document": doc})
}

// Delete lee documentId/hardDelete del body o, si viene vacío, del query string.
func (h *DocumentHandlers) Delete(c *fiber.Ctx) error {
	owner, err := ownerFrom(c)
	if err != nil {
		return err
	}

	var req deleteRequest
	if len(strings.TrimSpace(string(c.Body()))) > 0 {
		err = httpx.Bind(c, &req)
	} else {
		err = httpx.BindQuery(c, &req)
	}
	if err != nil {
		return err
	}

	id := kernel.NewDocumentID(req.DocumentID)
	if err := h.service.Delete(c.UserContext(), owner, id, req.HardDelete); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":    "Document deleted",
		"id":         id,
		"hardDelete": req.HardDelete,
	})
}

func (h *DocumentHandlers) Restore(c *fiber.Ctx) error {
	owner, err := ownerFrom(c)
	if err != nil {
		return err
	}

	var req restoreRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	doc, err := h.service.Restore(c.UserContext(), owner, kernel.NewDocumentID(req.DocumentID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"document": doc})
}

func (h *DocumentHandlers) Bulk(c *fiber.Ctx) error {
	owner, err := ownerFrom(c)
	if err != nil {
		return err
	}

	var req bulkRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	results, err := h.service.Bulk(c.UserContext(), owner, req.Ops)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"results": results, "count": len(results)})
}

func (h *DocumentHandlers) Collections(c *fiber.Ctx) error {
	owner, err := ownerFrom(c)
	if err != nil {
		return err
	}

	names, err := h.service.Collections(c.UserContext(), owner)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"collections": names})
}

func (h *DocumentHandlers) Stats(c *fiber.Ctx) error {
	owner, err := ownerFrom(c)
	if err != nil {
		return err
	}

	stats, err := h.service.Stats(c.UserContext(), owner)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func ownerFrom(c *fiber.Ctx) (documentsrv.Owner, error) {
	ac, ok := auth.GetAuthContext(c)
	if !ok || !ac.IsAuthenticated() {
		return documentsrv.Owner{}, iam.ErrUnauthenticated()
	}
	return documentsrv.Owner{ProjectID: ac.ProjectID, UserID: *ac.UserID}, nil
}
