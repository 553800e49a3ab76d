package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/http/response"
	"github.com/yungbote/adaptedu-backend/internal/modules/ingestion"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/services"
)

type CreationHandler struct {
	log       *logger.Logger
	creations services.CreationService
	viewers   services.ViewerService
}

func NewCreationHandler(log *logger.Logger, creations services.CreationService, viewers services.ViewerService) *CreationHandler {
	return &CreationHandler{log: log.With("handler", "CreationHandler"), creations: creations, viewers: viewers}
}

// POST /creations
func (h *CreationHandler) Open(c *gin.Context) {
	view, err := h.creations.Open(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, view)
}

// GET /creations/:id
func (h *CreationHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	view, err := h.creations.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /creations/:id/upload (multipart "file")
func (h *CreationHandler) Upload(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondAPIError(c, h.log, apierr.Validation("file_required", errors.New("a PDF file is required")))
		return
	}
	file := ingestion.File{Name: fh.Filename, MimeType: fh.Header.Get("Content-Type"), Size: fh.Size}
	if err := ingestion.Validate(file); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	data, err := readPart(fh, ingestion.MaxFileSize)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	view, err := h.creations.Upload(c.Request.Context(), id, file, data)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /creations/:id/generate
func (h *CreationHandler) Generate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var opts types.FormOptions
	if err := bindJSON(c, &opts); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	view, err := h.creations.Generate(c.Request.Context(), id, opts)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /creations/:id/publish
func (h *CreationHandler) Publish(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	rec, err := h.creations.Publish(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"course": rec})
}

// POST /creations/:id/viewer
func (h *CreationHandler) OpenViewer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	view, err := h.viewers.OpenPreview(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, view)
}
