package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/adaptedu-backend/internal/http/response"
	"github.com/yungbote/adaptedu-backend/internal/modules/viewer"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/services"
)

// MaxVoiceClipBytes bounds a push-to-talk upload.
const MaxVoiceClipBytes = 5 << 20

type ViewerHandler struct {
	log     *logger.Logger
	viewers services.ViewerService
}

func NewViewerHandler(log *logger.Logger, viewers services.ViewerService) *ViewerHandler {
	return &ViewerHandler{log: log.With("handler", "ViewerHandler"), viewers: viewers}
}

// page runs a navigation call on the viewer named by :id.
func (h *ViewerHandler) page(c *gin.Context, move func(id uuid.UUID) (viewer.Page, error)) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	page, err := move(id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /viewers/:id/page
func (h *ViewerHandler) Page(c *gin.Context) {
	h.page(c, func(id uuid.UUID) (viewer.Page, error) { return h.viewers.Page(c.Request.Context(), id) })
}

// POST /viewers/:id/next
func (h *ViewerHandler) Next(c *gin.Context) {
	h.page(c, func(id uuid.UUID) (viewer.Page, error) { return h.viewers.Next(c.Request.Context(), id) })
}

// POST /viewers/:id/prev
func (h *ViewerHandler) Prev(c *gin.Context) {
	h.page(c, func(id uuid.UUID) (viewer.Page, error) { return h.viewers.Prev(c.Request.Context(), id) })
}

// POST /viewers/:id/goto {"page": n}
func (h *ViewerHandler) GoTo(c *gin.Context) {
	var req struct {
		Page *int `json:"page"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if req.Page == nil {
		response.RespondAPIError(c, h.log, apierr.Validation("page_required", errors.New("page is required")))
		return
	}
	h.page(c, func(id uuid.UUID) (viewer.Page, error) { return h.viewers.GoTo(c.Request.Context(), id, *req.Page) })
}

// POST /viewers/:id/quiz/:sectionId/select {"optionIndex": n}
func (h *ViewerHandler) SelectOption(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req struct {
		OptionIndex *int `json:"optionIndex"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if req.OptionIndex == nil {
		response.RespondAPIError(c, h.log, apierr.Validation("option_required", errors.New("optionIndex is required")))
		return
	}
	qv, err := h.viewers.SelectOption(c.Request.Context(), id, c.Param("sectionId"), *req.OptionIndex)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, qv)
}

// POST /viewers/:id/quiz/:sectionId/reveal
func (h *ViewerHandler) RevealAnswer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	qv, err := h.viewers.RevealAnswer(c.Request.Context(), id, c.Param("sectionId"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, qv)
}

// POST /viewers/:id/narration
func (h *ViewerHandler) ToggleNarration(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	res, err := h.viewers.ToggleNarration(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /viewers/:id/narration/ended {"error": bool}, body optional
func (h *ViewerHandler) NarrationEnded(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var req struct {
		Error bool `json:"error"`
	}
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			response.RespondAPIError(c, h.log, err)
			return
		}
	}
	res, err := h.viewers.NarrationEnded(c.Request.Context(), id, req.Error)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /viewers/:id/voice (multipart "audio")
func (h *ViewerHandler) Voice(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	fh, err := c.FormFile("audio")
	if err != nil {
		response.RespondAPIError(c, h.log, apierr.Validation("audio_required", errors.New("an audio clip is required")))
		return
	}
	data, err := readPart(fh, MaxVoiceClipBytes)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	mime := fh.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	out, err := h.viewers.Voice(c.Request.Context(), id, data, mime)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /viewers/:id/voice/mute
func (h *ViewerHandler) ToggleMute(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	muted, err := h.viewers.ToggleMute(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"muted": muted})
}

// DELETE /viewers/:id
func (h *ViewerHandler) Close(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if err := h.viewers.Close(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /courses/:id/viewer
func (h *ViewerHandler) OpenPublished(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	view, err := h.viewers.OpenPublished(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, view)
}
