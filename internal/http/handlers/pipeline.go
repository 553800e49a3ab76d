package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/http/response"
	"github.com/yungbote/adaptedu-backend/internal/modules/coursegen"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

// PipelineHandler exposes the two generation stages without a session.
type PipelineHandler struct {
	log       *logger.Logger
	generator coursegen.Generator
}

func NewPipelineHandler(log *logger.Logger, generator coursegen.Generator) *PipelineHandler {
	return &PipelineHandler{log: log.With("handler", "PipelineHandler"), generator: generator}
}

// POST /analyze-pdf {"pdfContent", "prompt", "options"}
func (h *PipelineHandler) AnalyzePDF(c *gin.Context) {
	var req coursegen.AnalyzeRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	analysis, err := h.generator.Analyze(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", analysis)
}

// POST /generate-course {"pdfText", "analysis", "formData"}
func (h *PipelineHandler) GenerateCourse(c *gin.Context) {
	var req struct {
		PDFText  string             `json:"pdfText"`
		Analysis coursegen.Analysis `json:"analysis"`
		FormData types.FormOptions  `json:"formData"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	course, err := h.generator.Generate(c.Request.Context(), req.PDFText, req.Analysis, req.FormData)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, course)
}
