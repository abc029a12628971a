package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/dto"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

const maxImportBytes = 5 << 20

type importService interface {
	Import(ctx context.Context, kind dto.ImportKind, r io.Reader) (*dto.ImportSummary, error)
}

// ImportHandler accepts bulk JSON uploads.
type ImportHandler struct {
	imports importService
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports importService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// Import godoc
// @Summary Bulk import teachers, subjects or students
// @Description Accepts a multipart "file" holding a JSON array, or the array as the raw request body.
// @Tags Import
// @Accept multipart/form-data,json
// @Produce json
// @Param kind path string true "teachers, subjects or students"
// @Param file formData file false "JSON array file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /import/{kind} [post]
func (h *ImportHandler) Import(c *gin.Context) {
	kind := dto.ImportKind(c.Param("kind"))
	body, closeBody, err := importBody(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeBody()

	summary, err := h.imports.Import(c.Request.Context(), kind, io.LimitReader(body, maxImportBytes))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func importBody(c *gin.Context) (io.Reader, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, func() {}, nil
	}
	header, err := c.FormFile("file")
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "no file selected")
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		return nil, nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "only JSON files are accepted")
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable import file")
	}
	return file, func() { file.Close() }, nil
}
