package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type mediaOpener interface {
	Open(token string) (*os.File, string, error)
}

// MediaHandler serves stored photos behind signed tokens.
type MediaHandler struct {
	media mediaOpener
}

// NewMediaHandler constructs MediaHandler.
func NewMediaHandler(media mediaOpener) *MediaHandler {
	return &MediaHandler{media: media}
}

// Serve godoc
// @Summary Download a photo via signed token
// @Tags Media
// @Produce image/png
// @Param token path string true "Signed token"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /media/{token} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	file, contentType, err := h.media.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read media"))
		return
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, filepath.Base(file.Name()), info.ModTime(), file)
}
