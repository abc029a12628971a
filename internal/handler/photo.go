package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/dto"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type photoUploader interface {
	UploadPhoto(ctx context.Context, owner dto.MediaOwner, ownerID, filename string, r io.Reader) (*dto.PhotoUploadResponse, error)
}

// uploadPhoto reads the multipart "photo" field and stores it for the owner
// named by the :id path parameter.
func uploadPhoto(c *gin.Context, media photoUploader, owner dto.MediaOwner) {
	if media == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "media storage is not configured"))
		return
	}
	header, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "photo file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable photo upload"))
		return
	}
	defer file.Close()

	result, err := media.UploadPhoto(c.Request.Context(), owner, c.Param("id"), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
