package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/Sosyalles/user-service-api/internal/services"
	"github.com/Sosyalles/user-service-api/internal/storage"
	"github.com/Sosyalles/user-service-api/pkg/apperror"
	"github.com/Sosyalles/user-service-api/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const photoFormField = "photos"

type deletePhotosRequest struct {
	PhotoURLs []string `json:"photoUrls"`
}

func (h *ProfileHandler) UploadPhotos(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apperror.Validation("No files uploaded")
	}
	files := form.File[photoFormField]

	uploads := make([]services.PhotoUpload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, multipartUpload(fh))
	}

	set, err := h.Profiles.UploadProfilePhotos(c.UserContext(), userID, uploads)
	if err != nil {
		return err
	}

	h.Audit.LogAsync(auditEntry(c, &userID, services.AuditPhotosUpload, map[string]interface{}{
		"count": len(set.ProfilePhotos),
	}))
	return utils.Success(c, fiber.StatusOK, set)
}

func (h *ProfileHandler) DeletePhotos(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req deletePhotosRequest
	if err := parseBody(c, nil, &req); err != nil {
		return err
	}
	result, err := h.Profiles.DeleteProfilePhotos(c.UserContext(), userID, req.PhotoURLs)
	if err != nil {
		return err
	}

	h.Audit.LogAsync(auditEntry(c, &userID, services.AuditPhotosDelete, map[string]interface{}{
		"count": len(result.DeletedPhotos),
	}))
	return utils.Success(c, fiber.StatusOK, result)
}

func multipartUpload(fh *multipart.FileHeader) services.PhotoUpload {
	return services.PhotoUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

type PhotosHandler struct {
	Store storage.PhotoStore
}

func NewPhotosHandler(store storage.PhotoStore) *PhotosHandler {
	return &PhotosHandler{Store: store}
}

// Serve streams a stored photo by its generated file name.
func (h *PhotosHandler) Serve(c *fiber.Ctx) error {
	rc, info, err := h.Store.Open(c.UserContext(), c.Params("name"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return apperror.NotFound("Photo not found")
		}
		return apperror.Internal("Failed to read photo", err)
	}

	if info.ContentType != "" {
		c.Set(fiber.HeaderContentType, info.ContentType)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	c.Set("X-Content-Type-Options", "nosniff")
	if info.Size > 0 {
		return c.SendStream(rc, int(info.Size))
	}
	return c.SendStream(rc)
}
