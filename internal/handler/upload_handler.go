package handler

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/orcamentox/orcamentox/internal/domain"
)

const maxUploadBytes = 5 << 20

type Uploader interface {
	Upload(ctx context.Context, bucket string, path string, data []byte, contentType string) (string, error)
}

type UploadHandler struct {
	uploader Uploader
	bucket   string
}

func NewUploadHandler(uploader Uploader, bucket string) (*UploadHandler, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &UploadHandler{uploader: uploader, bucket: strings.TrimSpace(bucket)}, nil
}

func RegisterUploadRoutes(router fiber.Router, uploader Uploader, bucket string) error {
	h, err := NewUploadHandler(uploader, bucket)
	if err != nil {
		return err
	}

	router.Group("/v1").Post("/uploads", h.Upload)
	return nil
}

// Upload stores the multipart "file" at the form "path", replacing any
// existing object there.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	path := strings.TrimSpace(c.FormValue("path"))
	if path == "" {
		return toHTTPError(fmt.Errorf("%w: path is required", domain.ErrValidation))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return toHTTPError(fmt.Errorf("%w: file is required", domain.ErrValidation))
	}
	if fileHeader.Size > maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds 5MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close() //nolint:errcheck // read-only multipart file

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds 5MB")
	}

	contentType := fileHeader.Header.Get(fiber.HeaderContentType)
	if contentType == fiber.MIMEOctetStream {
		contentType = ""
	}

	publicURL, err := h.uploader.Upload(c.UserContext(), h.bucket, path, data, contentType)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bucket": h.bucket,
		"path":   strings.Trim(path, "/"),
		"url":    publicURL,
	})
}
