package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/influencehub/marketplace/internal/core/domain"
)

// MaxUploadSize caps a single uploaded file.
const MaxUploadSize = 10 << 20

// UploadHandler stores multipart uploads on local disk. Stored files are
// served back under URLPrefix.
type UploadHandler struct {
	dir       string
	urlPrefix string
	logger    zerolog.Logger
}

func NewUploadHandler(dir, urlPrefix string, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/"), logger: logger}
}

// Upload handles POST /api/upload.
//
// @Summary      Upload a file
// @Tags         uploads
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "File to upload"
// @Success      201   {object}  domain.Upload
// @Failure      400   {object}  messageResponse
// @Failure      413   {object}  messageResponse
// @Router       /api/upload [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > MaxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", MaxUploadSize))
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + safeExt(fh.Filename)
	dst, err := os.Create(filepath.Join(h.dir, name))
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}

	n, err := io.Copy(dst, io.LimitReader(src, MaxUploadSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxUploadSize {
		err = errTooLarge
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		if errors.Is(err, errTooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", MaxUploadSize))
		}
		return fmt.Errorf("store upload: %w", err)
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h.logger.Info().Str("file", name).Int64("size", n).Msg("upload stored")
	return c.JSON(http.StatusCreated, domain.Upload{
		URL:         h.urlPrefix + "/" + name,
		Filename:    filepath.Base(fh.Filename),
		Size:        n,
		ContentType: contentType,
	})
}

var errTooLarge = errors.New("upload too large")

// safeExt keeps a short alphanumeric extension from the client's filename.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
