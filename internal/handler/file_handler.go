package handler

import (
	"errors"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/guardforce-api/pkg/errors"
	"github.com/noah-isme/guardforce-api/pkg/response"
	"github.com/noah-isme/guardforce-api/pkg/storage"
)

type fileOpener interface {
	Open(rel string) (*os.File, error)
}

type tokenVerifier interface {
	Verify(token string) (string, error)
}

// FileHandler serves stored uploads behind signed, expiring tokens.
type FileHandler struct {
	files    fileOpener
	verifier tokenVerifier
}

// NewFileHandler constructs the handler.
func NewFileHandler(files fileOpener, verifier tokenVerifier) *FileHandler {
	return &FileHandler{files: files, verifier: verifier}
}

// Serve godoc
// @Summary Download stored file
// @Description Streams an uploaded file referenced by a signed token
// @Tags Files
// @Produce octet-stream
// @Param token path string true "Signed file token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	rel, err := h.verifier.Verify(c.Param("token"))
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "file link expired"))
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid file link"))
		return
	}

	file, err := h.files.Open(rel)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat file"))
		return
	}

	c.Header("Cache-Control", "private, no-store")
	http.ServeContent(c.Writer, c.Request, path.Base(rel), info.ModTime(), file)
}
