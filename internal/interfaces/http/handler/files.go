package handler

import (
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/multipos/console/internal/infrastructure/storage"
)

// FileStore is the in-process export storage.
type FileStore interface {
	Get(storageKey string) (storage.Object, bool)
}

// FileHandler serves exports kept by the in-process storage. The links
// carry an expiry instead of a token, like presigned S3 URLs.
type FileHandler struct {
	BaseHandler
	files FileStore
	now   func() time.Time
}

func NewFileHandler(files FileStore) *FileHandler {
	return &FileHandler{files: files, now: time.Now}
}

// Download handles GET /files/*key?expires=<RFC3339>.
func (h *FileHandler) Download(c *gin.Context) {
	exp, err := time.Parse(time.RFC3339, c.Query("expires"))
	if err != nil || h.now().After(exp) {
		h.Forbidden(c, "Download link has expired")
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	obj, ok := h.files.Get(key)
	if !ok {
		h.NotFound(c, "File not found")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
