package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ilixerrors "github.com/ilix/server/src/errors"
	"github.com/ilix/server/src/middleware"
	"github.com/ilix/server/src/response"
	"github.com/ilix/server/src/store"
	"github.com/sirupsen/logrus"
)

// FileHandler groups the /file and /files endpoints.
type FileHandler struct {
	transfers store.TransferStore
	blobs     store.BlobStore
	tempDir   string
	logger    *logrus.Logger
}

func NewFileHandler(transfers store.TransferStore, blobs store.BlobStore, tempDir string, logger *logrus.Logger) *FileHandler {
	return &FileHandler{transfers: transfers, blobs: blobs, tempDir: tempDir, logger: logger}
}

// GetFile handles GET /file/{file_id}: decrypt and stream the blob via a
// scoped temporary file, removed on every exit path.
func (h *FileHandler) GetFile(c *gin.Context) {
	kp := middleware.KeyPhrase(c)
	fileID := c.Param("file_id")

	filename, plaintext, err := h.blobs.GetFile(c.Request.Context(), fileID, kp)
	if err != nil {
		response.Fail(c, err)
		return
	}

	if err := os.MkdirAll(h.tempDir, 0o700); err != nil {
		response.Fail(c, ilixerrors.Wrap(ilixerrors.MongoError, err))
		return
	}

	tmpPath := filepath.Join(h.tempDir, uuid.NewString())
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			h.logger.WithError(err).Warn("failed to remove scoped temp file")
		}
	}()

	if err := os.WriteFile(tmpPath, plaintext, 0o600); err != nil {
		response.Fail(c, ilixerrors.Wrap(ilixerrors.MongoError, err))
		return
	}

	c.FileAttachment(tmpPath, filename)
}

// DeleteFile handles DELETE /file/{file_id}: detach from its transfer
// (ignoring NotInTransfer/TransferNotFound, consistent with
// remove_transfer_file not re-verifying caller membership) then delete
// the blob itself.
func (h *FileHandler) DeleteFile(c *gin.Context) {
	kp := middleware.KeyPhrase(c)
	fileID := c.Param("file_id")

	ctx := c.Request.Context()
	if err := h.transfers.RemoveTransferFile(ctx, fileID, kp); err != nil {
		if !ilixerrors.Is(err, ilixerrors.NotInTransfer) && !ilixerrors.Is(err, ilixerrors.TransferNotFound) {
			response.Fail(c, err)
			return
		}
	}

	if err := h.blobs.DeleteFiles(ctx, []string{fileID}); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, nil)
}

// GetFilesInfo handles GET /files/info?files_ids=id1,id2,....
func (h *FileHandler) GetFilesInfo(c *gin.Context) {
	raw := c.Query("files_ids")
	if raw == "" {
		response.FailWithReason(c, http.StatusBadRequest, "Empty Args")
		return
	}
	ids := strings.Split(raw, ",")

	infos, err := h.blobs.GetFilesInfo(c.Request.Context(), ids)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, infos)
}
