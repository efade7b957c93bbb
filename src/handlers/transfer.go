package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ilix/server/src/keyphrase"
	"github.com/ilix/server/src/middleware"
	"github.com/ilix/server/src/response"
	"github.com/ilix/server/src/sse"
	"github.com/ilix/server/src/store"
	"github.com/sirupsen/logrus"
)

// TransferHandler groups the /file-transfer endpoints.
type TransferHandler struct {
	transfers   store.TransferStore
	blobs       store.BlobStore
	broadcaster *sse.Broadcaster
	logger      *logrus.Logger
	salt        string
	hashRound   int
}

func NewTransferHandler(transfers store.TransferStore, blobs store.BlobStore, broadcaster *sse.Broadcaster, salt string, hashRound int, logger *logrus.Logger) *TransferHandler {
	return &TransferHandler{transfers: transfers, blobs: blobs, broadcaster: broadcaster, salt: salt, hashRound: hashRound, logger: logger}
}

// ListTransfers handles GET /file-transfer/{device_id}/all.
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	kp := middleware.KeyPhrase(c)
	deviceID := c.Param("device_id")

	transfers, err := h.transfers.FindTransfers(c.Request.Context(), kp, deviceID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, transfers)
}

// CreateTransfer handles POST /file-transfer?from=...&to=....
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	kp := middleware.KeyPhrase(c)
	from := c.Query("from")
	to := c.Query("to")

	files, err := readMultipartFiles(c)
	if err != nil {
		response.FailWithReason(c, http.StatusBadRequest, "Failed to parse file")
		return
	}
	if len(files) == 0 {
		response.FailWithReason(c, http.StatusBadRequest, "Empty Args")
		return
	}

	ctx := c.Request.Context()
	fileIDs, err := h.blobs.AddFiles(ctx, files, kp)
	if err != nil {
		response.Fail(c, err)
		return
	}

	transfer, err := h.transfers.CreateTransfer(ctx, kp, from, to, fileIDs)
	if err != nil {
		if delErr := h.blobs.DeleteFiles(ctx, fileIDs); delErr != nil {
			h.logger.WithError(delErr).Error("failed to roll back blobs after transfer-creation failure")
		}
		response.Fail(c, err)
		return
	}

	h.publishTransfer(kp, to, transfer)
	response.OK(c, transfer.ID)
}

// AddFiles handles POST /file-transfer/{transfer_id}/add_files.
func (h *TransferHandler) AddFiles(c *gin.Context) {
	kp := middleware.KeyPhrase(c)
	transferID := c.Param("transfer_id")

	files, err := readMultipartFiles(c)
	if err != nil {
		response.FailWithReason(c, http.StatusBadRequest, "Failed to parse file")
		return
	}
	if len(files) == 0 {
		response.FailWithReason(c, http.StatusBadRequest, "Empty Args")
		return
	}

	ctx := c.Request.Context()
	fileIDs, err := h.blobs.AddFiles(ctx, files, kp)
	if err != nil {
		response.Fail(c, err)
		return
	}

	transfer, err := h.transfers.AddFilesToTransfer(ctx, transferID, kp, fileIDs)
	if err != nil {
		if delErr := h.blobs.DeleteFiles(ctx, fileIDs); delErr != nil {
			h.logger.WithError(delErr).Error("failed to roll back blobs after add-files failure")
		}
		response.Fail(c, err)
		return
	}

	h.publishTransfer(kp, transfer.To, transfer)
	response.OK(c, fileIDs)
}

// DeleteTransfer handles DELETE /file-transfer/{device_id}/{transfer_id}.
func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	kp := middleware.KeyPhrase(c)
	deviceID := c.Param("device_id")
	transferID := c.Param("transfer_id")

	ctx := c.Request.Context()
	fileIDs, err := h.transfers.DeleteTransfer(ctx, kp, deviceID, transferID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	if len(fileIDs) > 0 {
		if err := h.blobs.DeleteFiles(ctx, fileIDs); err != nil {
			response.FailWithReason(c, http.StatusInternalServerError, "Transfer was deleted but some files were not deleted")
			return
		}
	}

	response.OK(c, nil)
}

func (h *TransferHandler) publishTransfer(kp, to string, transfer any) {
	hashed, err := keyphrase.KeyPhrase(kp).Hash(h.salt, h.hashRound)
	if err != nil {
		h.logger.WithError(err).Warn("failed to hash key phrase for sse broadcast")
		return
	}
	if err := h.broadcaster.BroadcastTo([]string{to}, hashed, sse.KindTransfer, transfer); err != nil {
		h.logger.WithError(err).Warn("failed to broadcast transfer event")
	}
}

func readMultipartFiles(c *gin.Context) ([]store.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	var out []store.UploadFile
	for _, headers := range form.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, err
			}
			out = append(out, store.UploadFile{Filename: fh.Filename, Data: data})
		}
	}
	return out, nil
}
