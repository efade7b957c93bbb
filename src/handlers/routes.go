package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ilix/server/src/database"
	"github.com/ilix/server/src/middleware"
	"github.com/ilix/server/src/sse"
	"github.com/ilix/server/src/store"
	"github.com/sirupsen/logrus"
)

// Handler bundles every endpoint group's dependencies so Register can wire
// the full route table in one place, mirroring handlers/files.Handler's
// constructor-injection shape.
type Handler struct {
	pool     *PoolHandler
	transfer *TransferHandler
	file     *FileHandler
	events   *EventsHandler

	db      *database.DB
	tempDir string
	logger  *logrus.Logger
}

func NewHandler(stores *store.Stores, broadcaster *sse.Broadcaster, db *database.DB, salt string, hashRound int, tempDir string, logger *logrus.Logger) *Handler {
	return &Handler{
		pool:     NewPoolHandler(stores.Pools, broadcaster, salt, hashRound, logger),
		transfer: NewTransferHandler(stores.Transfers, stores.Blobs, broadcaster, salt, hashRound, logger),
		file:     NewFileHandler(stores.Transfers, stores.Blobs, tempDir, logger),
		events:   NewEventsHandler(stores.Pools, broadcaster, salt, hashRound, logger),
		db:       db,
		tempDir:  tempDir,
		logger:   logger,
	}
}

// Register wires every ilix endpoint onto router, one explicit
// registration per route rather than macro-driven routing.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", Health(h.db, h.tempDir, h.logger))

	pool := router.Group("/pool")
	{
		pool.POST("/new", h.pool.CreatePool)
		pool.DELETE("/:key_phrase", h.pool.DeletePool)
		protected := pool.Group("", middleware.KeyPhraseAuth())
		{
			protected.GET("", h.pool.GetPool)
			protected.PUT("/join", h.pool.JoinPool)
			protected.DELETE("/leave", h.pool.LeavePool)
		}
	}

	transfer := router.Group("/file-transfer", middleware.KeyPhraseAuth())
	{
		transfer.GET("/:device_id/all", h.transfer.ListTransfers)
		transfer.POST("", h.transfer.CreateTransfer)
		transfer.POST("/:transfer_id/add_files", h.transfer.AddFiles)
		transfer.DELETE("/:device_id/:transfer_id", h.transfer.DeleteTransfer)
	}

	file := router.Group("/file", middleware.KeyPhraseAuth())
	{
		file.GET("/:file_id", h.file.GetFile)
		file.DELETE("/:file_id", h.file.DeleteFile)
	}

	router.GET("/files/info", middleware.KeyPhraseAuth(), h.file.GetFilesInfo)
	router.GET("/events", middleware.KeyPhraseAuth(), h.events.Subscribe)
}
