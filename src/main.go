package main

import (
	"os"

	"github.com/ilix/server/src/config"
	"github.com/ilix/server/src/server"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("configuration error")
	}

	if cfg.Prod {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("server initialization failed")
	}
	defer srv.Close()

	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
}
