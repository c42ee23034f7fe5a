// Command dossier-server serves safety dossier generation over HTTP.
//
// Configuration comes from the environment (optionally via a .env file):
//
//	DOSSIER_ADDR             listen address (default :8000)
//	DOSSIER_FETCH_TIMEOUT    external document fetch timeout, seconds
//	DOSSIER_VERIFY_BASE_URL  base URL for cover QR verification links
//	DOSSIER_MAX_FETCH_BYTES  cap on a single fetched document
package main

import (
	"log/slog"
	"os"

	"github.com/sfxrentals/dossier/config"
	"github.com/sfxrentals/dossier/server"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading configuration", "err", err)
		os.Exit(1)
	}

	srv := server.New(cfg, log)
	if err := srv.Run(cfg.Addr); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
