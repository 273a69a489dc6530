package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"eduhub/internal/app"
	"eduhub/internal/store"
)

func main() {
	cfg := app.LoadConfig()

	backend, err := store.OpenPostgres(context.Background(), cfg.DBDSN)
	if err != nil {
		log.Printf("database error: %v", err)
		os.Exit(1)
	}
	defer backend.Close()

	st := store.New(backend, nil)
	defer st.Close()

	r, err := app.NewRouter(cfg, st, backend.Pool())
	if err != nil {
		log.Printf("router error: %v", err)
		os.Exit(1)
	}

	log.Printf("eduhub web listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
