package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/mkondo/parasurvey/app"
	"github.com/mkondo/parasurvey/config"
	"github.com/mkondo/parasurvey/database"
	"github.com/mkondo/parasurvey/httpx"
	"github.com/mkondo/parasurvey/log"
	"github.com/mkondo/parasurvey/mail"
	"github.com/mkondo/parasurvey/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	if cfg.AdminUser != "" {
		err = httpx.EnsureAdminUser(db, cfg.AdminUser, cfg.AdminPassword)
		if err != nil {
			log.Fatal("main.admin_user:", err)
		}
	}

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Mailer:       mail.NewSender(cfg),
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
