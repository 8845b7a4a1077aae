package app

import (
	"database/sql"

	"github.com/go-chi/oauth"
	"github.com/mkondo/parasurvey/config"
	"github.com/mkondo/parasurvey/mail"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Mailer mail.Sender
}
