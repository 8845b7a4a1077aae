package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mkondo/parasurvey/app"
	"github.com/mkondo/parasurvey/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	adminOnly := middlewares.Admin(app.TokenSecret)

	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app, adminOnly))

	root.
		With(middlewares.CookieAuth(app.BearerServer), adminOnly).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App, adminOnly func(http.Handler) http.Handler) http.Handler {
	api := chi.NewRouter()

	api.Get("/surveys/{id}", PublicGetSurveyById(app))
	api.Post("/surveys/{id}/responses", PublicSubmitResponse(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(adminOnly)

		// CRUD survey + lifecycle
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get("/surveys/{id}", GetSurveyById(app))
		r.Put("/surveys/{id}", UpdateSurvey(app))
		r.Patch("/surveys/{id}", UpdateSurveyStatus(app))
		r.Delete("/surveys/{id}", DeleteSurvey(app))

		// distribution data entries
		r.Post("/surveys/{id}/entries", CreateDataEntry(app))
		r.Put("/surveys/{id}/entries/{entryId}", UpdateDataEntry(app))
		r.Delete("/surveys/{id}/entries/{entryId}", DeleteDataEntry(app))

		// analysis
		r.Get("/surveys/{id}/responses", GetSurveyResponses(app))
		r.Get("/surveys/{id}/report", GetSurveyReport(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
