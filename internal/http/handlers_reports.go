package http

import (
	"net/http"

	"tithe/internal/app"
	"tithe/internal/core"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	params, err := ParseReportParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rep, err := s.reports.Report(r.Context(), params.Request(core.Dimension(r.PathValue("dimension"))))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	params, err := ParseReportParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	cmp, err := s.reports.Compare(r.Context(), params.Request(core.Dimension(r.PathValue("dimension"))))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(cmp).Write(w)
}

type themeBody struct {
	Theme app.Theme `json:"theme"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(themeBody{Theme: s.appCtx.Theme()}).Write(w)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := DecodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	theme, err := app.ParseTheme(string(body.Theme))
	if err != nil {
		ValidationError(core.FieldErrors{"theme": "theme must be light or dark"}).Write(w)
		return
	}
	s.appCtx.SetTheme(theme)
	NewJSONResponse().Data(themeBody{Theme: theme}).Write(w)
}
