package http

import (
	"net/http"
	"strconv"

	"tithe/internal/core"
	applog "tithe/internal/log"
)

// handleListPayments returns raw payments, or payments joined with the
// payer's current name when ?with_names=true.
func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	if boolQuery(r.URL.Query(), "with_names") {
		NewJSONResponse().Data(s.reports.PaymentsWithNames()).Write(w)
		return
	}
	NewJSONResponse().Data(s.ledger.Payments()).Write(w)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p, err := s.ledger.Payment(id)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(p).Write(w)
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var p core.Payment
	if err := DecodeJSON(w, r, &p); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	created, err := s.ledger.RecordPayment(r.Context(), p)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Payment recorded via API",
		applog.NewFields().WithOperation(applog.OpCreate).WithPayment(created).ToSlice()...)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/payments/"+strconv.FormatInt(created.ID, 10)).
		Data(created).
		Write(w)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var p core.Payment
	if err := DecodeJSON(w, r, &p); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	p.ID = id

	if err := s.ledger.UpdatePayment(r.Context(), p); err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(p).Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if _, err := s.ledger.DeletePayment(r.Context(), id); err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
