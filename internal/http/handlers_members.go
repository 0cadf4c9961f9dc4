package http

import (
	"net/http"
	"strconv"

	"tithe/internal/core"
	applog "tithe/internal/log"
)

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.ledger.Members()).Write(w)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	m, err := s.ledger.Member(id)
	if err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(m).Write(w)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var m core.Member
	if err := DecodeJSON(w, r, &m); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	created, err := s.ledger.CreateMember(r.Context(), sanitizeMember(m))
	if err != nil {
		FromError(r, err).Write(w)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Member created via API",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldMemberID, created.ID)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/members/"+strconv.FormatInt(created.ID, 10)).
		Data(created).
		Write(w)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var m core.Member
	if err := DecodeJSON(w, r, &m); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	m = sanitizeMember(m)
	m.ID = id

	if err := s.ledger.UpdateMember(r.Context(), m); err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Data(m).Write(w)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if _, err := s.ledger.DeleteMember(r.Context(), id); err != nil {
		FromError(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
