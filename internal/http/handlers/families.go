package handlers

import (
	"net/http"

	"github.com/hongminglow/carecrate/internal/http/respond"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/models/dto"
	"github.com/hongminglow/carecrate/internal/pantry"
)

// FamilyHandler serves family registration and lookup.
type FamilyHandler struct {
	svc *pantry.Service
}

func NewFamilyHandler(svc *pantry.Service) *FamilyHandler {
	return &FamilyHandler{svc: svc}
}

func (h *FamilyHandler) Register(mux *http.ServeMux, mw *middleware.Auth) {
	mux.HandleFunc("POST /legacy/families", mw.RequireSession(h.handleSaveLegacy))
	mux.HandleFunc("GET /legacy/families/{phone}", mw.RequireSession(h.handleFetchLegacy))
	mux.HandleFunc("POST /families", mw.RequireSession(h.handleRegister))
	mux.HandleFunc("POST /families/append", mw.RequireSession(h.handleAppend))
	mux.HandleFunc("GET /families/{phone}", mw.RequireSession(h.handleList))
}

func familyFromRequest(req dto.FamilyRequest) models.Family {
	return models.Family{
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Household:   req.Household,
	}
}

func (h *FamilyHandler) handleSaveLegacy(w http.ResponseWriter, r *http.Request) {
	var req dto.FamilyRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.svc.SaveLegacyFamily(r.Context(), familyFromRequest(req)); err != nil {
		writeError(w, err, "save family")
		return
	}
	respond.JSON(w, http.StatusOK, "family saved", nil)
}

func (h *FamilyHandler) handleFetchLegacy(w http.ResponseWriter, r *http.Request) {
	family, found, err := h.svc.FetchLegacyFamily(r.Context(), r.PathValue("phone"))
	if err != nil {
		writeError(w, err, "fetch family")
		return
	}
	if !found {
		respond.Error(w, http.StatusNotFound, "family not found")
		return
	}
	respond.JSON(w, http.StatusOK, "family", family)
}

func (h *FamilyHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.FamilyRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	key, err := h.svc.RegisterFamily(r.Context(), familyFromRequest(req))
	if err != nil {
		writeError(w, err, "register family")
		return
	}
	respond.JSON(w, http.StatusOK, "family registered", key)
}

func (h *FamilyHandler) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req dto.FamilyRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	key, err := h.svc.AppendFamily(r.Context(), familyFromRequest(req))
	if err != nil {
		writeError(w, err, "append family")
		return
	}
	respond.JSON(w, http.StatusCreated, "family added", key)
}

func (h *FamilyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	families, err := h.svc.ListFamilies(r.Context(), r.PathValue("phone"))
	if err != nil {
		writeError(w, err, "list families")
		return
	}
	respond.JSON(w, http.StatusOK, "families", families)
}
