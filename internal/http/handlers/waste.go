package handlers

import (
	"net/http"
	"strconv"

	"github.com/hongminglow/carecrate/internal/http/respond"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/models/dto"
	"github.com/hongminglow/carecrate/internal/pantry"
)

// WasteHandler logs and lists waste events.
type WasteHandler struct {
	svc *pantry.Service
}

func NewWasteHandler(svc *pantry.Service) *WasteHandler {
	return &WasteHandler{svc: svc}
}

func (h *WasteHandler) Register(mux *http.ServeMux, mw *middleware.Auth) {
	mux.HandleFunc("POST /waste", mw.RequireSession(h.handleRecord))
	mux.HandleFunc("GET /waste", mw.RequireSession(h.handleFetch))
}

func (h *WasteHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req dto.WasteRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	waste, err := h.svc.RecordWaste(r.Context(), models.Waste{TimeOfWaste: req.TimeOfWaste, Metadata: req.Metadata})
	if err != nil {
		writeError(w, err, "record waste")
		return
	}
	respond.JSON(w, http.StatusCreated, "waste recorded", waste)
}

func (h *WasteHandler) handleFetch(w http.ResponseWriter, r *http.Request) {
	query := models.WasteQuery{Order: models.SortOrder(r.URL.Query().Get("order"))}
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "since must be Unix milliseconds")
			return
		}
		query.Since = since
	}
	records, err := h.svc.FetchWaste(r.Context(), query)
	if err != nil {
		writeError(w, err, "fetch waste")
		return
	}
	respond.JSON(w, http.StatusOK, "waste", records)
}
