package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hongminglow/carecrate/internal/feed"
	"github.com/hongminglow/carecrate/internal/http/respond"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/models/dto"
	"github.com/hongminglow/carecrate/internal/pantry"
)

// VisitHandler records check-ins and serves today's list.
type VisitHandler struct {
	svc *pantry.Service
	loc *time.Location
	now func() time.Time
}

func NewVisitHandler(svc *pantry.Service, loc *time.Location) *VisitHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &VisitHandler{svc: svc, loc: loc, now: time.Now}
}

func (h *VisitHandler) Register(mux *http.ServeMux, mw *middleware.Auth) {
	mux.HandleFunc("POST /visits", mw.RequireSession(h.handleRecord))
	mux.HandleFunc("GET /visits/today", mw.RequireSession(h.handleToday))
	mux.HandleFunc("GET /visits/{id}", mw.RequireSession(h.handleGet))
}

func (h *VisitHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req dto.VisitRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	visit, err := h.svc.RecordVisit(r.Context(), models.Visit{
		ID:          req.ID,
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, err, "record visit")
		return
	}
	respond.JSON(w, http.StatusCreated, "visit recorded", visit)
}

func (h *VisitHandler) handleToday(w http.ResponseWriter, r *http.Request) {
	dayStart := feed.StartOfDay(h.now(), h.loc)
	visits, err := h.svc.ListVisits(r.Context(), dayStart.UnixMilli(), 0)
	if err != nil {
		writeError(w, err, "list visits")
		return
	}
	respond.JSON(w, http.StatusOK, "visits", visits)
}

func (h *VisitHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "visit id must be an integer")
		return
	}
	visit, err := h.svc.GetVisit(r.Context(), id)
	if err != nil {
		writeError(w, err, "get visit")
		return
	}
	respond.JSON(w, http.StatusOK, "visit", visit)
}
