package handlers

import (
	"net/http"

	"github.com/hongminglow/carecrate/internal/http/respond"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/navbar"
)

// NavbarHandler serves the top-bar model for the signed-in (or anonymous) caller.
type NavbarHandler struct {
	registry *navbar.Registry
	variant  string
}

func NewNavbarHandler(registry *navbar.Registry, defaultVariant string) *NavbarHandler {
	return &NavbarHandler{registry: registry, variant: defaultVariant}
}

func (h *NavbarHandler) Register(mux *http.ServeMux, mw *middleware.Auth) {
	mux.HandleFunc("GET /navbar", mw.Optional(h.handle))
}

func (h *NavbarHandler) handle(w http.ResponseWriter, r *http.Request) {
	variant := r.URL.Query().Get("variant")
	if variant == "" {
		variant = h.variant
	}
	profile, ok := h.registry.Lookup(variant)
	if !ok {
		respond.Error(w, http.StatusNotFound, "unknown navbar variant")
		return
	}
	menu := navbar.Build(variant, profile, middleware.SessionFromContext(r.Context()))
	respond.JSON(w, http.StatusOK, "navbar", menu)
}
