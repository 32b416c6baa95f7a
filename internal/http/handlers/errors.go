package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/hongminglow/carecrate/internal/http/respond"
	"github.com/hongminglow/carecrate/internal/pantry"
	"github.com/hongminglow/carecrate/internal/report"
	"github.com/hongminglow/carecrate/internal/storage"
)

var badRequestErrors = []error{
	pantry.ErrInvalidFamily,
	pantry.ErrInvalidVisit,
	pantry.ErrInvalidWaste,
	pantry.ErrInvalidOrder,
	report.ErrInvalidRange,
	report.ErrNoRecipients,
}

// writeError maps domain errors to a status; anything unrecognised is logged
// and reported as "failed to <action>".
func writeError(w http.ResponseWriter, err error, action string) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			respond.Error(w, http.StatusBadRequest, target.Error())
			return
		}
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "record not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "record already exists")
	default:
		log.Printf("%s error: %v", action, err)
		respond.Error(w, http.StatusInternalServerError, "failed to "+action)
	}
}
