package handlers

import (
	"net/http"
	"time"

	"github.com/hongminglow/carecrate/internal/http/respond"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/report"
)

// ReportHandler serves admin summaries and mails them on request.
type ReportHandler struct {
	source     report.Source
	mailer     *report.Mailer
	recipients []string
	loc        *time.Location
	now        func() time.Time
}

func NewReportHandler(source report.Source, mailer *report.Mailer, recipients []string, loc *time.Location) *ReportHandler {
	return &ReportHandler{source: source, mailer: mailer, recipients: recipients, loc: loc, now: time.Now}
}

func (h *ReportHandler) Register(mux *http.ServeMux, mw *middleware.Auth) {
	mux.HandleFunc("GET /reports", mw.RequireAdmin(h.handleSummary))
	mux.HandleFunc("POST /reports/email", mw.RequireAdmin(h.handleEmail))
}

type emailReportRequest struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Recipients []string `json:"recipients"`
}

type emailReportResponse struct {
	Subject    string   `json:"subject"`
	Recipients []string `json:"recipients"`
	Sent       bool     `json:"sent"`
}

func (h *ReportHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := report.Window(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.now(), h.loc)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := report.Summarize(r.Context(), h.source, from, to, h.loc)
	if err != nil {
		writeError(w, err, "build report")
		return
	}
	respond.JSON(w, http.StatusOK, "report", summary)
}

func (h *ReportHandler) handleEmail(w http.ResponseWriter, r *http.Request) {
	var req emailReportRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	from, to, err := report.Window(req.From, req.To, h.now(), h.loc)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := report.Summarize(r.Context(), h.source, from, to, h.loc)
	if err != nil {
		writeError(w, err, "build report")
		return
	}
	recipients := req.Recipients
	if len(recipients) == 0 {
		recipients = h.recipients
	}
	if err := h.mailer.Send(r.Context(), recipients, summary); err != nil {
		writeError(w, err, "send report")
		return
	}
	respond.JSON(w, http.StatusOK, "report sent", emailReportResponse{
		Subject:    summary.Subject(),
		Recipients: recipients,
		Sent:       h.mailer.Enabled(),
	})
}
