package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/report"
	"github.com/wonny/krxdaily/pkg/logger"
)

// ReportHandler serves saved daily reports
type ReportHandler struct {
	dir    string
	logger *logger.Logger
}

// NewReportHandler creates a handler reading reports from dir
func NewReportHandler(dir string, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		dir:    dir,
		logger: log.WithField("module", "report_handler"),
	}
}

// GetReport returns the report text for a date
// GET /api/reports/{date}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	date, err := contracts.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := report.Load(h.dir, date)
	if errors.Is(err, fs.ErrNotExist) {
		respondError(w, http.StatusNotFound, "report not found: "+contracts.FormatDate(date))
		return
	}
	if err != nil {
		h.logger.WithField("date", contracts.FormatDate(date)).WithError(err).Error("Failed to read report")
		respondError(w, http.StatusInternalServerError, "Failed to read report")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
