package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"mastercoin/internal/aggregate"
	"mastercoin/internal/core"
	"mastercoin/internal/log"
	"mastercoin/internal/normalize"
	"mastercoin/internal/services"
	"mastercoin/internal/sheets/xlsx"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports ready once a dataset is loaded
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{
		"rate_limiter": s.limiter.GetMetrics(),
		"security":     s.detector.GetMetrics(),
	}

	status := "ready"
	code := http.StatusOK
	if ds, ok := s.ledger.Current(); ok {
		checks["dataset"] = map[string]any{
			"version":  ds.Version,
			"source":   ds.Source,
			"loadedAt": ds.LoadedAt.Format(time.RFC3339),
			"status":   "ok",
		}
	} else {
		checks["dataset"] = "not_loaded"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	NewJSONResponse().Status(code).Data(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.ledger.Current()
	if !ok {
		s.writeError(w, r, services.ErrNoData)
		return
	}
	NewJSONResponse().Data(ds).Write(w)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.ledger.Months()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	type month struct {
		Month   string         `json:"month"`
		Display string         `json:"display"`
		Chrono  core.ChronoKey `json:"chronoKey"`
	}
	out := make([]month, 0, len(months))
	for _, m := range months {
		out = append(out, month{Month: m, Display: core.DisplayMonth(m), Chrono: core.ChronoFromSheet(m)})
	}
	NewJSONResponse().Data(out).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month := monthParam(r)
	res, err := s.ledger.Calculate(r.Context(), month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]any{
		"month":  month,
		"result": res,
	}).Write(w)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.Transactions(monthParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(txs).Write(w)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	points, err := s.ledger.Trends()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(points).Write(w)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.ledger.Snapshots(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(snaps).Write(w)
}

func (s *Server) handleProtocol(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"pillars": core.PillarProtocol,
		"items":   normalize.ProtocolItems(),
	}).Write(w)
}

// handleIngest replaces the dataset with an uploaded xlsx workbook, sent
// either as the raw body or as the "file" field of a multipart form.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	data, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "upload too large").Write(w)
			return
		}
		log.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable upload", log.FieldError, err)
		UnprocessableEntityError(services.ErrIngestFailed.Error()).Write(w)
		return
	}

	ds, err := s.ledger.Ingest(r.Context(), xlsx.NewBytes(data, s.logger), "upload")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(ds).Write(w)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		ErrorResponse(http.StatusNotImplemented, "reload not configured").Write(w)
		return
	}
	ds, err := s.reloader.Reload(r.Context(), "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(ds).Write(w)
}

func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// monthParam reads ?month=, defaulting to every month.
func monthParam(r *http.Request) string {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		return aggregate.AllMonths
	}
	return month
}

// writeError maps service errors onto status codes. Ingest failures always
// surface as the single message "parsing failure".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrIngestFailed):
		log.FromContext(r.Context()).WarnContext(r.Context(), "Ingest failed", log.FieldError, err)
		UnprocessableEntityError(services.ErrIngestFailed.Error()).Write(w)
	case errors.Is(err, services.ErrNoData):
		NotFoundError(services.ErrNoData.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}
