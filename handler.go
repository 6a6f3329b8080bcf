package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/joeecarter/heart-readings-server/dashboard"
	"github.com/joeecarter/heart-readings-server/export"
	"github.com/joeecarter/heart-readings-server/profile"
	"github.com/joeecarter/heart-readings-server/reading"
	"github.com/joeecarter/heart-readings-server/request"
)

const maxUploadBytes = 64 << 20

// ImportHandler accepts export uploads. It answers as soon as the payload is parsed and
// stores the readings in the background.
type ImportHandler struct {
	Service *ReadingService
	Logger  *zap.Logger
}

func NewImportHandler(service *ReadingService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{Service: service, Logger: logger}
}

func (handler *ImportHandler) ServeHTTP(wr http.ResponseWriter, req *http.Request) {
	msg, err := handler.handle(req)
	if err == nil {
		wr.WriteHeader(http.StatusOK)
		wr.Write([]byte(msg + "\n"))
	} else if errors.Is(err, ErrServiceClosed) {
		wr.WriteHeader(http.StatusServiceUnavailable)
		wr.Write([]byte("ERROR: " + err.Error() + "\n"))
	} else {
		wr.WriteHeader(http.StatusBadRequest)
		wr.Write([]byte("ERROR: " + err.Error() + "\n"))
	}
}

func (handler *ImportHandler) handle(req *http.Request) (string, error) {
	handler.Logger.Info("Received upload", zap.String("user_agent", req.Header.Get("User-Agent")))

	b, err := io.ReadAll(http.MaxBytesReader(nil, req.Body, maxUploadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	export, err := request.Parse(b)
	if err != nil {
		return "", err
	}

	totalReadings := len(export.Data.Readings)
	totalECG := len(export.Data.ECG)
	handler.Logger.Info("Parsed upload", zap.Int("readings", totalReadings), zap.Int("ecg", totalECG))

	if err := handler.Service.ImportAsync(export.AllReadings()); err != nil {
		return "", err
	}

	return fmt.Sprintf("Processing request. Received %d readings and %d ECG recordings.", totalReadings, totalECG), nil
}

// Handler serves the JSON API.
type Handler struct {
	Service  *ReadingService
	Profiles *profile.FileStore
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewHandler builds the routed API, including the upload endpoint.
func NewHandler(service *ReadingService, profiles *profile.FileStore, logger *zap.Logger) http.Handler {
	h := &Handler{Service: service, Profiles: profiles, Logger: logger, Now: time.Now}

	mux := http.NewServeMux()
	mux.Handle("POST /upload", NewImportHandler(service, logger))

	mux.HandleFunc("GET /api/readings", h.HandleListReadings)
	mux.HandleFunc("POST /api/readings", h.HandleCreateReading)
	mux.HandleFunc("GET /api/readings/{id}", h.HandleGetReading)
	mux.HandleFunc("GET /api/export/readings.xlsx", h.HandleExportReadings)
	mux.HandleFunc("GET /api/filters", h.HandleFilters)

	mux.HandleFunc("GET /api/dashboard", h.HandleDashboard)

	mux.HandleFunc("GET /api/profile", h.HandleGetProfile)
	mux.HandleFunc("PUT /api/profile", h.HandleUpdateProfile)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	return mux
}

// ReadingView is a reading with its display fields resolved.
type ReadingView struct {
	*reading.Reading
	FormattedDate string                        `json:"formattedDate"`
	ECGLabel      string                        `json:"ecgLabel"`
	Badge         reading.Badge                 `json:"badge"`
	BloodPressure reading.BloodPressureCategory `json:"bloodPressure"`
}

func NewReadingView(r *reading.Reading) ReadingView {
	return ReadingView{
		Reading:       r,
		FormattedDate: reading.FormatDate(r.Date),
		ECGLabel:      r.ECGType.Label(),
		Badge:         r.ECGType.Badge(),
		BloodPressure: r.BloodPressure(),
	}
}

type ListResponse struct {
	Readings []ReadingView    `json:"readings"`
	Count    int              `json:"count"`
	Search   string           `json:"q"`
	Sort     reading.SortSpec `json:"sort"`
}

// parseQuery reads q, filter, sort and dir. Absent parameters take the list defaults;
// present but unknown values are rejected.
func parseQuery(r *http.Request) (string, reading.SortSpec, error) {
	params := r.URL.Query()

	term := params.Get("q")
	if name := params.Get("filter"); name != "" {
		preset, ok := reading.QuickFilter(name)
		if !ok {
			return "", reading.SortSpec{}, &reading.InvalidArgumentError{Argument: "filter", Value: name}
		}
		term = preset
	}

	spec := reading.DefaultSortSpec()
	if params.Has("sort") {
		spec.Field = reading.SortField(params.Get("sort"))
	}
	if params.Has("dir") {
		spec.Direction = reading.SortDirection(params.Get("dir"))
	}
	if err := spec.Validate(); err != nil {
		return "", reading.SortSpec{}, err
	}
	return term, spec, nil
}

func (h *Handler) HandleListReadings(w http.ResponseWriter, r *http.Request) {
	term, spec, err := parseQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	readings, err := h.Service.Query(r.Context(), term, spec)
	if err != nil {
		h.serverError(w, "Failed to query readings", err)
		return
	}

	views := make([]ReadingView, len(readings))
	for i, rd := range readings {
		views[i] = NewReadingView(rd)
	}
	jsonOK(w, ListResponse{Readings: views, Count: len(views), Search: term, Sort: spec})
}

func (h *Handler) HandleGetReading(w http.ResponseWriter, r *http.Request) {
	rd, err := h.Service.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, reading.ErrNotFound) {
		jsonError(w, "Reading not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, "Failed to load reading", err)
		return
	}
	jsonOK(w, NewReadingView(rd))
}

type validationResponse struct {
	Error  string               `json:"error"`
	Fields []reading.FieldError `json:"fields"`
}

func (h *Handler) HandleCreateReading(w http.ResponseWriter, r *http.Request) {
	var body request.Reading
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rd := body.ToReading()
	if err := h.Service.Add(r.Context(), rd); err != nil {
		var verr *reading.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, validationResponse{Error: "Invalid reading", Fields: verr.Fields})
			return
		}
		if errors.Is(err, reading.ErrAlreadyExists) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		h.serverError(w, "Failed to save reading", err)
		return
	}

	h.Logger.Info("Recorded reading", zap.String("id", rd.ID), zap.String("ecg_type", string(rd.ECGType)))
	writeJSON(w, http.StatusCreated, NewReadingView(rd))
}

func (h *Handler) HandleExportReadings(w http.ResponseWriter, r *http.Request) {
	term, spec, err := parseQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	readings, err := h.Service.Query(r.Context(), term, spec)
	if err != nil {
		h.serverError(w, "Failed to query readings", err)
		return
	}

	b, err := export.ReadingsXLSX(readings)
	if err != nil {
		h.serverError(w, "Failed to build export", err)
		return
	}

	filename := fmt.Sprintf("readings-%s.xlsx", h.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(b)
}

func (h *Handler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, reading.QuickFilters)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	rng, err := dashboard.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	readings, err := h.Service.List(r.Context())
	if err != nil {
		h.serverError(w, "Failed to load readings", err)
		return
	}
	jsonOK(w, dashboard.Summarize(readings, rng, h.Now()))
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Load()
	if err != nil {
		h.serverError(w, "Failed to load profile", err)
		return
	}
	jsonOK(w, p)
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Load()
	if err != nil {
		h.serverError(w, "Failed to load profile", err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Profiles.Save(p); err != nil {
		if errors.Is(err, profile.ErrInvalidProfile) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.serverError(w, "Failed to save profile", err)
		return
	}
	jsonOK(w, p)
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, ErrServiceClosed) {
		jsonError(w, "Service is shutting down", http.StatusServiceUnavailable)
		return
	}
	h.Logger.Error(msg, zap.Error(err))
	jsonError(w, msg, http.StatusInternalServerError)
}

func jsonOK(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
