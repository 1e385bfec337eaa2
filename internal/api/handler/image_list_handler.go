package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"riprocess-image-list/internal/config"
	"riprocess-image-list/internal/model"
	"riprocess-image-list/internal/pipeline"
	"riprocess-image-list/internal/store"
	"riprocess-image-list/pkg/router"
	"riprocess-image-list/pkg/utils"
)

const (
	imageListsPath = "/api/v1/image-lists"
	downloadPath   = "/api/v1/download/"
	maxConfigBytes = 1 << 20
)

// Handler serves the image-list API. Every request runs its own pipeline;
// Store is shared and safe for concurrent use.
type Handler struct {
	Store      *store.Store
	Outputs    *utils.OutputManager
	ConfigRoot string // submitted input paths must resolve inside it
	RunTimeout time.Duration
	Logger     *slog.Logger
}

// CreateImageListResponse is returned by CreateImageList.
type CreateImageListResponse struct {
	RunID       string    `json:"runID"`
	Status      string    `json:"status"`
	PairCount   int       `json:"pairCount"`
	DownloadURL string    `json:"downloadURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	RunID string `json:"runID,omitempty"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// RunDetail is a run with its pairs.
type RunDetail struct {
	model.Run
	Pairs []model.OutputPair `json:"pairs"`
}

// CreateImageList runs the pipeline for the submitted configuration
// @Summary Create an image list
// @Description Match the configured images to their timestamps and store the resulting list
// @Tags image-lists
// @Accept json
// @Produce json
// @Param config body model.Config true "Run configuration"
// @Success 200 {object} handler.CreateImageListResponse "Image list created"
// @Failure 400 {object} handler.ErrorResponse "Invalid configuration"
// @Failure 422 {object} handler.ErrorResponse "Pipeline failed"
// @Router /image-lists [post]
func (h *Handler) CreateImageList(w http.ResponseWriter, r *http.Request) {
	var cfg model.Config
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConfigBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: model.KindName(model.ErrInvalidConfig), Error: "invalid JSON payload: " + err.Error()})
		return
	}

	// Output targets are owned by the server, not the caller.
	cfg.Output = model.OutputConfig{}
	if err := config.Confine(&cfg, h.ConfigRoot); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: model.KindName(err), Error: err.Error()})
		return
	}
	if err := config.Validate(cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: model.KindName(err), Error: err.Error()})
		return
	}

	runID := uuid.New().String()
	listPath, err := h.Outputs.GetOutputFilePath(runID, utils.ListFileName)
	if err != nil {
		h.logger().Error("failed to prepare output", "run_id", runID, "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{RunID: runID, Kind: "internal", Error: "failed to prepare output"})
		return
	}
	cfg.Output.File = listPath

	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout())
	defer cancel()

	opts := pipeline.RunOptions{RunID: runID, ConfigPath: "api", Logger: h.logger()}
	if h.Store != nil {
		opts.Store = h.Store
	}
	res, err := pipeline.Run(ctx, cfg, opts)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if model.KindName(err) == "internal" {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, ErrorResponse{RunID: runID, Kind: model.KindName(err), Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, CreateImageListResponse{
		RunID:       res.RunID,
		Status:      model.RunStatusCompleted,
		PairCount:   len(res.Pairs),
		DownloadURL: h.Outputs.GetDownloadURL(res.RunID, utils.ListFileName),
		CreatedAt:   time.Now().UTC(),
	})
}

// ListImageLists returns all runs
// @Summary List image list runs
// @Description Get all runs, newest first
// @Tags image-lists
// @Produce json
// @Success 200 {array} model.Run "Runs"
// @Failure 500 {object} handler.ErrorResponse "Internal server error"
// @Router /image-lists [get]
func (h *Handler) ListImageLists(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeJSON(w, http.StatusOK, []model.Run{})
		return
	}
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		h.logger().Error("failed to list runs", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Kind: "internal", Error: "failed to fetch runs"})
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetImageList returns one run with its pairs
// @Summary Get an image list run
// @Description Retrieve a run and the pairs it produced
// @Tags image-lists
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} handler.RunDetail "Run details"
// @Failure 404 {object} handler.ErrorResponse "Run not found"
// @Router /image-lists/{id} [get]
func (h *Handler) GetImageList(w http.ResponseWriter, r *http.Request) {
	segs := router.Segments(r.URL.Path, imageListsPath+"/")
	if len(segs) != 1 || h.Store == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Kind: "not_found", Error: "run not found"})
		return
	}
	runID := segs[0]

	run, err := h.Store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{RunID: runID, Kind: "not_found", Error: "run not found"})
		return
	}
	if err != nil {
		h.logger().Error("failed to fetch run", "run_id", runID, "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{RunID: runID, Kind: "internal", Error: "failed to fetch run"})
		return
	}
	pairs, err := h.Store.GetPairs(r.Context(), runID)
	if err != nil {
		h.logger().Error("failed to fetch pairs", "run_id", runID, "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{RunID: runID, Kind: "internal", Error: "failed to fetch pairs"})
		return
	}
	if pairs == nil {
		pairs = []model.OutputPair{}
	}
	writeJSON(w, http.StatusOK, RunDetail{Run: run, Pairs: pairs})
}

// DownloadOutput serves a file written for a run
// @Summary Download a run output
// @Description Download the ';' separated list written for a run
// @Tags image-lists
// @Produce plain
// @Param id path string true "Run ID"
// @Param file path string true "File name"
// @Success 200 {string} string "File contents"
// @Failure 404 {string} string "Not found"
// @Router /download/{id}/{file} [get]
func (h *Handler) DownloadOutput(w http.ResponseWriter, r *http.Request) {
	segs := router.Segments(r.URL.Path, downloadPath)
	if len(segs) != 2 {
		http.NotFound(w, r)
		return
	}
	p, err := h.Outputs.LookupOutputFile(segs[0], segs[1])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", h.Outputs.GetContentType(p))
	http.ServeFile(w, r, p)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *Handler) runTimeout() time.Duration {
	if h.RunTimeout <= 0 {
		return 30 * time.Second
	}
	return h.RunTimeout
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
