package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/assetcrawler/import-services/catalog"
	"github.com/assetcrawler/import-services/models/asset"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ImportRunner runs one full import.
type ImportRunner interface {
	RunFullImport(ctx context.Context) (*asset.ImportRunSummary, error)
}

// RunHistory returns recent run summaries, newest first.
type RunHistory interface {
	ImportRunList(limit int) ([]*asset.ImportRunSummary, error)
}

// CatalogCleaner empties the catalog tables.
type CatalogCleaner interface {
	Cleanup(ctx context.Context) (*catalog.CleanupResult, error)
}

// ImportService exposes the import trigger over HTTP. History and
// Cleaner are optional; their endpoints answer 503 when they are nil.
type ImportService struct {
	Importer    ImportRunner
	History     RunHistory
	Cleaner     CatalogCleaner
	HistorySize int
	Logger      *logging.Logger

	// RunTimeout bounds a single triggered run. Zero means no limit.
	RunTimeout time.Duration
}

// Handler returns the routes, wrapped in the metrics middleware.
func (svc *ImportService) Handler() http.Handler {
	router := NewRouter()
	router.HandleFunc("GET /import/full", svc.makeFullImportHandler())
	router.HandleFunc("GET /import/runs", svc.makeRunsHandler())
	router.HandleFunc("POST /import/cleanup", svc.makeCleanupHandler())
	router.HandleFunc("GET /healthz", svc.makePingHandler())
	router.Handle("GET /metrics", promhttp.Handler())
	return PrometheusMiddleware(router.Mux())
}

// Serve listens on addr until ctx is canceled, then shuts down,
// giving in-flight requests shutdownGrace to finish.
func (svc *ImportService) Serve(ctx context.Context, addr string, shutdownGrace time.Duration) error {
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     svc.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	serverErrors := make(chan error, 1)
	go func() {
		svc.Logger.Infof("Import service listening on %s", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		svc.Logger.Info("Import service shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			httpServer.Close()
			return fmt.Errorf("could not gracefully shut down server: %w", err)
		}
		svc.Logger.Info("Import service stopped")
	}
	return nil
}

// The full import answers 200 with an empty body once every message has
// been attempted, even if some sends failed. Counts go to the log and
// the run history.
func (svc *ImportService) makeFullImportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc.RunTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, svc.RunTimeout)
			defer cancel()
		}
		svc.Logger.Infof("[%s] Full import requested", r.RemoteAddr)
		summary, err := svc.Importer.RunFullImport(ctx)
		if err != nil {
			var listingErr *common.ListingError
			status := http.StatusInternalServerError
			if errors.As(err, &listingErr) {
				status = http.StatusBadGateway
			}
			svc.Logger.Errorf("[%s] Full import failed: %v", r.RemoteAddr, err)
			writeJSON(w, status, errorResponse{Error: err.Error()})
			return
		}
		svc.Logger.Infof("[%s] Full import %s done: %d queued, %d failed",
			r.RemoteAddr, summary.RunID, summary.Dispatched, summary.Failed)
		w.WriteHeader(http.StatusOK)
	}
}

func (svc *ImportService) makeRunsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.History == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "run history is not configured"})
			return
		}
		limit := svc.HistorySize
		if param := r.URL.Query().Get("limit"); param != "" {
			n, err := strconv.Atoi(param)
			if err != nil || n < 1 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Param 'limit' must be an integer greater than zero."})
				return
			}
			limit = n
		}
		summaries, err := svc.History.ImportRunList(limit)
		if err != nil {
			svc.Logger.Errorf("[%s] Cannot read run history: %v", r.RemoteAddr, err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func (svc *ImportService) makeCleanupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.Cleaner == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: common.ErrCleanupDisabled.Error()})
			return
		}
		svc.Logger.Warningf("[%s] Catalog cleanup requested", r.RemoteAddr)
		result, err := svc.Cleaner.Cleanup(r.Context())
		if err != nil {
			svc.Logger.Errorf("[%s] Catalog cleanup failed: %v", r.RemoteAddr, err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (svc *ImportService) makePingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	jsonResponse, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(jsonResponse)
}
