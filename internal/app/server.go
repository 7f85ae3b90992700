package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Adda-Baaj/kijiji-ledger/internal/domain"
	"github.com/Adda-Baaj/kijiji-ledger/internal/logger"
)

// Runner triggers one ingestion run.
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// NewHandler exposes the trigger endpoint. A run outlives the request that
// started it; dropping the connection does not cancel in-flight writes.
func NewHandler(runner Runner, log logger.Logger) http.Handler {
	log = logger.Ensure(log)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		written, err := runner.Run(context.WithoutCancel(r.Context()))
		switch {
		case errors.Is(err, domain.ErrRunInProgress):
			http.Error(w, "An ingestion run is already in progress.", http.StatusConflict)
		case err != nil:
			log.ErrorObj("triggered run failed", "trigger_error", map[string]any{
				"remote": r.RemoteAddr,
				"error":  err.Error(),
			})
			writeText(w, http.StatusInternalServerError, "An error occured : "+err.Error())
		default:
			writeText(w, http.StatusOK, fmt.Sprintf("Successfully added %d ads to spreadsheet.", written))
		}
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// writeText sends body as-is; existing trigger clients match on these strings.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// NewServer builds the trigger HTTP server.
func NewServer(port int, runner Runner, log logger.Logger) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewHandler(runner, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
