// Package api exposes the scan service over HTTP. Scan results stream as
// newline-delimited JSON payloads.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/lumipallolabs/storviz/internal/core"
	"github.com/lumipallolabs/storviz/internal/logging"
)

// Settings configures the HTTP server
type Settings struct {
	Listen      string
	CORSOrigins []string
}

// REST is the http handler
type REST struct {
	svc      *core.Service
	settings Settings
	server   *http.Server
}

// New returns the http handler for the scan endpoints
func New(svc *core.Service, set Settings) *REST {
	return &REST{
		svc:      svc,
		settings: set,
	}
}

// Handler builds the routed handler with CORS and request logging
func (api *REST) Handler() http.Handler {
	router := newRouter()
	//PROBE
	router.GET("/probe", api.check)
	//SCANS
	router.POST("/api/scans", api.startScan)
	router.GET("/api/scans", api.listScans)
	router.DELETE("/api/scans/:id", api.cancelScan)
	//DISK
	router.GET("/api/disk", api.probeDisk)

	var h http.Handler = router
	if len(api.settings.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: api.settings.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", "Content-Encoding"},
			ExposedHeaders: []string{sessionHeader},
		}).Handler(h)
	}

	return newLogMiddleware(h)
}

// ListenAndServe serves until Stop is called or the listener fails
func (api *REST) ListenAndServe() error {
	// No write timeout: scan streams last as long as the walk
	api.server = &http.Server{
		Addr:              api.settings.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	logging.API.Info().Str("addr", api.settings.Listen).Msg("listening")

	err := api.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for open streams until ctx ends
func (api *REST) Stop(ctx context.Context) error {
	if api.server == nil {
		return nil
	}
	return api.server.Shutdown(ctx)
}

func (api *REST) check(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

func newRouter() *httprouter.Router {
	router := httprouter.New()
	router.MethodNotAllowed = http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		})
	router.NotFound = http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	return router
}
