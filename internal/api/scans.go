package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/lumipallolabs/storviz/internal/core"
	"github.com/lumipallolabs/storviz/internal/logging"
)

const sessionHeader = "X-Session-Id"

type scanRequest struct {
	Path      string `json:"path"`
	SessionID string `json:"sessionId"`
}

func (req *scanRequest) Validate() error {
	if req.Path == "" {
		return fmt.Errorf("%w: path is required", errBadRequest)
	}
	return nil
}

// startScan streams one payload per line until the terminal payload. A
// client that goes away cancels the scan; the stream is still drained so
// the session ends cleanly.
func (api *REST) startScan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req scanRequest
	if err := fromJSON(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ch, err := api.svc.ScanDirectoryStreaming(r.Context(), req.Path, req.SessionID)
	if err != nil {
		fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set(sessionHeader, req.SessionID)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	broken := false

	for msg := range ch {
		if broken {
			continue
		}
		if err := enc.Encode(core.NewPayload(req.SessionID, msg)); err != nil {
			logging.API.Debug().Err(err).Str("session", req.SessionID).Msg("stream write failed")
			broken = true
			api.abandon(req.SessionID)
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// abandon cancels a scan whose client went away
func (api *REST) abandon(id string) {
	if err := api.svc.CancelScan(id); err != nil {
		logging.API.Debug().Err(err).Str("session", id).Msg("cancel abandoned scan")
	}
}

func (api *REST) listScans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	successJSON(w, http.StatusOK, api.svc.Sessions())
}

func (api *REST) cancelScan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := api.svc.CancelScan(ps.ByName("id")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *REST) probeDisk(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	path := r.URL.Query().Get("path")
	if path == "" {
		fail(w, fmt.Errorf("%w: path is required", errBadRequest))
		return
	}

	info, err := api.svc.ProbeDisk(path)
	if err != nil {
		fail(w, err)
		return
	}
	successJSON(w, http.StatusOK, info)
}
