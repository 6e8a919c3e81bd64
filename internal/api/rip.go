package api

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/lumipallolabs/storviz/internal/logging"
	"github.com/lumipallolabs/storviz/internal/model"
	"github.com/lumipallolabs/storviz/internal/scanner"
	"github.com/lumipallolabs/storviz/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errBadRequest marks malformed or invalid request input
var errBadRequest = errors.New("bad request")

type validator interface {
	Validate() error
}

type errorJSON struct {
	Error string `json:"error"`
}

// fromJSON decodes a (possibly gzipped) JSON body into t and validates it
func fromJSON(r *http.Request, t validator) error {
	var body io.Reader = r.Body
	defer r.Body.Close()

	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		defer gz.Close()
		body = gz
	}

	if err := json.NewDecoder(body).Decode(t); err != nil {
		return fmt.Errorf("%w: wrong JSON format: %v", errBadRequest, err)
	}
	return t.Validate()
}

func successJSON(w http.ResponseWriter, statusCode int, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(b)
}

func fail(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		logging.API.Error().Err(err).Int("status", code).Send()
	} else {
		logging.API.Debug().Err(err).Int("status", code).Send()
	}
	successJSON(w, code, errorJSON{Error: err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, session.ErrEmptyID):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrDuplicateInFlight):
		return http.StatusConflict
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, scanner.ErrPathNotFound),
		errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scanner.ErrPermissionDenied),
		errors.Is(err, model.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, model.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
