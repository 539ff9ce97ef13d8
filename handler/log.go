package handler

import (
	"encoding/json"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/sirupsen/logrus"
)

func logRequest(req *http.Request, status int, elapsed time.Duration) {
	log.WithFields(logrus.Fields{
		"request_id": requestID(req.Context()),
		"status":     status,
		"elapsed":    elapsed.String(),
	}).Infof("%s -- %s -- %s", req.RemoteAddr, req.Method, req.URL.Path)
}

// logAndReturnError logs err with the request id and writes the JSON envelope.
func logAndReturnError(w http.ResponseWriter, req *http.Request, code int, body ErrorResponse, err error) {
	entry := log.WithField("request_id", requestID(req.Context()))
	if err != nil {
		entry = entry.WithError(err)
	}
	if code >= http.StatusInternalServerError {
		entry.Errorln(body.Error)
	} else {
		entry.Warnln(body.Error)
	}
	writeJSON(w, code, body)
}

// respondError maps a categorized error onto the two contract shapes.
func respondError(w http.ResponseWriter, req *http.Request, err error, details string) {
	if goerrors.IsCategory(err, goerrors.CategoryValidation) {
		logAndReturnError(w, req, http.StatusBadRequest, ErrorResponse{Error: msgContentRequired}, err)
		return
	}
	logAndReturnError(w, req, http.StatusInternalServerError, ErrorResponse{
		Error:   msgCompilationFailed,
		Details: details,
	}, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Errorf("Failed to write response: %v", err)
	}
}
