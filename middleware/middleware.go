package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/podcast-automation/errors"
)

const RequestIDHeader = "X-Request-ID"

type loggingTransport struct {
	next   http.RoundTripper
	logger logrus.FieldLogger
}

// NewLoggingTransport logs every outbound request with a generated request
// id. Query strings are never logged since they can carry credentials.
func NewLoggingTransport(next http.RoundTripper, logger logrus.FieldLogger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &loggingTransport{next: next, logger: logger}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.InvalidInput("middleware.RoundTrip", nil, "nil request")
	}

	requestID := uuid.New().String()
	start := time.Now()

	req = req.Clone(req.Context())
	req.Header.Set(RequestIDHeader, requestID)

	logger := t.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     req.Method,
		"host":       req.URL.Host,
		"path":       req.URL.Path,
	})
	logger.Debug("Request started")

	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		logger.WithError(err).WithField("duration", duration).Warn("Request failed")
		return nil, err
	}

	logger = logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": duration,
		"size":     resp.ContentLength,
	})

	switch {
	case resp.StatusCode >= 500:
		logger.Error("Request completed with server error")
	case resp.StatusCode >= 400:
		logger.Warn("Request completed with client error")
	default:
		logger.Debug("Request completed successfully")
	}

	return resp, nil
}
