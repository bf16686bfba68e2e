package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/OldStager01/dpf-rul/internal/logger"
)

// RequestObserver receives the route, status and latency of every request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// RequestLogger logs one entry per request through the request context,
// so the trace id set by TraceID is attached. Paths in quiet are observed
// but only logged when they fail. observer may be nil.
func RequestLogger(observer RequestObserver, quiet ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		began := time.Now()
		c.Next()
		took := time.Since(began)

		status := c.Writer.Status()
		route := c.FullPath()
		if observer != nil {
			observer.ObserveRequest(c.Request.Method, route, status, took)
		}

		if _, ok := skip[c.Request.URL.Path]; ok && status < http.StatusBadRequest {
			return
		}

		entry := logger.FromContext(c.Request.Context()).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": took.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"bytes":      c.Writer.Size(),
		})
		if route != "" && route != c.Request.URL.Path {
			entry = entry.WithField("route", route)
		}
		if user := GetUsername(c); user != "" {
			entry = entry.WithField("user", user)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			entry = entry.WithField("errors", errs.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}
