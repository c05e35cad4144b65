package http

import (
	"log"
	"net/http"
	"time"
)

// errorCodeHeader carries the machine error code from writeError to the
// request logger. The logger strips it before the response goes out.
const errorCodeHeader = "Selling-Error-Code"

// RequestLogger logs basic request details and latency, plus the machine
// error code on failed requests so conflicts and policy violations can be
// told apart without parsing response bodies.
func RequestLogger(next http.Handler, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		code := ""
		if rec.errorCode != "" {
			code = " code=" + rec.errorCode
		}
		logger.Printf(
			"request method=%s path=%s status=%d%s duration=%s",
			r.Method,
			r.URL.Path,
			rec.status,
			code,
			time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status    int
	errorCode string
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	if ec := r.Header().Get(errorCodeHeader); ec != "" {
		r.errorCode = ec
		r.Header().Del(errorCodeHeader)
	}
	r.ResponseWriter.WriteHeader(code)
}
