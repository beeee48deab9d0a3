package trace

import (
	"net/http"
	"time"
)

// Middleware extracts or creates trace context for HTTP requests and echoes
// the trace ID back in the response headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := extractFromHeaders(r)
		ctx := WithContext(r.Context(), tc)
		w.Header().Set(TraceIDHeader, tc.TraceID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		Logger(ctx).Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func extractFromHeaders(r *http.Request) Context {
	tc := Context{
		TraceID:      r.Header.Get(TraceIDHeader),
		ParentSpanID: r.Header.Get(SpanIDHeader),
		SpanID:       generateSpanID(),
	}
	if tc.TraceID == "" {
		tc.TraceID = generateTraceID()
	}
	return tc
}
