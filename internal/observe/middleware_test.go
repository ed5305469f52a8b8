package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// apiMux mimics the shape of the world-state API routes.
func apiMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/worldstate", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"fissures":[]}`))
	})
	mux.HandleFunc("GET /v1/snapshots/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("POST /v1/parse", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "context unavailable", http.StatusInternalServerError)
	})
	return mux
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddleware_Routes(t *testing.T) {
	tests := []struct {
		method, path string
		wantStatus   int
		wantSpan     string
		wantCode     codes.Code
	}{
		{"GET", "/v1/worldstate", http.StatusOK, "GET /v1/worldstate", codes.Unset},
		{"GET", "/v1/snapshots/missing", http.StatusNotFound, "GET /v1/snapshots/{id}", codes.Unset},
		{"GET", "/readyz", http.StatusServiceUnavailable, "GET /readyz", codes.Error},
		{"POST", "/v1/parse", http.StatusInternalServerError, "POST /v1/parse", codes.Error},
		{"GET", "/nowhere", http.StatusNotFound, "HTTP GET", codes.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			exp := withGlobalTracer(t)
			m, _ := newTestMetrics(t)
			handler := Middleware(m)(apiMux())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			spans := exp.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("recorded %d spans, want 1", len(spans))
			}
			s := spans[0]
			if s.Name != tt.wantSpan {
				t.Errorf("span name = %q, want %q", s.Name, tt.wantSpan)
			}
			if s.Status.Code != tt.wantCode {
				t.Errorf("span status = %v, want %v", s.Status.Code, tt.wantCode)
			}
			if v, ok := spanAttr(s.Attributes, "http.response.status_code"); !ok || v.AsInt64() != int64(tt.wantStatus) {
				t.Errorf("http.response.status_code = %v (present %v), want %d", v.AsInt64(), ok, tt.wantStatus)
			}
			if got := rec.Header().Get("X-Correlation-ID"); got != s.SpanContext.TraceID().String() {
				t.Errorf("X-Correlation-ID = %q, want span trace ID %s", got, s.SpanContext.TraceID())
			}
		})
	}
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	withGlobalTracer(t)
	m, _ := newTestMetrics(t)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	var inHandler string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inHandler = CorrelationID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/v1/worldstate", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if inHandler != traceID {
		t.Errorf("handler correlation ID = %q, want %q", inHandler, traceID)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != traceID {
		t.Errorf("X-Correlation-ID = %q, want %q", got, traceID)
	}
	if got := rec.Header().Get("traceparent"); got == "" {
		t.Error("traceparent not injected into the response")
	}
}

func TestMiddleware_DurationByRoute(t *testing.T) {
	withGlobalTracer(t)
	m, reader := newTestMetrics(t)
	handler := Middleware(m)(apiMux())

	for _, path := range []string{"/v1/snapshots/a", "/v1/snapshots/b", "/v1/snapshots/missing", "/v1/worldstate"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	met := findMetric(collect(t, reader), "worldstate.http.request.duration")
	if met == nil {
		t.Fatal("request duration metric not recorded")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("metric data = %T, want histogram", met.Data)
	}
	counts := make(map[string]uint64)
	for _, dp := range hist.DataPoints {
		path, _ := dp.Attributes.Value("path")
		counts[path.AsString()] += dp.Count
	}
	if counts["GET /v1/snapshots/{id}"] != 3 {
		t.Errorf("snapshot route samples = %d, want 3 (counts %v)", counts["GET /v1/snapshots/{id}"], counts)
	}
	if counts["GET /v1/worldstate"] != 1 {
		t.Errorf("worldstate route samples = %d, want 1 (counts %v)", counts["GET /v1/worldstate"], counts)
	}
}

func TestStatusRecorder_HijackUnsupported(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	if _, _, err := rec.Hijack(); err == nil {
		t.Fatal("Hijack succeeded on a recorder without Hijacker")
	}
	if rec.Unwrap() == nil {
		t.Error("Unwrap returned nil")
	}
}
