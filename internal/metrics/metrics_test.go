package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentCountsByRoute(t *testing.T) {
	h := Instrument("/api/movies/{id}", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/api/movies/{id}", "404"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/movies/1", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/movies/2", nil))
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, "/api/movies/{id}", "404"))
	if after-before != 2 {
		t.Fatalf("expected 2 requests recorded, got %v", after-before)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	MailJobs.WithLabelValues("sent").Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "moodflix_mail_jobs_total") {
		t.Fatalf("metrics output missing mail job counter")
	}
}
