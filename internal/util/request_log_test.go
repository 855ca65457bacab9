package util

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithRequestLogRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := WithRequestID(WithRequestLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))
	req := httptest.NewRequest(http.MethodPost, "/api/recommendations", nil)
	req.Header.Set("X-Request-Id", "log-test-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{`"msg":"http_request"`, `"status":418`, `"bytes":15`, `"request_id":"log-test-1"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %s: %s", want, line)
		}
	}
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := &StatusRecorder{ResponseWriter: httptest.NewRecorder()}
	if rec.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200 before any write, got %d", rec.StatusCode())
	}
	_, _ = rec.Write([]byte("ok"))
	if rec.Status != http.StatusOK || rec.Bytes != 2 {
		t.Fatalf("unexpected recorder state: %+v", rec)
	}
}
