package main

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"moodflix/services/moodflix/internal/server"
)

func TestRepositorySpecMatchesRoutes(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	doc, err := loadDoc(filepath.Join(filepath.Dir(file), "..", "..", "api", "openapi.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if problems := check(doc, server.Routes()); len(problems) > 0 {
		t.Fatalf("openapi out of date: %v", problems)
	}
}

const sampleDoc = `
components:
  securitySchemes:
    bearerAuth: {type: http, scheme: bearer}
  schemas:
    ErrorResponse:
      type: object
      required: [error]
      properties:
        error: {type: string}
    ValidationErrorResponse:
      type: object
      required: [error, fields]
      properties:
        error: {type: string}
        fields: {type: object}
paths:
  /api/things:
    get:
      responses:
        "200": {description: OK}
  /api/old:
    delete:
      responses:
        "204": {description: gone}
`

func TestCheckReportsDrift(t *testing.T) {
	var doc openAPIDoc
	if err := yaml.Unmarshal([]byte(sampleDoc), &doc); err != nil {
		t.Fatalf("parse: %v", err)
	}
	routes := []server.Route{
		{Pattern: "/api/things", Methods: []string{"GET"}, Auth: true},
		{Pattern: "/api/new", Methods: []string{"POST"}},
	}
	problems := check(doc, routes)
	var joined []string
	for _, p := range problems {
		joined = append(joined, p.Error())
	}
	all := strings.Join(joined, "\n")
	for _, want := range []string{
		"GET /api/things requires a bearer token",
		"POST /api/new is served but not documented",
		"DELETE /api/old is documented but not served",
	} {
		if !strings.Contains(all, want) {
			t.Fatalf("missing %q in:\n%s", want, all)
		}
	}
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems, got %d:\n%s", len(problems), all)
	}
}

func TestCheckErrorSchemas(t *testing.T) {
	if err := validateErrorResponse(schema{Type: "object"}); err == nil {
		t.Fatalf("expected missing required error")
	}
	if err := validateValidationErrorResponse(schema{
		Type:       "object",
		Required:   []string{"error", "fields"},
		Properties: map[string]schema{"fields": {Type: "string"}},
	}); err == nil {
		t.Fatalf("expected fields type error")
	}
}
