// Command check_openapi verifies that api/openapi.yaml documents exactly the
// routes the server registers, with the right auth and error schemas.
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"moodflix/services/moodflix/internal/server"
)

type openAPIDoc struct {
	Paths      map[string]map[string]yaml.Node `yaml:"paths"`
	Components struct {
		Schemas         map[string]schema `yaml:"schemas"`
		SecuritySchemes map[string]struct {
			Type   string `yaml:"type"`
			Scheme string `yaml:"scheme"`
		} `yaml:"securitySchemes"`
	} `yaml:"components"`
}

type operation struct {
	Security  []map[string][]string `yaml:"security"`
	Responses map[string]yaml.Node  `yaml:"responses"`
}

type schema struct {
	Type       string            `yaml:"type"`
	Ref        string            `yaml:"$ref"`
	Properties map[string]schema `yaml:"properties"`
	Required   []string          `yaml:"required"`
	Items      *schema           `yaml:"items"`
}

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"patch": true, "head": true, "options": true, "trace": true,
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <openapi.yaml>\n", os.Args[0])
		os.Exit(2)
	}
	doc, err := loadDoc(os.Args[1])
	if err != nil {
		exitErr(err)
	}
	problems := check(doc, server.Routes())
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, "openapi:", p)
		}
		os.Exit(1)
	}
	fmt.Println("OpenAPI consistency check passed.")
}

func loadDoc(path string) (openAPIDoc, error) {
	var doc openAPIDoc
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func check(doc openAPIDoc, routes []server.Route) []error {
	var problems []error
	if scheme, ok := doc.Components.SecuritySchemes["bearerAuth"]; !ok || scheme.Type != "http" || scheme.Scheme != "bearer" {
		problems = append(problems, errors.New("securitySchemes.bearerAuth must be http bearer"))
	}
	if s, err := getSchema(doc, "ErrorResponse"); err != nil {
		problems = append(problems, err)
	} else if err := validateErrorResponse(s); err != nil {
		problems = append(problems, err)
	}
	if s, err := getSchema(doc, "ValidationErrorResponse"); err != nil {
		problems = append(problems, err)
	} else if err := validateValidationErrorResponse(s); err != nil {
		problems = append(problems, err)
	}

	served := make(map[string]bool)
	for _, rt := range routes {
		for _, method := range rt.Methods {
			m := strings.ToLower(method)
			served[rt.Pattern+" "+m] = true
			op, ok, err := getOperation(doc, rt.Pattern, m)
			if err != nil {
				problems = append(problems, err)
				continue
			}
			if !ok {
				problems = append(problems, fmt.Errorf("%s %s is served but not documented", method, rt.Pattern))
				continue
			}
			if len(op.Responses) == 0 {
				problems = append(problems, fmt.Errorf("%s %s documents no responses", method, rt.Pattern))
			}
			secured := usesBearer(op)
			if rt.Auth && !secured {
				problems = append(problems, fmt.Errorf("%s %s requires a bearer token but has no bearerAuth security", method, rt.Pattern))
			}
			if !rt.Auth && secured {
				problems = append(problems, fmt.Errorf("%s %s is public but documents bearerAuth", method, rt.Pattern))
			}
		}
	}

	var stale []string
	for path, item := range doc.Paths {
		for key := range item {
			if httpMethods[key] && !served[path+" "+key] {
				stale = append(stale, fmt.Sprintf("%s %s", strings.ToUpper(key), path))
			}
		}
	}
	sort.Strings(stale)
	for _, s := range stale {
		problems = append(problems, fmt.Errorf("%s is documented but not served", s))
	}
	return problems
}

func getOperation(doc openAPIDoc, path, method string) (operation, bool, error) {
	item, ok := doc.Paths[path]
	if !ok {
		return operation{}, false, nil
	}
	node, ok := item[method]
	if !ok {
		return operation{}, false, nil
	}
	var op operation
	if err := node.Decode(&op); err != nil {
		return operation{}, false, fmt.Errorf("decode %s %s: %w", strings.ToUpper(method), path, err)
	}
	return op, true, nil
}

func usesBearer(op operation) bool {
	for _, req := range op.Security {
		if _, ok := req["bearerAuth"]; ok {
			return true
		}
	}
	return false
}

func getSchema(doc openAPIDoc, name string) (schema, error) {
	if doc.Components.Schemas == nil {
		return schema{}, errors.New("components.schemas missing")
	}
	s, ok := doc.Components.Schemas[name]
	if !ok {
		return schema{}, fmt.Errorf("schema %q missing", name)
	}
	return s, nil
}

func validateErrorResponse(s schema) error {
	if s.Type != "object" {
		return errors.New("ErrorResponse must be object")
	}
	if !makeSet(s.Required)["error"] {
		return errors.New(`ErrorResponse.required must include "error"`)
	}
	if prop, ok := s.Properties["error"]; !ok || prop.Type != "string" {
		return errors.New("ErrorResponse.error must be string")
	}
	return nil
}

func validateValidationErrorResponse(s schema) error {
	if s.Type != "object" {
		return errors.New("ValidationErrorResponse must be object")
	}
	required := makeSet(s.Required)
	for _, field := range []string{"error", "fields"} {
		if !required[field] {
			return fmt.Errorf("ValidationErrorResponse.required must include %q", field)
		}
	}
	if prop, ok := s.Properties["fields"]; !ok || prop.Type != "object" {
		return errors.New("ValidationErrorResponse.fields must be object")
	}
	return nil
}

func makeSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[strings.TrimSpace(v)] = true
	}
	return out
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
