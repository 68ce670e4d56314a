package action

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/user-action.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// Issue is a single validation finding. Entry is the registry index of the
// offending descriptor, or -1 for document-level problems.
type Issue struct {
	Entry   int
	Field   string
	Message string
}

func (i Issue) String() string {
	switch {
	case i.Entry < 0 && i.Field == "":
		return i.Message
	case i.Field == "":
		return fmt.Sprintf("entry %d: %s", i.Entry, i.Message)
	case i.Entry < 0:
		return fmt.Sprintf("%s: %s", i.Field, i.Message)
	default:
		return fmt.Sprintf("entry %d, field %q: %s", i.Entry, i.Field, i.Message)
	}
}

// ValidationError reports why a candidate document was rejected.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid action registry"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "invalid action registry: " + strings.Join(parts, "; ")
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("user-action.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("user-action.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Validate checks a candidate user-action.json document and returns the
// parsed registry. It is a pure check: no I/O, no side effects. On
// rejection the error is a *ValidationError whose issues name the offending
// entry and field. A non-*ValidationError return means the schema itself
// could not be loaded.
//
// Beyond the structural schema, each code value must stay representable as
// one JSON string scalar on a single authored line: a literal newline,
// carriage return, or raw double quote in the decoded value is rejected,
// because it breaks the document the moment it is hand-edited or re-pasted
// into the host's settings textarea.
func Validate(doc []byte) (Registry, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, &ValidationError{Issues: []Issue{{
			Entry:   -1,
			Message: fmt.Sprintf("not valid JSON: %v", err),
		}}}
	}

	if err := schema.Validate(inst); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, fmt.Errorf("unexpected validation error type: %w", err)
		}
		return nil, &ValidationError{Issues: extractIssues(ve)}
	}

	var reg Registry
	if err := json.Unmarshal(doc, &reg); err != nil {
		// Schema already guaranteed the shape; this is unreachable in
		// practice but kept as a document-level issue rather than a panic.
		return nil, &ValidationError{Issues: []Issue{{
			Entry:   -1,
			Message: fmt.Sprintf("decode registry: %v", err),
		}}}
	}

	var issues []Issue
	for i, d := range reg {
		issues = append(issues, checkSingleLine(i, d)...)
	}
	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	if reg == nil {
		reg = Registry{}
	}
	return reg, nil
}

// ValidateFile reads path and validates its contents.
func ValidateFile(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(data)
}

// checkSingleLine enforces the host constraint that code is one JSON string
// scalar on one line. The host's settings consumer does not support
// structured or multi-line script bodies, so this is a hard input
// constraint, not a style preference.
func checkSingleLine(entry int, d Descriptor) []Issue {
	var issues []Issue
	if strings.ContainsAny(d.Code, "\n\r") {
		issues = append(issues, Issue{
			Entry:   entry,
			Field:   "code",
			Message: "must be a single line (literal newline found)",
		})
	}
	if strings.Contains(d.Code, `"`) {
		issues = append(issues, Issue{
			Entry:   entry,
			Field:   "code",
			Message: "must not contain a double quote; use single quotes inside the script",
		})
	}
	return issues
}

// extractIssues walks the schema error tree and maps leaf errors onto
// registry entries. Instance locations look like ["2", "code"].
func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		return []Issue{{Entry: -1, Message: ve.Error()}}
	}
	return dedupeIssues(issues)
}

func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) == 0 {
		keyword := ""
		if ve.ErrorKind != nil {
			if kwPath := ve.ErrorKind.KeywordPath(); len(kwPath) > 0 {
				keyword = kwPath[len(kwPath)-1]
			}
		}
		// Container keywords carry no entry-level information.
		if keyword == "" || keyword == "$ref" || keyword == "allOf" || keyword == "oneOf" {
			return
		}

		msg := ""
		if ve.ErrorKind != nil {
			msg = ve.ErrorKind.LocalizedString(printer)
		}

		entry := -1
		field := ""
		if len(ve.InstanceLocation) > 0 {
			if n, err := strconv.Atoi(ve.InstanceLocation[0]); err == nil {
				entry = n
			}
		}
		if len(ve.InstanceLocation) > 1 {
			field = ve.InstanceLocation[1]
		}

		*issues = append(*issues, Issue{Entry: entry, Field: field, Message: msg})
		return
	}

	for _, cause := range ve.Causes {
		collectIssues(cause, issues)
	}
}

func dedupeIssues(issues []Issue) []Issue {
	seen := make(map[string]bool, len(issues))
	var out []Issue
	for _, issue := range issues {
		key := fmt.Sprintf("%d|%s|%s", issue.Entry, issue.Field, issue.Message)
		if !seen[key] {
			seen[key] = true
			out = append(out, issue)
		}
	}
	return out
}
