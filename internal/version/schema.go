package version

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/descriptor.schema.json
var schemaBytes []byte

const schemaURL = "descriptor.schema.json"

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// SchemaIssue is a single schema violation in a descriptor body.
type SchemaIssue struct {
	Path    string // Instance location (e.g., "/version")
	Keyword string // Schema keyword that failed
	Message string
}

// SchemaError reports a descriptor body that does not match the schema.
type SchemaError struct {
	Issues []SchemaIssue
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "invalid version descriptor: " + strings.Join(parts, "; ")
}

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ValidateDescriptor checks a raw descriptor body against the embedded schema.
// It returns a *SchemaError for schema violations and a plain error when the
// body is not JSON at all.
func ValidateDescriptor(data []byte) error {
	schema, err := getSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing descriptor JSON: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("unexpected validation error type: %w", err)
	}
	return &SchemaError{Issues: collectIssues(ve)}
}

func collectIssues(ve *jsonschema.ValidationError) []SchemaIssue {
	var issues []SchemaIssue
	walkIssues(ve, &issues)
	if len(issues) == 0 {
		return []SchemaIssue{{Message: ve.Error()}}
	}
	return issues
}

// walkIssues collects leaf errors, which carry the property-level detail.
func walkIssues(ve *jsonschema.ValidationError, issues *[]SchemaIssue) {
	if len(ve.Causes) == 0 {
		path := ""
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}

		keyword, msg := "", ""
		if ve.ErrorKind != nil {
			if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
				keyword = kw[len(kw)-1]
			}
			msg = ve.ErrorKind.LocalizedString(printer)
		}
		if keyword == "" || keyword == "$ref" {
			return
		}

		*issues = append(*issues, SchemaIssue{Path: path, Keyword: keyword, Message: msg})
		return
	}
	for _, cause := range ve.Causes {
		walkIssues(cause, issues)
	}
}
