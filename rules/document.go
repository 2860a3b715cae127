package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"dario.cat/mergo"
	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Document is a declarative validator chain. Sections run in declaration
// order: required, format, length, acceptance, inclusion, exclusion, tag,
// when. Filter, when set, is applied before any validator.
//
//	version: 1
//	filter: [age, name]
//	required: [age, name]
//	length:
//	  - {field: age, op: gt, value: 18}
type Document struct {
	Version    int          `yaml:"version,omitempty" json:"version,omitempty"`
	Filter     []string     `yaml:"filter,omitempty" json:"filter,omitempty"`
	Required   []string     `yaml:"required,omitempty" json:"required,omitempty"`
	Format     []FormatRule `yaml:"format,omitempty" json:"format,omitempty"`
	Length     []LengthRule `yaml:"length,omitempty" json:"length,omitempty"`
	Acceptance []string     `yaml:"acceptance,omitempty" json:"acceptance,omitempty"`
	Inclusion  []ValuesRule `yaml:"inclusion,omitempty" json:"inclusion,omitempty"`
	Exclusion  []ValuesRule `yaml:"exclusion,omitempty" json:"exclusion,omitempty"`
	Tag        []TagRule    `yaml:"tag,omitempty" json:"tag,omitempty"`
	When       []WhenRule   `yaml:"when,omitempty" json:"when,omitempty"`
}

// FormatRule matches a field against a regular expression.
type FormatRule struct {
	Field   string `yaml:"field" json:"field"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// LengthRule bounds the length of a field. Op is a comparator name or symbol.
type LengthRule struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value" json:"value"`
}

// ValuesRule lists the values of an inclusion or exclusion rule.
type ValuesRule struct {
	Field  string `yaml:"field" json:"field"`
	Values []any  `yaml:"values" json:"values"`
}

// TagRule applies a go-playground validation tag to a field.
type TagRule struct {
	Field string `yaml:"field" json:"field"`
	Tag   string `yaml:"tag" json:"tag"`
}

// WhenRule runs Then when the effective value of Field compares to Value.
type WhenRule struct {
	Field string   `yaml:"field" json:"field"`
	Op    string   `yaml:"op" json:"op"`
	Value any      `yaml:"value" json:"value"`
	Then  Document `yaml:"then" json:"then"`
}

// ErrInvalidDocument is matched by every *DocumentError.
var ErrInvalidDocument = errors.New("rules: invalid document")

// Violation is a single structural problem of a rule document.
type Violation struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// DocumentError reports a rule document that does not match the schema.
type DocumentError struct {
	Violations []Violation
}

func (e *DocumentError) Error() string {
	b := &strings.Builder{}
	b.WriteString(ErrInvalidDocument.Error())
	for i, v := range e.Violations {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "at %s: %s", v.Location, v.Message)
	}
	return b.String()
}

func (e *DocumentError) Is(target error) bool { return target == ErrInvalidDocument }

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/reoring/changeset/rules/schema.json"

// Schema returns the JSON Schema rule documents are checked against.
func Schema() []byte { return bytes.Clone(schemaJSON) }

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// Parse decodes a YAML (or JSON) rule document and checks it against Schema.
// Structural problems are reported as *DocumentError; a syntax error is
// returned as is.
func Parse(data []byte) (Document, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return Document{}, fmt.Errorf("rules: decode: %w", err)
	}
	if generic == nil {
		generic = map[string]any{}
	}
	if err := check(normalize(generic)); err != nil {
		return Document{}, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("rules: decode: %w", err)
	}
	return doc, nil
}

func check(v any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("rules: compile schema: %w", err)
	}
	// Round-trip through JSON so numbers reach the validator as json.Number.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rules: encode: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("rules: encode: %w", err)
	}
	err = schema.Validate(inst)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	derr := &DocumentError{}
	collect(verr, derr, message.NewPrinter(language.English))
	return derr
}

func collect(verr *jsonschema.ValidationError, derr *DocumentError, p *message.Printer) {
	if len(verr.Causes) == 0 {
		derr.Violations = append(derr.Violations, Violation{
			Location: "/" + strings.Join(verr.InstanceLocation, "/"),
			Message:  verr.ErrorKind.LocalizedString(p),
		})
		return
	}
	for _, c := range verr.Causes {
		collect(c, derr, p)
	}
}

// normalize converts YAML mappings with non-string keys into map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalize(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = normalize(t[i])
		}
		return arr
	default:
		return v
	}
}

// Merge overlays docs from left to right: later versions win and every list
// is appended. Repeated fields in Filter, Required and Acceptance are kept
// once.
func Merge(docs ...Document) (Document, error) {
	var out Document
	for i := range docs {
		if err := mergo.Merge(&out, docs[i], mergo.WithOverride, mergo.WithAppendSlice); err != nil {
			return Document{}, fmt.Errorf("rules: merge document %d: %w", i, err)
		}
	}
	out.Filter = unique(out.Filter)
	out.Required = unique(out.Required)
	out.Acceptance = unique(out.Acceptance)
	return out, nil
}

func unique(fields []string) []string {
	if len(fields) == 0 {
		return fields
	}
	seen := make(map[string]bool, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
