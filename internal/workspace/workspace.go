// Package workspace saves and loads sets of named relations as JSON
// documents (.codd files).
//
// FORMAT:
//
//	{
//	  "version": 1,
//	  "relations": {
//	    "E": {
//	      "attributes": {"name": "str", "salary": "int"},
//	      "tuples": [{"name": "Alice", "salary": 80000}]
//	    }
//	  }
//	}
//
// Attribute tags are str, int, bool, Decimal and Relation. Decimals are
// written as strings so their scale survives ("8000.0"); relation-valued
// attributes nest the same attributes/tuples object.
//
// Tuples are written in canonical order, so saving the same relations
// twice produces identical bytes.
package workspace

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/codd/internal/model"
)

// Version is the workspace format version written by Encode.
const Version = 1

// ErrInvalid is wrapped by every malformed-document failure.
var ErrInvalid = errors.New("invalid workspace")

//go:embed schema.cue
var schemaSource string

// document is the JSON form of a workspace.
type document struct {
	Version   int                     `json:"version"`
	Relations map[string]relationBody `json:"relations"`
}

type relationBody struct {
	Attributes map[string]string `json:"attributes"`
	Tuples     []map[string]any  `json:"tuples"`
}

// Encode renders rels as an indented workspace document ending in a
// newline.
func Encode(rels map[string]*model.Relation) ([]byte, error) {
	doc := document{Version: Version, Relations: make(map[string]relationBody, len(rels))}
	for name, rel := range rels {
		body, err := encodeRelation(rel)
		if err != nil {
			return nil, fmt.Errorf("encode relation %s: %w", name, err)
		}
		doc.Relations[name] = body
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode workspace: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a workspace document. The document is validated against
// the embedded CUE schema first, then its version is checked.
func Decode(data []byte) (map[string]*model.Relation, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc.Relations == nil {
		return nil, fmt.Errorf("%w: missing relations", ErrInvalid)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: unsupported workspace version %d", ErrInvalid, doc.Version)
	}

	out := make(map[string]*model.Relation, len(doc.Relations))
	for name, body := range doc.Relations {
		rel, err := decodeRelation(body)
		if err != nil {
			return nil, fmt.Errorf("%w: relation %s: %v", ErrInvalid, name, err)
		}
		out[name] = rel
	}
	return out, nil
}

// Save writes rels to path.
func Save(path string, rels map[string]*model.Relation) error {
	data, err := Encode(rels)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}
	slog.Debug("workspace saved", "path", path, "relations", len(rels))
	return nil
}

// Load reads the relations saved at path.
func Load(path string) (map[string]*model.Relation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	rels, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("workspace loaded", "path", path, "relations", len(rels))
	return rels, nil
}

// IsWorkspaceFile reports whether path holds a JSON object with version
// and relations keys. It does not validate the rest of the document.
func IsWorkspaceFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return false
	}
	_, hasVersion := top["version"]
	_, hasRelations := top["relations"]
	return hasVersion && hasRelations
}

// validate checks data against #Workspace.
func validate(data []byte) error {
	expr, err := cuejson.Extract("workspace", data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Workspace"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("workspace schema: %w", err)
	}
	v := schema.Unify(ctx.BuildExpr(expr))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, firstCUEError(err))
	}
	return nil
}

func firstCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}

// encodeRelation tags each attribute with the kind of its first
// non-empty value. Empty strings (blank CSV cells) do not decide a tag.
func encodeRelation(rel *model.Relation) (relationBody, error) {
	heading := rel.Heading()
	tuples := rel.Ordered()

	body := relationBody{
		Attributes: make(map[string]string, len(heading)),
		Tuples:     make([]map[string]any, 0, len(tuples)),
	}
	for _, attr := range heading {
		body.Attributes[attr] = tagOf(tuples, attr)
	}
	for _, t := range tuples {
		row := make(map[string]any, len(heading))
		for _, attr := range heading {
			v, err := encodeValue(t.Value(attr))
			if err != nil {
				return relationBody{}, fmt.Errorf("attribute %s: %w", attr, err)
			}
			row[attr] = v
		}
		body.Tuples = append(body.Tuples, row)
	}
	return body, nil
}

func tagOf(tuples []model.Tuple, attr string) string {
	for _, t := range tuples {
		v := t.Value(attr)
		if s, ok := v.(model.String); ok && s == "" {
			continue
		}
		return v.Kind().String()
	}
	return model.KindString.String()
}

func encodeValue(v model.Value) (any, error) {
	switch val := v.(type) {
	case model.Int:
		return int64(val), nil
	case model.Decimal:
		return val.String(), nil
	case model.Bool:
		return bool(val), nil
	case model.String:
		return string(val), nil
	case *model.Relation:
		return encodeRelation(val)
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func decodeRelation(body relationBody) (*model.Relation, error) {
	kinds := make(map[string]model.Kind, len(body.Attributes))
	attrs := make([]string, 0, len(body.Attributes))
	for attr, tag := range body.Attributes {
		k, ok := model.ParseKind(tag)
		if !ok {
			return nil, fmt.Errorf("attribute %s has unknown type %q", attr, tag)
		}
		kinds[attr] = k
		attrs = append(attrs, attr)
	}
	slices.Sort(attrs)

	tuples := make([]model.Tuple, 0, len(body.Tuples))
	for i, row := range body.Tuples {
		if len(row) != len(attrs) {
			return nil, fmt.Errorf("tuple %d has %d attributes, want %d", i, len(row), len(attrs))
		}
		values := make(map[string]model.Value, len(attrs))
		for _, attr := range attrs {
			raw, ok := row[attr]
			if !ok {
				return nil, fmt.Errorf("tuple %d is missing attribute %s", i, attr)
			}
			v, err := decodeValue(raw, kinds[attr])
			if err != nil {
				return nil, fmt.Errorf("tuple %d attribute %s: %w", i, attr, err)
			}
			values[attr] = v
		}
		tuples = append(tuples, model.NewTuple(values))
	}
	return model.New(model.NewHeading(attrs...), tuples...)
}

// decodeValue converts one JSON value. The JSON type decides first, the
// tag resolves numbers and strings that could be decimals.
func decodeValue(raw any, kind model.Kind) (model.Value, error) {
	switch val := raw.(type) {
	case bool:
		return model.Bool(val), nil
	case json.Number:
		if kind != model.KindDecimal {
			if n, err := val.Int64(); err == nil {
				return model.Int(n), nil
			}
		}
		d, err := model.ParseDecimal(val.String())
		if err != nil {
			return nil, fmt.Errorf("invalid number %s", val)
		}
		return d, nil
	case string:
		if kind == model.KindDecimal && val != "" {
			if d, err := model.ParseDecimal(val); err == nil {
				return d, nil
			}
		}
		return model.String(val), nil
	case map[string]any:
		body, err := relationBodyOf(val)
		if err != nil {
			return nil, err
		}
		return decodeRelation(body)
	}
	return nil, fmt.Errorf("unsupported JSON value %v", raw)
}

// relationBodyOf reinterprets a decoded JSON object as a nested relation.
func relationBodyOf(obj map[string]any) (relationBody, error) {
	var body relationBody
	attrs, ok := obj["attributes"].(map[string]any)
	if !ok {
		return body, errors.New("nested relation is missing attributes")
	}
	body.Attributes = make(map[string]string, len(attrs))
	for k, v := range attrs {
		tag, ok := v.(string)
		if !ok {
			return body, fmt.Errorf("attribute %s has a non-string type tag", k)
		}
		body.Attributes[k] = tag
	}
	rows, ok := obj["tuples"].([]any)
	if !ok {
		return body, errors.New("nested relation is missing tuples")
	}
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok {
			return body, errors.New("nested tuple is not an object")
		}
		body.Tuples = append(body.Tuples, row)
	}
	return body, nil
}

// Tags returns the attribute type tags Encode would write for rel.
func Tags(rel *model.Relation) map[string]string {
	tuples := rel.Ordered()
	tags := make(map[string]string, len(rel.Heading()))
	for _, attr := range rel.Heading() {
		tags[attr] = tagOf(tuples, attr)
	}
	return tags
}

// EncodeTuple renders one tuple as a compact JSON object in the same
// value encoding Encode uses.
func EncodeTuple(t model.Tuple) ([]byte, error) {
	row := make(map[string]any, t.Len())
	for _, attr := range t.Heading() {
		v, err := encodeValue(t.Value(attr))
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attr, err)
		}
		row[attr] = v
	}
	return json.Marshal(row)
}

// DecodeTuple parses a JSON object written by EncodeTuple. tags resolves
// numbers and strings exactly as Decode does.
func DecodeTuple(data []byte, tags map[string]string) (model.Tuple, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		return model.Tuple{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	values := make(map[string]model.Value, len(row))
	for attr, raw := range row {
		tag, ok := tags[attr]
		if !ok {
			return model.Tuple{}, fmt.Errorf("%w: attribute %s is not in the heading", ErrInvalid, attr)
		}
		kind, ok := model.ParseKind(tag)
		if !ok {
			return model.Tuple{}, fmt.Errorf("%w: attribute %s has unknown type %q", ErrInvalid, attr, tag)
		}
		v, err := decodeValue(raw, kind)
		if err != nil {
			return model.Tuple{}, fmt.Errorf("%w: attribute %s: %v", ErrInvalid, attr, err)
		}
		values[attr] = v
	}
	return model.NewTuple(values), nil
}
