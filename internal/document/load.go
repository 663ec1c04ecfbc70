package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tracegraph/internal/ir"
)

// Format names a document encoding.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported document extension %q", filepath.Ext(path))
	}
}

// Load reads and decodes the document at path.
// A file that cannot be read is returned as a plain error; a file that
// cannot be parsed is a StructuralError with ReasonMalformed.
func Load(path string) (any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Decode(format, path, data)
}

// Decode parses data in the given format. name is used in CUE positions.
func Decode(format Format, name string, data []byte) (any, error) {
	var (
		raw any
		err error
	)
	switch format {
	case FormatXML:
		raw, err = decodeXML(bytes.NewReader(data))
	case FormatJSON:
		raw, err = decodeJSON(data)
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatCUE:
		raw, err = decodeCUE(name, data)
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
	if err != nil {
		return nil, malformed(format, err)
	}

	doc, err := normalize(raw)
	if err != nil {
		return nil, malformed(format, err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, &ir.StructuralError{Path: "$", Reason: ir.ReasonMalformed, Detail: "document root is not an object"}
	}
	return doc, nil
}

func malformed(format Format, err error) error {
	return &ir.StructuralError{
		Path:   "$",
		Reason: ir.ReasonMalformed,
		Detail: fmt.Sprintf("invalid %s: %v", format, err),
	}
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after document")
	}
	return v, nil
}

// decodeCUE evaluates a CUE file and exports its concrete value.
func decodeCUE(name string, data []byte) (any, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, err
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, err
	}
	exported, err := value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return decodeJSON(exported)
}
