package source

import (
	"errors"

	"github.com/cgalavis/schemakit/internal/engine"
	"github.com/cgalavis/schemakit/schemaerr"
)

// JSON returns the JSON schema format.
func JSON() Format { return jsonFormat{} }

type jsonFormat struct{}

func (jsonFormat) Name() string         { return "json" }
func (jsonFormat) Extensions() []string { return []string{".json"} }

func (jsonFormat) Decode(data []byte, opt Options) (*Document, error) {
	eo := engine.Options{MaxDepth: opt.MaxDepth}
	if opt.AllowDuplicateKeys {
		eo.OnDuplicate = engine.DupIgnore
	}
	v, err := engine.DecodeBytes(data, eo)
	if err != nil {
		return nil, fromEngine(err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, schemaerr.Schema(schemaerr.CodeMalformedDocument, "reason", "top-level value is not an object").At("/")
	}
	return FromMap(m)
}

func (jsonFormat) Sniff(data []byte) bool {
	v, err := engine.DecodeBytes(data, engine.Options{OnDuplicate: engine.DupIgnore})
	if err != nil {
		return false
	}
	m, ok := v.(map[string]any)
	return ok && plausibleVersion(m["version"])
}

func fromEngine(err error) error {
	var ie engine.IssueError
	if !errors.As(err, &ie) {
		return schemaerr.Schema(schemaerr.CodeMalformedDocument).Wrap(err)
	}
	code := schemaerr.CodeMalformedDocument
	switch ie.Code {
	case engine.CodeDuplicateKey:
		code = schemaerr.CodeDuplicateKey
	case engine.CodeMaxDepth:
		code = schemaerr.CodeMaxDepth
	}
	return schemaerr.Schema(code, "offset", ie.Offset).At(ie.Path).Wrap(err)
}
