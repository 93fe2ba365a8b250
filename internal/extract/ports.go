// Package extract defines the boundary to the external optical-extraction
// service: a staged receipt file goes in, a bag of named fields comes out.
// The service is an unreliable black box; fields may be missing or empty,
// and the mapping layer owns every default.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is one recognized value. The service reports best-effort strings;
// numbers are normalized to their decimal text form.
type Field struct {
	Value string `json:"value"`
}

func (f *Field) UnmarshalJSON(b []byte) error {
	var raw struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.Value.(type) {
	case nil:
		f.Value = ""
	case string:
		f.Value = v
	case float64:
		f.Value = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		f.Value = fmt.Sprintf("%v", v)
	}
	return nil
}

// FieldBag is the service's free-form result keyed by field name.
type FieldBag map[string]Field

// Extractor is the narrow contract the receipt pipeline depends on. The
// call is synchronous, single-shot, and may take seconds; the pipeline
// never retries it.
type Extractor interface {
	Extract(ctx context.Context, path, mimeType string) (FieldBag, error)
}
