package codec

import (
	"context"
	"strconv"
	"time"

	"github.com/dmitrijs2005/billfold/internal/client/models"
)

// fields reads one document's values with type coercion, logging a
// data-quality warning for every substitution it has to make.
type fields struct {
	codec *Codec
	ctx   context.Context
	kind  models.Kind
	id    string
	doc   map[string]any
}

func (f fields) warn(field string, got any, used any) {
	f.codec.log.Warn(f.ctx, "data-quality: coerced field",
		"kind", f.kind, "id", f.id, "field", field,
		"got", got, "used", used)
}

func (f fields) str(field string) string {
	v, ok := f.doc[field]
	if !ok || v == nil {
		return ""
	}
	switch value := v.(type) {
	case string:
		return value
	case float64:
		s := strconv.FormatFloat(value, 'f', -1, 64)
		f.warn(field, v, s)
		return s
	case bool:
		s := strconv.FormatBool(value)
		f.warn(field, v, s)
		return s
	default:
		f.warn(field, v, "")
		return ""
	}
}

func (f fields) num(field string) float64 {
	v, ok := f.doc[field]
	if !ok || v == nil {
		return 0
	}
	switch value := v.(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case string:
		// Legacy rows store numbers as strings.
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
		f.warn(field, v, 0)
		return 0
	case bool:
		n := 0.0
		if value {
			n = 1
		}
		f.warn(field, v, n)
		return n
	default:
		f.warn(field, v, 0)
		return 0
	}
}

func (f fields) boolean(field string) bool {
	v, ok := f.doc[field]
	if !ok || v == nil {
		return false
	}
	switch value := v.(type) {
	case bool:
		return value
	case float64:
		b := value != 0
		f.warn(field, v, b)
		return b
	case string:
		if b, err := strconv.ParseBool(value); err == nil {
			f.warn(field, v, b)
			return b
		}
		f.warn(field, v, false)
		return false
	default:
		f.warn(field, v, false)
		return false
	}
}

// time coerces a timestamp value. Unparsable and missing values fall back
// to def (the decode-time "now") with a warning, so decoding stays total.
func (f fields) time(field string, def time.Time) time.Time {
	v, ok := f.doc[field]
	if !ok || v == nil {
		f.warn(field, nil, def)
		return def
	}
	switch value := v.(type) {
	case time.Time:
		return value.UTC()
	case string:
		if t, err := parseTimestamp(value); err == nil {
			return t.UTC()
		}
		f.warn(field, v, def)
		return def
	case float64:
		// Epoch values: milliseconds for anything past ~2001 in millis,
		// seconds otherwise.
		if value > 1e12 {
			return time.UnixMilli(int64(value)).UTC()
		}
		return time.Unix(int64(value), 0).UTC()
	default:
		f.warn(field, v, def)
		return def
	}
}

// timestampFormats covers the encodings seen in legacy documents and in
// sqlite round-trips.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	var err error
	for _, f := range timestampFormats {
		var t time.Time
		if t, err = time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
