package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime acepta RFC3339, ISO sin zona (se asume UTC) o solo fecha.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", s)
}

// OptionalTime distingue "campo ausente" de "campo en null" en un PUT parcial.
// Present=true y Value=nil significa limpiar.
type OptionalTime struct {
	Present bool
	Value   *time.Time
}

func (o *OptionalTime) UnmarshalJSON(b []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	o.Value = &t
	return nil
}
