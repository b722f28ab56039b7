package types

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Point is a single timestamped reading handed to a sink. Field values are
// float64, int64, string or bool.
type Point struct {
	Measurement string            `json:"measurement" firestore:"measurement"`
	Tags        map[string]string `json:"tags,omitempty" firestore:"tags,omitempty"`
	Fields      map[string]any    `json:"fields" firestore:"fields"`
	Time        time.Time         `json:"time" firestore:"time"`
}

// NewPoint returns an empty point for measurement at t.
func NewPoint(measurement string, t time.Time) Point {
	return Point{
		Measurement: measurement,
		Tags:        make(map[string]string),
		Fields:      make(map[string]any),
		Time:        t,
	}
}

// Tag sets a tag, empty values are skipped.
func (p Point) Tag(key, value string) Point {
	if value == "" {
		return p
	}
	if p.Tags == nil {
		p.Tags = make(map[string]string)
	}
	p.Tags[key] = value
	return p
}

// Float sets a float field when v is not nil.
func (p Point) Float(key string, v *float64) Point {
	if v == nil {
		return p
	}
	return p.Field(key, *v)
}

// Int sets an integer field when v is not nil.
func (p Point) Int(key string, v *int) Point {
	if v == nil {
		return p
	}
	return p.Field(key, int64(*v))
}

// Text sets a string field when v is not nil.
func (p Point) Text(key string, v *string) Point {
	if v == nil {
		return p
	}
	return p.Field(key, *v)
}

// Bool sets a bool field when v is not nil.
func (p Point) Bool(key string, v *bool) Point {
	if v == nil {
		return p
	}
	return p.Field(key, *v)
}

// Field sets a field. Ints of any width are stored as int64 and float32 as
// float64, anything else is dropped.
func (p Point) Field(key string, v any) Point {
	switch tv := v.(type) {
	case float64, int64, string, bool:
	case float32:
		v = float64(tv)
	case int:
		v = int64(tv)
	case int32:
		v = int64(tv)
	case uint8:
		v = int64(tv)
	default:
		return p
	}
	if p.Fields == nil {
		p.Fields = make(map[string]any)
	}
	p.Fields[key] = v
	return p
}

// HasFields reports whether at least one field was set.
func (p Point) HasFields() bool {
	return len(p.Fields) > 0
}

// Validate checks that the point can be written by any sink.
func (p Point) Validate() error {
	if p.Measurement == "" {
		return fmt.Errorf("point has no measurement")
	}
	if !p.HasFields() {
		return fmt.Errorf("point %s has no fields", p.Measurement)
	}
	if p.Time.IsZero() {
		return fmt.Errorf("point %s has no timestamp", p.Measurement)
	}
	for k, v := range p.Fields {
		switch v.(type) {
		case float64, int64, string, bool:
		default:
			return fmt.Errorf("point %s field %s has unsupported type %T", p.Measurement, k, v)
		}
	}
	return nil
}

// Series identifies the measurement and tag set of the point, e.g.
// "meter,device_id=0,location=grid". Tags are sorted by key.
func (p Point) Series() string {
	var sb strings.Builder
	sb.WriteString(p.Measurement)
	for _, k := range slices.Sorted(maps.Keys(p.Tags)) {
		sb.WriteByte(',')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(p.Tags[k])
	}
	return sb.String()
}

// Clone returns a deep copy of p.
func (p Point) Clone() Point {
	c := p
	c.Tags = maps.Clone(p.Tags)
	c.Fields = maps.Clone(p.Fields)
	return c
}
