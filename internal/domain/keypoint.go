package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedKeypoint is returned when a keypoint entry cannot be read as a point
var ErrMalformedKeypoint = errors.New("malformed keypoint")

// Kind tells which shape a keypoint entry has in the document
type Kind uint8

const (
	// Absent is a null entry: the keypoint id exists but was not detected
	Absent Kind = iota
	// Point is an [x, y] entry without visibility
	Point
	// PointV is an [x, y, v] entry
	PointV
	// Malformed is anything else; the raw JSON is kept as-is
	Malformed
)

// Visibility is the COCO tri-state quality flag
type Visibility int

const (
	NotLabeled Visibility = 0
	Occluded   Visibility = 1
	Visible    Visibility = 2
)

// Valid reports whether v is one of the three COCO values
func (v Visibility) Valid() bool {
	return v >= NotLabeled && v <= Visible
}

// String returns the enum name used in Pascal VOC exports
func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case Occluded:
		return "occluded"
	default:
		return "not_labeled"
	}
}

// Label returns the human readable name shown in keypoint listings
func (v Visibility) Label() string {
	switch v {
	case Visible:
		return "Visible"
	case Occluded:
		return "Occluded"
	case NotLabeled:
		return "Not Labeled"
	default:
		return "Unknown"
	}
}

// Keypoint is one entry of a record's keypoint list. The index of the entry
// in the list is its semantic id.
type Keypoint struct {
	Kind Kind
	X    float64
	Y    float64
	V    Visibility
	raw  json.RawMessage
}

// NewPoint creates an [x, y] keypoint
func NewPoint(x, y float64) Keypoint {
	return Keypoint{Kind: Point, X: x, Y: y}
}

// NewPointV creates an [x, y, v] keypoint
func NewPointV(x, y float64, v Visibility) Keypoint {
	return Keypoint{Kind: PointV, X: x, Y: y, V: v}
}

// Present reports whether the entry has coordinates
func (k Keypoint) Present() bool {
	return k.Kind == Point || k.Kind == PointV
}

// Visibility returns the stored visibility, Visible when the entry has none
func (k Keypoint) Visibility() Visibility {
	if k.Kind == PointV {
		return k.V
	}
	return Visible
}

// WithVisibility returns the keypoint as an [x, y, v] entry
func (k Keypoint) WithVisibility(v Visibility) Keypoint {
	return NewPointV(k.X, k.Y, v)
}

// Raw returns the verbatim JSON of a malformed entry
func (k Keypoint) Raw() json.RawMessage {
	return k.raw
}

// Coerce reads the entry the lenient way: numeric strings are accepted and
// extra array elements are ignored. Entries with negative or non-finite
// coordinates are rejected.
func (k Keypoint) Coerce() (Keypoint, bool) {
	switch k.Kind {
	case Point, PointV:
		if !validCoordinate(k.X) || !validCoordinate(k.Y) {
			return Keypoint{}, false
		}
		return k, true
	case Malformed:
		var parts []json.RawMessage
		if err := json.Unmarshal(k.raw, &parts); err != nil || len(parts) < 2 {
			return Keypoint{}, false
		}
		x, okX := coerceNumber(parts[0])
		y, okY := coerceNumber(parts[1])
		if !okX || !okY || !validCoordinate(x) || !validCoordinate(y) {
			return Keypoint{}, false
		}
		if len(parts) >= 3 {
			v, ok := coerceNumber(parts[2])
			if !ok {
				return Keypoint{}, false
			}
			return NewPointV(x, y, Visibility(int(v))), true
		}
		return NewPoint(x, y), true
	default:
		return Keypoint{}, false
	}
}

// Plausible reports whether the coordinates stay within 10x the image size.
// Dimensions that are unknown (zero) are not checked.
func (k Keypoint) Plausible(width, height int) bool {
	if width > 0 && k.X > float64(width)*10 {
		return false
	}
	if height > 0 && k.Y > float64(height)*10 {
		return false
	}
	return true
}

// Equal compares two entries, including the raw text of malformed ones
func (k Keypoint) Equal(o Keypoint) bool {
	if k.Kind != o.Kind {
		return false
	}
	switch k.Kind {
	case Absent:
		return true
	case Point:
		return k.X == o.X && k.Y == o.Y
	case PointV:
		return k.X == o.X && k.Y == o.Y && k.V == o.V
	default:
		return bytes.Equal(k.raw, o.raw)
	}
}

func (k Keypoint) clone() Keypoint {
	if k.raw != nil {
		k.raw = append(json.RawMessage(nil), k.raw...)
	}
	return k
}

// MarshalJSON writes null, [x, y], [x, y, v] or the verbatim malformed entry
func (k Keypoint) MarshalJSON() ([]byte, error) {
	switch k.Kind {
	case Absent:
		return []byte("null"), nil
	case Point:
		return json.Marshal([2]float64{k.X, k.Y})
	case PointV:
		return json.Marshal([]any{k.X, k.Y, int(k.V)})
	default:
		if len(k.raw) == 0 {
			return []byte("null"), nil
		}
		return k.raw, nil
	}
}

// UnmarshalJSON never fails on well-formed JSON: unknown shapes are kept as
// Malformed so they survive a load/save cycle untouched.
func (k *Keypoint) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*k = Keypoint{}
		return nil
	}
	malformed := Keypoint{Kind: Malformed, raw: append(json.RawMessage(nil), trimmed...)}
	var parts []json.RawMessage
	if err := json.Unmarshal(trimmed, &parts); err != nil || len(parts) < 2 || len(parts) > 3 {
		if !json.Valid(trimmed) {
			return ErrMalformedKeypoint
		}
		*k = malformed
		return nil
	}
	var xy [2]float64
	for i := 0; i < 2; i++ {
		if err := json.Unmarshal(parts[i], &xy[i]); err != nil {
			*k = malformed
			return nil
		}
	}
	if len(parts) == 2 {
		*k = NewPoint(xy[0], xy[1])
		return nil
	}
	var v float64
	if err := json.Unmarshal(parts[2], &v); err != nil || v != math.Trunc(v) {
		*k = malformed
		return nil
	}
	*k = NewPointV(xy[0], xy[1], Visibility(int(v)))
	return nil
}

// CloneKeypoints returns a deep copy of a keypoint list. A nil list stays nil.
func CloneKeypoints(kps []Keypoint) []Keypoint {
	if kps == nil {
		return nil
	}
	out := make([]Keypoint, len(kps))
	for i, kp := range kps {
		out[i] = kp.clone()
	}
	return out
}

// EqualKeypoints compares two keypoint lists entry by entry
func EqualKeypoints(a, b []Keypoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func validCoordinate(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

func coerceNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
