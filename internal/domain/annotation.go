package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Record is the annotation of a single image
type Record struct {
	Image     string
	Width     int
	Height    int
	Keypoints []Keypoint
	// Extra holds fields this package does not interpret
	Extra map[string]json.RawMessage
}

// Document is a whole annotation file: free-form info plus one record per image
type Document struct {
	// Info is nil when the document has no info object
	Info        map[string]json.RawMessage
	Annotations []*Record
	Extra       map[string]json.RawMessage
}

// NewDocument creates an empty document with zeroed counters
func NewDocument() *Document {
	return &Document{
		Info: map[string]json.RawMessage{
			"num_images":    json.RawMessage("0"),
			"num_keypoints": json.RawMessage("0"),
		},
		Annotations: []*Record{},
	}
}

// MaxKeypoints returns the longest keypoint list length across all records
func (d *Document) MaxKeypoints() int {
	max := 0
	for _, rec := range d.Annotations {
		if len(rec.Keypoints) > max {
			max = len(rec.Keypoints)
		}
	}
	return max
}

// UpdateCounters refreshes info.num_images and info.num_keypoints when the
// document carries an info object
func (d *Document) UpdateCounters() {
	if d.Info == nil {
		return
	}
	d.Info["num_images"] = json.RawMessage(strconv.Itoa(len(d.Annotations)))
	if len(d.Annotations) > 0 {
		d.Info["num_keypoints"] = json.RawMessage(strconv.Itoa(d.MaxKeypoints()))
	}
}

// PresentCount counts the entries that have coordinates
func (r *Record) PresentCount() int {
	n := 0
	for _, kp := range r.Keypoints {
		if kp.Present() {
			n++
		}
	}
	return n
}

func (r *Record) MarshalJSON() ([]byte, error) {
	kps := r.Keypoints
	if kps == nil {
		kps = []Keypoint{}
	}
	known := []field{
		{"image", r.Image},
		{"width", r.Width},
		{"height", r.Height},
		{"keypoints", kps},
	}
	return marshalObject(known, r.Extra)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("while reading annotation record: %w", err)
	}
	*r = Record{Keypoints: []Keypoint{}}
	if raw, ok := fields["image"]; ok {
		if err := json.Unmarshal(raw, &r.Image); err != nil {
			return fmt.Errorf("while reading annotation image path: %w", err)
		}
		delete(fields, "image")
	}
	for name, dst := range map[string]*int{"width": &r.Width, "height": &r.Height} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil || f != math.Trunc(f) {
			// keep values we cannot represent as they are
			continue
		}
		*dst = int(f)
		delete(fields, name)
	}
	if raw, ok := fields["keypoints"]; ok {
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := json.Unmarshal(raw, &r.Keypoints); err != nil {
				return fmt.Errorf("while reading keypoints of %q: %w", r.Image, err)
			}
		}
		delete(fields, "keypoints")
	}
	if len(fields) > 0 {
		r.Extra = fields
	}
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	anns := d.Annotations
	if anns == nil {
		anns = []*Record{}
	}
	var known []field
	if d.Info != nil {
		info, err := marshalObject(nil, d.Info)
		if err != nil {
			return nil, err
		}
		known = append(known, field{"info", json.RawMessage(info)})
	}
	known = append(known, field{"annotations", anns})
	return marshalObject(known, d.Extra)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("while reading annotation document: %w", err)
	}
	*d = Document{Annotations: []*Record{}}
	if raw, ok := fields["info"]; ok {
		var info map[string]json.RawMessage
		if err := json.Unmarshal(raw, &info); err == nil && info != nil {
			d.Info = info
			delete(fields, "info")
		}
	}
	if raw, ok := fields["annotations"]; ok {
		var recs []*Record
		if err := json.Unmarshal(raw, &recs); err != nil {
			return fmt.Errorf("while reading annotations: %w", err)
		}
		for _, rec := range recs {
			if rec != nil {
				d.Annotations = append(d.Annotations, rec)
			}
		}
		delete(fields, "annotations")
	}
	if len(fields) > 0 {
		d.Extra = fields
	}
	return nil
}

type field struct {
	name  string
	value any
}

// marshalObject writes known fields in order, then extra fields sorted by
// name. An extra field wins over a known field of the same name.
func marshalObject(known []field, extra map[string]json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(name string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("while encoding field %q: %w", name, err)
		}
		buf.Write(b)
		return nil
	}
	for _, f := range known {
		if _, shadowed := extra[f.name]; shadowed {
			continue
		}
		if err := write(f.name, f.value); err != nil {
			return nil, err
		}
	}
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := write(name, extra[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
