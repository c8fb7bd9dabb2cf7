package domain

import (
	"encoding/json"
	"testing"
)

func TestKeypoint_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		x, y  float64
		v     Visibility
	}{
		{"null", Absent, 0, 0, 0},
		{"[10, 20]", Point, 10, 20, 0},
		{"[10.5, 20.25, 1]", PointV, 10.5, 20.25, Occluded},
		{"[10, 20, 2.0]", PointV, 10, 20, Visible},
		{"[10, 20, 1.5]", Malformed, 0, 0, 0},
		{`["10", 20]`, Malformed, 0, 0, 0},
		{"[1, 2, 3, 4]", Malformed, 0, 0, 0},
		{"[1]", Malformed, 0, 0, 0},
		{`{"x": 1}`, Malformed, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var kp Keypoint
			if err := json.Unmarshal([]byte(tt.input), &kp); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if kp.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", kp.Kind, tt.kind)
			}
			if kp.X != tt.x || kp.Y != tt.y || kp.V != tt.v {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", kp.X, kp.Y, kp.V, tt.x, tt.y, tt.v)
			}
		})
	}
}

func TestKeypoint_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		kp   Keypoint
		want string
	}{
		{"absent", Keypoint{}, "null"},
		{"point", NewPoint(1.5, 2), "[1.5,2]"},
		{"point with visibility", NewPointV(3, 4, Occluded), "[3,4,1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.kp)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("malformed entries are written verbatim", func(t *testing.T) {
		var kp Keypoint
		if err := json.Unmarshal([]byte(`["7","8",2,"x"]`), &kp); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		got, _ := json.Marshal(kp)
		if string(got) != `["7","8",2,"x"]` {
			t.Errorf("Marshal() = %s", got)
		}
	})
}

func TestKeypoint_Coerce(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
		kind  Kind
		v     Visibility
	}{
		{"[10, 20]", true, Point, 0},
		{"[10, 20, 1]", true, PointV, Occluded},
		{`["10", " 20 "]`, true, Point, 0},
		{`[10, 20, 2, "extra"]`, true, PointV, Visible},
		{"[-1, 20]", false, Absent, 0},
		{`["a", 20]`, false, Absent, 0},
		{"null", false, Absent, 0},
		{`{"x": 1}`, false, Absent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var kp Keypoint
			if err := json.Unmarshal([]byte(tt.input), &kp); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			got, ok := kp.Coerce()
			if ok != tt.ok {
				t.Fatalf("Coerce() ok = %v, want %v", ok, tt.ok)
			}
			if ok && (got.Kind != tt.kind || got.V != tt.v) {
				t.Errorf("Coerce() = %+v, want kind %v v %v", got, tt.kind, tt.v)
			}
		})
	}
}

func TestKeypoint_Plausible(t *testing.T) {
	kp := NewPoint(5000, 10)
	if kp.Plausible(100, 100) {
		t.Error("expected 5000 to be implausible for a 100px image")
	}
	if !kp.Plausible(0, 0) {
		t.Error("unknown dimensions should not be checked")
	}
	if !NewPoint(999, 999).Plausible(100, 100) {
		t.Error("expected 999 to be plausible for a 100px image")
	}
}

func TestKeypoint_Visibility(t *testing.T) {
	if got := NewPoint(1, 1).Visibility(); got != Visible {
		t.Errorf("Visibility() = %v, want %v", got, Visible)
	}
	if got := NewPointV(1, 1, NotLabeled).Visibility(); got != NotLabeled {
		t.Errorf("Visibility() = %v, want %v", got, NotLabeled)
	}
	if Visibility(3).Valid() {
		t.Error("3 should not be a valid visibility")
	}
	if got := Occluded.String(); got != "occluded" {
		t.Errorf("String() = %v, want occluded", got)
	}
}

func TestCloneKeypoints(t *testing.T) {
	original := []Keypoint{NewPoint(1, 2), {}}
	clone := CloneKeypoints(original)
	clone[0].X = 99
	if original[0].X != 1 {
		t.Error("clone shares storage with the original")
	}
	if !EqualKeypoints(original[1:], clone[1:]) {
		t.Error("expected absent entries to compare equal")
	}
	if CloneKeypoints(nil) != nil {
		t.Error("nil should stay nil")
	}
}
