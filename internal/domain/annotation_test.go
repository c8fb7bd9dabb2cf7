package domain

import (
	"encoding/json"
	"testing"
)

func TestDocument_RoundTrip(t *testing.T) {
	input := `{"info":{"description":"test","num_images":1,"num_keypoints":3},` +
		`"annotations":[{"image":"a/b.jpg","width":640,"height":480,` +
		`"keypoints":[[1,2],[3,4,1],null,["5",6],[7,8,9,10]],"scene":"indoor"}],` +
		`"licenses":[]}`

	var doc Document
	if err := json.Unmarshal([]byte(input), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(doc.Annotations) != 1 {
		t.Fatalf("got %d records, want 1", len(doc.Annotations))
	}
	rec := doc.Annotations[0]
	if rec.Image != "a/b.jpg" || rec.Width != 640 || rec.Height != 480 {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Keypoints) != 5 {
		t.Fatalf("got %d keypoints, want 5", len(rec.Keypoints))
	}

	out, err := json.Marshal(&doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"info":{"description":"test","num_images":1,"num_keypoints":3},` +
		`"annotations":[{"image":"a/b.jpg","width":640,"height":480,` +
		`"keypoints":[[1,2],[3,4,1],null,["5",6],[7,8,9,10]],"scene":"indoor"}],` +
		`"licenses":[]}`
	if string(out) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", out, want)
	}
}

func TestDocument_Unmarshal(t *testing.T) {
	t.Run("missing keypoints become an empty list", func(t *testing.T) {
		var doc Document
		if err := json.Unmarshal([]byte(`{"annotations":[{"image":"x.jpg"}]}`), &doc); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if doc.Info != nil {
			t.Error("expected no info")
		}
		kps := doc.Annotations[0].Keypoints
		if kps == nil || len(kps) != 0 {
			t.Errorf("Keypoints = %#v, want empty list", kps)
		}
	})

	t.Run("null records are skipped", func(t *testing.T) {
		var doc Document
		if err := json.Unmarshal([]byte(`{"annotations":[null,{"image":"x.jpg"}]}`), &doc); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if len(doc.Annotations) != 1 {
			t.Errorf("got %d records, want 1", len(doc.Annotations))
		}
	})

	t.Run("fractional size is kept verbatim", func(t *testing.T) {
		var rec Record
		if err := json.Unmarshal([]byte(`{"image":"x.jpg","width":10.5,"height":4}`), &rec); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		out, _ := json.Marshal(&rec)
		want := `{"image":"x.jpg","height":4,"keypoints":[],"width":10.5}`
		if string(out) != want {
			t.Errorf("Marshal() = %s, want %s", out, want)
		}
	})
}

func TestDocument_UpdateCounters(t *testing.T) {
	doc := NewDocument()
	doc.Annotations = append(doc.Annotations,
		&Record{Image: "a.jpg", Keypoints: []Keypoint{NewPoint(1, 1), {}}},
		&Record{Image: "b.jpg", Keypoints: []Keypoint{NewPoint(1, 1), {}, {}}},
	)
	doc.UpdateCounters()
	if got := string(doc.Info["num_images"]); got != "2" {
		t.Errorf("num_images = %v, want 2", got)
	}
	if got := string(doc.Info["num_keypoints"]); got != "3" {
		t.Errorf("num_keypoints = %v, want 3", got)
	}

	noInfo := &Document{Annotations: doc.Annotations}
	noInfo.UpdateCounters()
	if noInfo.Info != nil {
		t.Error("counters must not create an info object")
	}
}

func TestSkeleton_Name(t *testing.T) {
	s := DefaultSkeleton()
	if got := s.Name(20); got != "KP1" {
		t.Errorf("Name(20) = %v, want KP1", got)
	}
	if len(s.Pairs) != 17 {
		t.Errorf("got %d pairs, want 17", len(s.Pairs))
	}
}
