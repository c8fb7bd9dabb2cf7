package store

import (
	"testing"

	"github.com/lewtec/keylabel/internal/domain"
)

func testDocument(images ...string) *domain.Document {
	doc := domain.NewDocument()
	for _, image := range images {
		doc.Annotations = append(doc.Annotations, &domain.Record{
			Image:     image,
			Width:     100,
			Height:    100,
			Keypoints: []domain.Keypoint{domain.NewPointV(10, 20, domain.Visible)},
		})
	}
	return doc
}

func TestStore_Load(t *testing.T) {
	t.Run("indexes paths and filenames", func(t *testing.T) {
		s := New()
		s.Load(testDocument(`cam1\f1.jpg`, "cam2/f1.jpg"))

		first, ok := s.Index().Get("cam1/f1.jpg")
		if !ok {
			t.Fatal("expected normalized path to be indexed")
		}
		byName, ok := s.Index().Get("f1.jpg")
		if !ok {
			t.Fatal("expected filename to be indexed")
		}
		if byName != first {
			t.Error("first loaded record should win the filename key")
		}
		if s.Index().Len() != 3 {
			t.Errorf("Len() = %v, want 3", s.Index().Len())
		}
	})

	t.Run("skips records without image", func(t *testing.T) {
		s := New()
		s.Load(testDocument(""))
		if s.Index().Len() != 0 {
			t.Errorf("Len() = %v, want 0", s.Index().Len())
		}
	})
}

func TestStore_Resolve(t *testing.T) {
	t.Run("exact structural match beats filename", func(t *testing.T) {
		s := New()
		s.Load(testDocument("left/f1.jpg", "right/f1.jpg"))

		res, ok := s.Resolve(Query{RelPath: "f1.jpg", MatchPath: "right/f1.jpg"})
		if !ok {
			t.Fatal("expected a match")
		}
		if res.Strategy != "match-path" {
			t.Errorf("Strategy = %v, want match-path", res.Strategy)
		}
		if res.Record != s.Document().Annotations[1] {
			t.Error("resolved the wrong record")
		}
	})

	t.Run("relative path match", func(t *testing.T) {
		s := New()
		s.Load(testDocument("cam1/f1.jpg"))
		res, ok := s.Resolve(Query{RelPath: "cam1/f1.jpg", MatchPath: "DL/cam1/f1.jpg"})
		if !ok || res.Strategy != "relative-path" {
			t.Errorf("Strategy = %v, want relative-path", res.Strategy)
		}
	})

	t.Run("filename match reports stored path", func(t *testing.T) {
		s := New()
		s.Load(testDocument("b/frame_1.jpg"))
		res, ok := s.Resolve(Query{RelPath: "a/b/frame_1.jpg", MatchPath: "a/b/frame_1.jpg"})
		if !ok {
			t.Fatal("expected a match")
		}
		if res.Strategy != "filename" {
			t.Errorf("Strategy = %v, want filename", res.Strategy)
		}
		if res.Key != "b/frame_1.jpg" {
			t.Errorf("Key = %v, want b/frame_1.jpg", res.Key)
		}
	})

	t.Run("fuzzy strategies run in order", func(t *testing.T) {
		s := New()
		s.Load(testDocument("frames/x/f1.jpg"))
		key, rec, ok := FuzzyMatchPath(s.Index(), Query{MatchPath: "DL/frames/x/f1.jpg"})
		if !ok || rec == nil {
			t.Fatal("expected fuzzy match")
		}
		if key != "frames/x/f1.jpg" {
			t.Errorf("key = %v, want frames/x/f1.jpg", key)
		}
		if _, _, ok := FuzzyRelPath(s.Index(), Query{}); ok {
			t.Error("empty path should never match")
		}
	})

	t.Run("no document", func(t *testing.T) {
		if _, ok := New().Resolve(Query{RelPath: "a.jpg"}); ok {
			t.Error("expected no match without a document")
		}
	})
}

func TestStore_ResolveOrCreate(t *testing.T) {
	t.Run("migrates the stored path on access", func(t *testing.T) {
		s := New()
		s.Load(testDocument("b/frame_1.jpg"))

		res, err := s.ResolveOrCreate(Query{RelPath: "a/b/frame_1.jpg"})
		if err != nil {
			t.Fatalf("ResolveOrCreate() error = %v", err)
		}
		if res.Created {
			t.Error("should not have created a record")
		}
		if res.Record.Image != "a/b/frame_1.jpg" {
			t.Errorf("Image = %v, want a/b/frame_1.jpg", res.Record.Image)
		}
		kp := res.Record.Keypoints[0]
		if kp.Kind != domain.PointV || kp.X != 10 || kp.Y != 20 || kp.V != domain.Visible {
			t.Errorf("keypoint = %+v, want visible (10, 20)", kp)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		s := New()
		s.Load(domain.NewDocument())
		q := Query{RelPath: "cam/new.jpg", Width: 640, Height: 480}

		first, err := s.ResolveOrCreate(q)
		if err != nil {
			t.Fatalf("ResolveOrCreate() error = %v", err)
		}
		second, err := s.ResolveOrCreate(q)
		if err != nil {
			t.Fatalf("ResolveOrCreate() error = %v", err)
		}
		if !first.Created || second.Created {
			t.Errorf("Created = %v/%v, want true/false", first.Created, second.Created)
		}
		if first.Record != second.Record {
			t.Error("expected the same record twice")
		}
		if n := len(s.Document().Annotations); n != 1 {
			t.Errorf("got %d records, want 1", n)
		}
		if first.Record.Width != 640 || first.Record.Height != 480 {
			t.Errorf("size = %dx%d, want 640x480", first.Record.Width, first.Record.Height)
		}
	})

	t.Run("uses fallback path when relative path is unknown", func(t *testing.T) {
		s := New()
		s.Load(domain.NewDocument())
		res, err := s.ResolveOrCreate(Query{FallbackPath: `x\y.png`})
		if err != nil {
			t.Fatalf("ResolveOrCreate() error = %v", err)
		}
		if res.Record.Image != "x/y.png" {
			t.Errorf("Image = %v, want x/y.png", res.Record.Image)
		}
	})

	t.Run("fails without document", func(t *testing.T) {
		if _, err := New().ResolveOrCreate(Query{RelPath: "a.jpg"}); err != ErrNoDocument {
			t.Errorf("error = %v, want %v", err, ErrNoDocument)
		}
	})
}

func TestStore_IsAnnotated(t *testing.T) {
	s := New()
	doc := testDocument("a/one.jpg")
	doc.Annotations = append(doc.Annotations,
		&domain.Record{Image: "a/two.jpg", Keypoints: []domain.Keypoint{{}}},
		&domain.Record{Image: "a/three.jpg", Keypoints: []domain.Keypoint{}},
	)
	s.Load(doc)

	tests := []struct {
		path string
		want bool
	}{
		{"a/one.jpg", true},
		{"elsewhere/one.jpg", true},
		{"a/two.jpg", true},
		{"a/three.jpg", false},
		{"a/missing.jpg", false},
	}
	for _, tt := range tests {
		if got := s.IsAnnotated(tt.path, ""); got != tt.want {
			t.Errorf("IsAnnotated(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
