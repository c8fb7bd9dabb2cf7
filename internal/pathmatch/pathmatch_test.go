package pathmatch

import (
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	if got := Normalize(`DL\frames\cam1\f1.jpg`); got != "DL/frames/cam1/f1.jpg" {
		t.Errorf("Normalize() = %v, want %v", got, "DL/frames/cam1/f1.jpg")
	}
	if got := Normalize(""); got != "" {
		t.Errorf("Normalize(\"\") = %q, want empty", got)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		img  string
		ann  string
		want bool
	}{
		{"exact", "a/b/f1.jpg", "a/b/f1.jpg", true},
		{"separators", `a\b\f1.jpg`, "a/b/f1.jpg", true},
		{"same base name", "x/f1.jpg", "y/f1.jpg", true},
		{"annotation is suffix", "DL/frames/x/f1.jpg", "frames/x/f1.jpg", true},
		{"image is suffix", "frames/x/f1.jpg", "DL/frames/x/f1.jpg", true},
		{"different files", "a/f1.jpg", "a/f2.jpg", false},
		{"empty image", "", "a/f1.jpg", false},
		{"empty annotation", "a/f1.jpg", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.img, tt.ann); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.img, tt.ann, got, tt.want)
			}
			if got := Match(tt.ann, tt.img); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v (reversed)", tt.ann, tt.img, got, tt.want)
			}
		})
	}
}

func TestRules(t *testing.T) {
	t.Run("suffix does not need a segment boundary", func(t *testing.T) {
		if !SuffixOf("xframe_1.jpg", "frame_1.jpg") {
			t.Error("SuffixOf should match plain string suffixes")
		}
	})

	t.Run("segment suffix aligns trailing segments", func(t *testing.T) {
		if !SegmentSuffix("DL/frames/gsp3/frame_2.jpg", "other/frames/gsp3/frame_2.jpg") {
			t.Error("SegmentSuffix should match shared trailing segments")
		}
		if SegmentSuffix("a/frame_2.jpg", "a/frame_3.jpg") {
			t.Error("SegmentSuffix should not match different file names")
		}
	})

	t.Run("same base ignores folders", func(t *testing.T) {
		if !SameBase("left/f.png", "right/f.png") {
			t.Error("SameBase should match equal base names")
		}
	})
}

func TestBaseImagesDir(t *testing.T) {
	folder := filepath.FromSlash("/data/images/DL/frames/cam1")
	want := filepath.FromSlash("/data/images")
	if got := BaseImagesDir(folder); got != want {
		t.Errorf("BaseImagesDir() = %v, want %v", got, want)
	}

	plain := filepath.FromSlash("/data/pictures/cam1")
	if got := BaseImagesDir(plain); got != plain {
		t.Errorf("BaseImagesDir() = %v, want %v", got, plain)
	}
}

func TestAnnotationMatchPath(t *testing.T) {
	folder := filepath.FromSlash("/data/images/DL/frames/cam1")
	full := filepath.Join(folder, "frame_000002.jpg")

	if got := AnnotationMatchPath(full, folder); got != "DL/frames/cam1/frame_000002.jpg" {
		t.Errorf("AnnotationMatchPath() = %v, want %v", got, "DL/frames/cam1/frame_000002.jpg")
	}
	if got := RelativePath(full, folder); got != "frame_000002.jpg" {
		t.Errorf("RelativePath() = %v, want %v", got, "frame_000002.jpg")
	}
}
