package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/export"
	"github.com/sirupsen/logrus"
)

// executeCommand runs a fresh command tree with stdin and captures its output
func executeCommand(stdin string, args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	defer logrus.SetOutput(os.Stderr)

	rootCmd := newRootCmd()
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// setupProject creates images/f1.png, images/sub/f2.png and an annotation
// file with a record for f1.png
func setupProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for _, name := range []string{"f1.png", "sub/f2.png"} {
		full := filepath.Join(dir, "images", filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		f, err := os.Create(full)
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	annFile := filepath.Join(dir, "ann.json")
	content := `{"info":{"description":"test"},"annotations":[{"image":"old/place/f1.png","width":64,"height":48,"keypoints":[[1,2,2],null,[3,4,1]]}]}`
	if err := os.WriteFile(annFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, annFile
}

func TestRootCmd(t *testing.T) {
	t.Run("invalid log level", func(t *testing.T) {
		_, _, err := executeCommand("", "config", "--log-level", "loud")
		if err == nil || !strings.Contains(err.Error(), "invalid log level") {
			t.Errorf("expected a log level error, got %v", err)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		_, _, err := executeCommand("", "config", "-c", "/path/to/nothing.yaml")
		if err == nil || !strings.Contains(err.Error(), "failed to load config") {
			t.Errorf("expected a config error, got %v", err)
		}
	})
}

func TestConfigCmd(t *testing.T) {
	out, _, err := executeCommand("", "config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "capacity: 50") || !strings.Contains(out, "interval: 30s") {
		t.Errorf("unexpected config output: %s", out)
	}

	target := filepath.Join(t.TempDir(), "config.yaml")
	if _, _, err := executeCommand("", "config", "--write", target, "--lang", "pt-BR"); err != nil {
		t.Fatal(err)
	}
	out, _, err = executeCommand("", "config", "-c", target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "language: pt-BR") {
		t.Errorf("written config was not read back: %s", out)
	}
	if _, _, err := executeCommand("", "config", "--write", target); err == nil {
		t.Error("expected an error when the config file exists")
	}
}

func TestScanCmd(t *testing.T) {
	dir, annFile := setupProject(t)
	images := filepath.Join(dir, "images")

	t.Run("annotation status", func(t *testing.T) {
		out, _, err := executeCommand("", "scan", images, "-a", annFile)
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"f1.png\tyes", "sub/f2.png\tno", "2 images, 1 annotated"} {
			if !strings.Contains(out, want) {
				t.Errorf("output does not contain %q: %s", want, out)
			}
		}
	})

	t.Run("catalog reports duplicates", func(t *testing.T) {
		catalog := filepath.Join(dir, "catalog.db")
		out, errOut, err := executeCommand("", "scan", images, "--catalog", catalog, "--progress=false")
		if err != nil {
			t.Fatalf("scan failed: %v, output: %s", err, errOut)
		}
		if !strings.Contains(out, "duplicate ") {
			t.Errorf("expected the identical images to be reported: %s", out)
		}
		if !strings.Contains(errOut, "Scan: cataloged 2 images") {
			t.Errorf("expected the catalog log line, got: %s", errOut)
		}
		if _, err := os.Stat(catalog); err != nil {
			t.Errorf("catalog was not created: %v", err)
		}

		if err := os.Remove(filepath.Join(images, "sub", "f2.png")); err != nil {
			t.Fatal(err)
		}
		out, errOut, err = executeCommand("", "scan", images, "--catalog", catalog, "--progress=false", "--prune")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(errOut, "pruned 1 catalog entries") {
			t.Errorf("expected one pruned entry, got: %s", errOut)
		}
		if strings.Contains(out, "duplicate ") {
			t.Errorf("no duplicates expected after pruning: %s", out)
		}
	})
}

func TestResolveCmd(t *testing.T) {
	dir, annFile := setupProject(t)
	out, _, err := executeCommand("", "resolve", filepath.Join(dir, "images"), "-a", annFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "f1.png\tmatch-path\told/place/f1.png") {
		t.Errorf("f1.png should resolve through its filename key: %s", out)
	}
	if !strings.Contains(out, "sub/f2.png\tnew") {
		t.Errorf("f2.png should be new: %s", out)
	}
	if !strings.Contains(out, "1 of 2 images matched") {
		t.Errorf("missing summary: %s", out)
	}

	if _, _, err := executeCommand("", "resolve", dir); err == nil {
		t.Error("expected an error without --annotations")
	}
}

func TestExportCmd(t *testing.T) {
	dir, annFile := setupProject(t)

	t.Run("coco", func(t *testing.T) {
		output := filepath.Join(dir, "coco.json")
		out, _, err := executeCommand("", "export", "-a", annFile, "-f", "coco", "-o", output)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "exported 1") {
			t.Errorf("unexpected output: %s", out)
		}
		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"num_keypoints": 2`) {
			t.Errorf("COCO output lacks num_keypoints 2: %s", data)
		}
	})

	t.Run("stats over a folder", func(t *testing.T) {
		output := filepath.Join(dir, "stats.json")
		if _, _, err := executeCommand("", "export", filepath.Join(dir, "images"), "-a", annFile, "-f", "stats-json", "-o", output); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"total_images": 2`) {
			t.Errorf("stats should count the folder images: %s", data)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := executeCommand("", "export", "-a", annFile, "-f", "tiff", "-o", filepath.Join(dir, "x"))
		if err == nil || !strings.Contains(err.Error(), "unknown export format") {
			t.Errorf("expected an unknown format error, got %v", err)
		}
	})
}

func TestSessionCmd(t *testing.T) {
	dir, annFile := setupProject(t)
	images := filepath.Join(dir, "images")

	t.Run("edit and save in coco mode", func(t *testing.T) {
		commands := strings.Join([]string{
			"next",
			"add 5 5",
			"add 15 15",
			"format coco",
			"show",
			"bogus",
			"save",
			"quit",
			"add 1 1",
		}, "\n")
		out, errOut, err := executeCommand(commands, "session", "-i", images, "-a", annFile)
		if err != nil {
			t.Fatalf("session failed: %v, output: %s", err, errOut)
		}
		for _, want := range []string{"Image: 2/2", "Added keypoint 1 (KP1)", "15, 15 Visible", `unknown command "bogus"`, "Saved to both files"} {
			if !strings.Contains(out, want) {
				t.Errorf("output does not contain %q: %s", want, out)
			}
		}

		doc, err := export.ReadNativeFile(annFile)
		if err != nil {
			t.Fatal(err)
		}
		if len(doc.Annotations) != 2 {
			t.Fatalf("records = %d, want 2", len(doc.Annotations))
		}
		rec := doc.Annotations[1]
		if rec.Image != "sub/f2.png" || len(rec.Keypoints) != 2 {
			t.Fatalf("record = %+v, want sub/f2.png with 2 keypoints", rec)
		}
		if rec.Keypoints[1].Kind != domain.PointV || rec.Keypoints[1].V != domain.Visible {
			t.Errorf("keypoint = %+v, want visible", rec.Keypoints[1])
		}
		if doc.Annotations[0].Image != "f1.png" {
			t.Errorf("first record image = %q, want the migrated path", doc.Annotations[0].Image)
		}
		if _, err := os.Stat(filepath.Join(dir, "ann_coco.json")); err != nil {
			t.Errorf("COCO companion file missing: %v", err)
		}
	})

	t.Run("dual view", func(t *testing.T) {
		commands := "sync\nside right\nadd 1 1\ncopy-prev-all\nprogress\n"
		out, _, err := executeCommand(commands, "session", "-i", images, "--right-images", images, "--lang", "pt-BR")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "f1.png") {
			t.Errorf("sync should report the common file name: %s", out)
		}
		if !strings.Contains(out, "right") {
			t.Errorf("expected the active side message: %s", out)
		}
		if !strings.Contains(out, "Não há quadro anterior") {
			t.Errorf("copy-prev-all on the first images should warn: %s", out)
		}
	})

	t.Run("requires images", func(t *testing.T) {
		if _, _, err := executeCommand("", "session"); err == nil {
			t.Error("expected an error without --images")
		}
	})
}
