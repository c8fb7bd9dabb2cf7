package export

import (
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-billy/v6"
	"github.com/hashicorp/go-multierror"
	"github.com/lewtec/keylabel/internal/domain"
)

// YOLOLine formats one record as "0 x1 y1 x2 y2 ..." with coordinates divided
// by the image size. Unreadable entries are skipped.
func YOLOLine(rec *domain.Record) string {
	width := float64(rec.Width)
	if width <= 0 {
		width = 1
	}
	height := float64(rec.Height)
	if height <= 0 {
		height = 1
	}
	var sb strings.Builder
	sb.WriteString("0")
	for _, kp := range rec.Keypoints {
		point, ok := kp.Coerce()
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, " %.6f %.6f", point.X/width, point.Y/height)
	}
	return sb.String()
}

// WriteYOLO writes labels/<stem>.txt under outDir for every record with
// keypoints and returns how many files were written. A failing file does not
// stop the others; all failures are returned together.
func WriteYOLO(fs billy.Filesystem, outDir string, doc *domain.Document) (int, error) {
	labelsDir := path.Join(outDir, "labels")
	if err := fs.MkdirAll(labelsDir, 0o755); err != nil {
		return 0, fmt.Errorf("while creating labels folder: %w", err)
	}
	var result *multierror.Error
	exported := 0
	for _, rec := range doc.Annotations {
		if rec.Image == "" || len(rec.Keypoints) == 0 {
			continue
		}
		name := path.Join(labelsDir, Stem(rec.Image)+".txt")
		if err := writeFile(fs, name, []byte(YOLOLine(rec)+"\n")); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		exported++
	}
	return exported, result.ErrorOrNil()
}
