package export

import (
	"math"

	"github.com/go-git/go-billy/v6"
	"github.com/lewtec/keylabel/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// DefaultPadding is the bbox margin added on each side of the keypoints
const DefaultPadding = 10

// COCOOptions controls the category and bbox of a COCO export
type COCOOptions struct {
	Skeleton domain.Skeleton
	// Padding is added around the keypoint extent before clamping to the image
	Padding float64
	// OneBasedSkeleton shifts skeleton pairs by one, as the COCO keypoint tools expect
	OneBasedSkeleton bool
	// CategoryName defaults to "person"
	CategoryName string
}

type COCO struct {
	Info        COCOInfo         `json:"info"`
	Licenses    []any            `json:"licenses"`
	Images      []COCOImage      `json:"images"`
	Annotations []COCOAnnotation `json:"annotations"`
	Categories  []COCOCategory   `json:"categories"`
}

type COCOInfo struct {
	Description string `json:"description"`
	Version     string `json:"version"`
	Year        int    `json:"year"`
}

type COCOImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type COCOAnnotation struct {
	ID           int        `json:"id"`
	ImageID      int        `json:"image_id"`
	CategoryID   int        `json:"category_id"`
	Keypoints    []float64  `json:"keypoints"`
	NumKeypoints int        `json:"num_keypoints"`
	BBox         [4]float64 `json:"bbox"`
	Area         float64    `json:"area"`
	IsCrowd      int        `json:"iscrowd"`
}

type COCOCategory struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Supercategory string   `json:"supercategory"`
	Keypoints     []string `json:"keypoints"`
	Skeleton      [][2]int `json:"skeleton"`
}

// BuildCOCO converts a document to a COCO keypoint dataset. Images get ids
// in first-seen order of their path. Only records with at least one readable
// keypoint produce an annotation, and absent or unreadable entries are left
// out of the flattened keypoint array.
func BuildCOCO(doc *domain.Document, opts COCOOptions) *COCO {
	category := opts.CategoryName
	if category == "" {
		category = "person"
	}
	skeleton := make([][2]int, 0, len(opts.Skeleton.Pairs))
	for _, pair := range opts.Skeleton.Pairs {
		if opts.OneBasedSkeleton {
			pair = [2]int{pair[0] + 1, pair[1] + 1}
		}
		skeleton = append(skeleton, pair)
	}
	names := opts.Skeleton.Names
	if names == nil {
		names = []string{}
	}
	out := &COCO{
		Info: COCOInfo{
			Description: "Exported from keylabel",
			Version:     "1.0",
			Year:        2024,
		},
		Licenses:    []any{},
		Images:      []COCOImage{},
		Annotations: []COCOAnnotation{},
		Categories: []COCOCategory{{
			ID:            1,
			Name:          category,
			Supercategory: category,
			Keypoints:     names,
			Skeleton:      skeleton,
		}},
	}

	imageIDs := map[string]int{}
	for _, rec := range doc.Annotations {
		if rec.Image == "" {
			continue
		}
		imageID, ok := imageIDs[rec.Image]
		if !ok {
			imageID = len(out.Images) + 1
			imageIDs[rec.Image] = imageID
			out.Images = append(out.Images, COCOImage{
				ID:       imageID,
				FileName: rec.Image,
				Width:    rec.Width,
				Height:   rec.Height,
			})
		}

		var flat []float64
		var xs, ys []float64
		for _, kp := range rec.Keypoints {
			point, ok := kp.Coerce()
			if !ok {
				continue
			}
			v := point.Visibility()
			if !v.Valid() {
				v = domain.Visible
			}
			flat = append(flat, point.X, point.Y, float64(v))
			xs = append(xs, point.X)
			ys = append(ys, point.Y)
		}
		if len(flat) == 0 {
			continue
		}
		bbox := paddedBox(xs, ys, opts.Padding, rec.Width, rec.Height)
		out.Annotations = append(out.Annotations, COCOAnnotation{
			ID:           len(out.Annotations) + 1,
			ImageID:      imageID,
			CategoryID:   1,
			Keypoints:    flat,
			NumKeypoints: len(xs),
			BBox:         bbox,
			Area:         bbox[2] * bbox[3],
		})
	}
	return out
}

// WriteCOCO builds and writes a COCO file
func WriteCOCO(fs billy.Filesystem, name string, doc *domain.Document, opts COCOOptions) (*COCO, error) {
	coco := BuildCOCO(doc, opts)
	if err := WriteJSON(fs, name, coco); err != nil {
		return nil, err
	}
	return coco, nil
}

// paddedBox returns [x, y, w, h] around the points, grown by padding and
// clamped to the image when its size is known
func paddedBox(xs, ys []float64, padding float64, width, height int) [4]float64 {
	xMin, xMax := floats.Min(xs), floats.Max(xs)
	yMin, yMax := floats.Min(ys), floats.Max(ys)
	x := math.Max(0, xMin-padding)
	y := math.Max(0, yMin-padding)
	w := xMax - xMin + 2*padding
	h := yMax - yMin + 2*padding
	if width > 0 {
		w = math.Min(float64(width)-x, w)
	}
	if height > 0 {
		h = math.Min(float64(height)-y, h)
	}
	return [4]float64{x, y, w, h}
}
