package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"

	"github.com/go-git/go-billy/v6"
	"github.com/hashicorp/go-multierror"
	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/pathmatch"
)

type vocAnnotation struct {
	XMLName   xml.Name  `xml:"annotation"`
	Folder    string    `xml:"folder"`
	Filename  string    `xml:"filename"`
	Path      string    `xml:"path"`
	Database  string    `xml:"source>database"`
	Width     int       `xml:"size>width"`
	Height    int       `xml:"size>height"`
	Depth     int       `xml:"size>depth"`
	Segmented int       `xml:"segmented"`
	Object    vocObject `xml:"object"`
}

type vocObject struct {
	Name      string        `xml:"name"`
	Pose      string        `xml:"pose"`
	Truncated int           `xml:"truncated"`
	Difficult int           `xml:"difficult"`
	Keypoints []vocKeypoint `xml:"keypoints>keypoint"`
}

type vocKeypoint struct {
	Name       string `xml:"name,attr"`
	X          string `xml:"x,attr"`
	Y          string `xml:"y,attr"`
	Visibility string `xml:"visibility,attr"`
}

// VOCDocument renders one record as a Pascal VOC annotation. Keypoint names
// come from the skeleton by id, wrapping around when there are more ids than names.
func VOCDocument(rec *domain.Record, skeleton domain.Skeleton) ([]byte, error) {
	ann := vocAnnotation{
		Folder:   pathmatch.ImagesDirName,
		Filename: pathmatch.Base(rec.Image),
		Path:     rec.Image,
		Database: "Keypoint Labeler",
		Width:    rec.Width,
		Height:   rec.Height,
		Depth:    3,
		Object: vocObject{
			Name: "person",
			Pose: "Unspecified",
		},
	}
	for idx, kp := range rec.Keypoints {
		point, ok := kp.Coerce()
		if !ok {
			continue
		}
		ann.Object.Keypoints = append(ann.Object.Keypoints, vocKeypoint{
			Name:       skeleton.Name(idx),
			X:          fmt.Sprintf("%.2f", point.X),
			Y:          fmt.Sprintf("%.2f", point.Y),
			Visibility: point.Visibility().String(),
		})
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "    ")
	if err := enc.Encode(ann); err != nil {
		return nil, fmt.Errorf("while encoding VOC annotation for %s: %w", rec.Image, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteVOC writes annotations/<stem>.xml under outDir for every record with
// keypoints and returns how many files were written
func WriteVOC(fs billy.Filesystem, outDir string, doc *domain.Document, skeleton domain.Skeleton) (int, error) {
	annotationsDir := path.Join(outDir, "annotations")
	if err := fs.MkdirAll(annotationsDir, 0o755); err != nil {
		return 0, fmt.Errorf("while creating annotations folder: %w", err)
	}
	var result *multierror.Error
	exported := 0
	for _, rec := range doc.Annotations {
		if rec.Image == "" || len(rec.Keypoints) == 0 {
			continue
		}
		data, err := VOCDocument(rec, skeleton)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		name := path.Join(annotationsDir, Stem(rec.Image)+".xml")
		if err := writeFile(fs, name, data); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		exported++
	}
	return exported, result.ErrorOrNil()
}
