package annotation

import (
	"context"
	"os"

	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/export"
	"github.com/lewtec/keylabel/internal/pathmatch"
	"github.com/lewtec/keylabel/internal/scan"
	"github.com/lewtec/keylabel/internal/store"
)

// SelectFolder scans folder for images and loads the first one
func (e *Engine) SelectFolder(sideName, folder string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	images, err := scan.Images(os.DirFS(folder), ".")
	if err != nil {
		return e.fail("folder_failed", err, nil)
	}
	s.folder = folder
	s.images = images
	s.index = 0
	s.record = nil
	s.matchedKey = ""
	s.history.Clear()
	s.endDrag()
	e.log.WithField("side", s.name).Infof("SelectFolder: %d images in %s", len(images), folder)

	r := e.info("folder_loaded", map[string]any{"Count": len(images)})
	r.Count = len(images)
	if len(images) == 0 {
		return r
	}
	if loaded := e.loadImage(s, 0); !loaded.OK {
		return loaded
	}
	return r
}

// ImportAnnotations loads a native annotation file into a side. On failure
// the side keeps its previous document.
func (e *Engine) ImportAnnotations(sideName, filename string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	doc, err := export.ReadNativeFile(filename)
	if err != nil {
		return e.fail("import_failed", err, nil)
	}
	if rel := s.currentImage(); rel != "" {
		full, _ := s.paths(rel)
		if _, _, err := e.imageSize(full); err != nil {
			return e.fail("image_failed", err, nil)
		}
	}
	s.store.Load(doc)
	s.annotationFile = filename
	s.cocoFile = export.COCOPath(filename)
	s.unsaved = false
	s.lastSave = e.now()
	e.log.WithField("side", s.name).Infof("ImportAnnotations: %d records from %s", len(doc.Annotations), filename)

	r := e.info("import_done", map[string]any{"Count": len(doc.Annotations)})
	r.Count = len(doc.Annotations)
	if s.currentImage() != "" {
		if loaded := e.loadImage(s, s.index); !loaded.OK {
			s.dropRecord()
			return loaded
		}
	}
	return r
}

// NewDocument starts an empty annotation document on a side. It has no file
// until SaveAs is used.
func (e *Engine) NewDocument(sideName string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	s.store.Load(domain.NewDocument())
	s.annotationFile = ""
	s.cocoFile = ""
	if s.currentImage() != "" {
		if loaded := e.loadImage(s, s.index); !loaded.OK {
			s.dropRecord()
		}
	}
	s.unsaved = true
	return e.info("document_created", nil)
}

// dropRecord detaches the side from a record that no longer belongs to its
// document, so edits are refused until an image loads
func (s *side) dropRecord() {
	s.record = nil
	s.matchedKey = ""
	s.history.Clear()
	s.endDrag()
}

// paths returns the three forms of an image path used for resolution
func (s *side) paths(rel string) (string, store.Query) {
	return ImageQuery(s.folder, rel)
}

// ImageQuery builds the resolution query for an image given relative to
// folder, together with its full path
func ImageQuery(folder, rel string) (full string, q store.Query) {
	full = pathmatch.Join(folder, rel)
	return full, store.Query{
		RelPath:      pathmatch.RelativePath(full, folder),
		MatchPath:    pathmatch.AnnotationMatchPath(full, folder),
		FallbackPath: rel,
	}
}

func (e *Engine) imageSize(full string) (int, int, error) {
	entry, err := CatalogImage(context.Background(), e.catalog, full)
	if err != nil {
		return 0, 0, err
	}
	return entry.Width, entry.Height, nil
}

// loadImage makes images[index] the current image of s and resolves its
// record. The undo history does not survive the switch. On failure nothing
// changes.
func (e *Engine) loadImage(s *side, index int) Result {
	if index < 0 || index >= len(s.images) {
		return e.warn("no_images", nil)
	}
	full, q := s.paths(s.images[index])
	width, height, err := e.imageSize(full)
	if err != nil {
		return e.fail("image_failed", err, nil)
	}
	q.Width, q.Height = width, height
	log := e.log.WithField("side", s.name).WithField("image", q.RelPath)

	var r Result
	if s.store.Loaded() {
		res, err := s.store.ResolveOrCreate(q)
		if err != nil {
			return e.fail("image_failed", err, nil)
		}
		s.record = res.Record
		s.matchedKey = res.Key
		switch {
		case res.Created:
			s.matchedKey = ""
			r = e.info("image_created", nil)
			log.Debug("loadImage: created record")
		case len(res.Record.Keypoints) > 0:
			r = e.info("image_loaded", map[string]any{"Count": len(res.Record.Keypoints)})
			log.WithField("strategy", res.Strategy).Debugf("loadImage: matched %s", res.Key)
		default:
			r = e.info("image_loaded_empty", nil)
			log.WithField("strategy", res.Strategy).Debugf("loadImage: matched %s", res.Key)
		}
	} else {
		image := q.RelPath
		if image == "" {
			image = pathmatch.Normalize(q.FallbackPath)
		}
		s.record = &domain.Record{Image: image, Width: width, Height: height, Keypoints: []domain.Keypoint{}}
		s.matchedKey = ""
		r = e.info("image_temporary", nil)
	}
	s.index = index
	s.history.Clear()
	s.endDrag()
	r.Count = len(s.record.Keypoints)
	return r
}

// CurrentView describes the current image of a side
type CurrentView struct {
	Side   string
	Index  int
	Total  int
	Image  string
	Folder string
	// AnnotationPath is the path the record was stored under when it was matched
	AnnotationPath string
	Width          int
	Height         int
	Keypoints      int
	Unsaved        bool
	CanUndo        bool
	CanRedo        bool
	AnnotationFile string
}

// Current returns the state of a side's current image
func (e *Engine) Current(sideName string) (CurrentView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return CurrentView{}, err
	}
	view := CurrentView{
		Side:           s.name,
		Index:          s.index,
		Total:          len(s.images),
		Folder:         s.folder,
		AnnotationPath: s.matchedKey,
		Unsaved:        s.unsaved,
		CanUndo:        s.history.CanUndo(),
		CanRedo:        s.history.CanRedo(),
		AnnotationFile: s.annotationFile,
	}
	if s.record != nil {
		view.Image = s.record.Image
		view.Width = s.record.Width
		view.Height = s.record.Height
		view.Keypoints = len(s.record.Keypoints)
	}
	return view, nil
}

// KeypointView is one row of a keypoint listing
type KeypointView struct {
	Index      int
	Name       string
	Present    bool
	Plausible  bool
	X          float64
	Y          float64
	Visibility domain.Visibility
	// HasVisibility is false for [x, y] entries
	HasVisibility bool
}

// Keypoints lists the keypoints of a side's current record. Unreadable
// entries are listed as not present; the stored entries are left alone.
func (e *Engine) Keypoints(sideName string) ([]KeypointView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return nil, err
	}
	if s.record == nil {
		return nil, nil
	}
	views := make([]KeypointView, 0, len(s.record.Keypoints))
	for idx, kp := range s.record.Keypoints {
		view := KeypointView{Index: idx, Name: e.skeleton.Name(idx)}
		if point, ok := kp.Coerce(); ok {
			view.Present = true
			view.Plausible = point.Plausible(s.record.Width, s.record.Height)
			view.X, view.Y = point.X, point.Y
			view.Visibility = point.Visibility()
			view.HasVisibility = point.Kind == domain.PointV
		}
		views = append(views, view)
	}
	return views, nil
}

// Images returns the scanned image list of a side
func (e *Engine) Images(sideName string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), s.images...), nil
}

// Progress counts the images of a side whose record has keypoints
func (e *Engine) Progress(sideName string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	annotated := 0
	for _, rel := range s.images {
		_, q := s.paths(rel)
		if s.store.IsAnnotated(q.RelPath, q.MatchPath) {
			annotated++
		}
	}
	percent := 0.0
	if len(s.images) > 0 {
		percent = float64(annotated) / float64(len(s.images)) * 100
	}
	r := e.info("progress", map[string]any{
		"Annotated": annotated,
		"Total":     len(s.images),
		"Percent":   formatFloat(percent, 1),
	})
	r.Count = annotated
	return r
}
