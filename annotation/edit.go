package annotation

import (
	"math"
	"strconv"

	"github.com/lewtec/keylabel/internal/domain"
)

// FindNearest returns the index of the present keypoint closest to (x, y)
// when its distance is strictly below threshold, or -1. Ties keep the lowest index.
func FindNearest(kps []domain.Keypoint, x, y, threshold float64) int {
	nearest := -1
	best := math.Inf(1)
	for idx, kp := range kps {
		point, ok := kp.Coerce()
		if !ok {
			continue
		}
		dist := math.Hypot(x-point.X, y-point.Y)
		if dist < best && dist < threshold {
			best = dist
			nearest = idx
		}
	}
	return nearest
}

// editable returns the side and its current record, or a warning result
func (e *Engine) editable(sideName string) (*side, *Result) {
	s, err := e.side(sideName)
	if err != nil {
		r := e.noSide(sideName)
		return nil, &r
	}
	if s.record == nil {
		r := e.warn("no_image", nil)
		return nil, &r
	}
	return s, nil
}

func (e *Engine) snapshot(s *side) {
	s.history.Snapshot(s.record.Keypoints)
}

func (e *Engine) changed(s *side) {
	s.unsaved = true
}

// PointerDown handles a press at image coordinates according to the mode
func (e *Engine) PointerDown(sideName string, x, y float64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	switch e.mode {
	case ModeAdd:
		return e.add(s, x, y)
	case ModeDelete:
		idx := FindNearest(s.record.Keypoints, x, y, e.cfg.Thresholds.Edit)
		if idx < 0 {
			return e.warn("keypoint_none_near", coords(x, y))
		}
		return e.deleteAt(s, idx)
	default:
		s.dragging = false
		s.selected = FindNearest(s.record.Keypoints, x, y, e.cfg.Thresholds.Edit)
		if s.selected < 0 {
			return e.warn("keypoint_none_near", coords(x, y))
		}
		r := e.info("keypoint_selected", map[string]any{"Index": s.selected, "Name": e.skeleton.Name(s.selected)})
		r.Count = 1
		return r
	}
}

// PointerDrag moves the keypoint selected by PointerDown. The undo snapshot
// is taken once, on the first drag event of the gesture.
func (e *Engine) PointerDrag(sideName string, x, y float64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	if e.mode != ModeMove || s.selected < 0 || s.selected >= len(s.record.Keypoints) {
		return Result{Level: LevelInfo}
	}
	if !s.dragging {
		e.snapshot(s)
		s.dragging = true
	}
	moveKeypoint(s.record.Keypoints, s.selected, x, y)
	e.changed(s)
	return Result{OK: true, Level: LevelInfo, Count: 1}
}

// PointerUp ends a drag gesture
func (e *Engine) PointerUp(sideName string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	dragged := s.dragging
	s.endDrag()
	if dragged {
		return e.info("drag_done", nil)
	}
	return Result{OK: true, Level: LevelInfo}
}

// Hover reports the keypoint under the pointer using the hover threshold
func (e *Engine) Hover(sideName string, x, y float64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	idx := FindNearest(s.record.Keypoints, x, y, e.cfg.Thresholds.Hover)
	if idx < 0 {
		return Result{Level: LevelInfo}
	}
	point, _ := s.record.Keypoints[idx].Coerce()
	r := e.info("keypoint_hover", map[string]any{
		"Index":      idx,
		"Name":       e.skeleton.Name(idx),
		"Visibility": point.Visibility().Label(),
	})
	r.Count = 1
	return r
}

// Add appends a keypoint; in COCO mode it gets the default visibility
func (e *Engine) Add(sideName string, x, y float64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	return e.add(s, x, y)
}

func (e *Engine) add(s *side, x, y float64) Result {
	e.snapshot(s)
	kp := domain.NewPoint(x, y)
	if e.format == FormatCOCO {
		kp = domain.NewPointV(x, y, e.defaultV)
	}
	s.record.Keypoints = append(s.record.Keypoints, kp)
	e.changed(s)
	idx := len(s.record.Keypoints) - 1
	r := e.info("keypoint_added", map[string]any{"Index": idx, "Name": e.skeleton.Name(idx)})
	r.Count = 1
	return r
}

// DeleteAt removes the keypoint at idx. Every later keypoint shifts down by
// one, which changes its id and therefore its name.
func (e *Engine) DeleteAt(sideName string, idx int) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	if idx < 0 || idx >= len(s.record.Keypoints) {
		return e.warn("keypoint_invalid_index", map[string]any{"Index": idx})
	}
	return e.deleteAt(s, idx)
}

func (e *Engine) deleteAt(s *side, idx int) Result {
	e.snapshot(s)
	kps := s.record.Keypoints
	s.record.Keypoints = append(kps[:idx:idx], kps[idx+1:]...)
	s.selected = -1
	e.changed(s)
	r := e.info("keypoint_deleted", map[string]any{"Index": idx})
	r.Count = 1
	return r
}

// Move places the keypoint at idx on new coordinates, keeping its visibility.
// It is one undoable step.
func (e *Engine) Move(sideName string, idx int, x, y float64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	if idx < 0 || idx >= len(s.record.Keypoints) {
		return e.warn("keypoint_invalid_index", map[string]any{"Index": idx})
	}
	if _, ok := s.record.Keypoints[idx].Coerce(); !ok {
		return e.warn("keypoint_invalid_index", map[string]any{"Index": idx})
	}
	e.snapshot(s)
	moveKeypoint(s.record.Keypoints, idx, x, y)
	e.changed(s)
	r := e.info("keypoint_moved", map[string]any{"Index": idx})
	r.Count = 1
	return r
}

func moveKeypoint(kps []domain.Keypoint, idx int, x, y float64) {
	kp := kps[idx]
	if kp.Kind == domain.PointV {
		kps[idx] = domain.NewPointV(x, y, kp.V)
		return
	}
	if kp.Kind == domain.Malformed {
		if point, ok := kp.Coerce(); ok && point.Kind == domain.PointV {
			kps[idx] = domain.NewPointV(x, y, point.V)
			return
		}
	}
	kps[idx] = domain.NewPoint(x, y)
}

// SetVisibility changes the visibility of a present keypoint. It only
// applies in COCO mode, and the target is checked before anything is recorded.
func (e *Engine) SetVisibility(sideName string, idx int, v domain.Visibility) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	if e.format != FormatCOCO {
		return e.warn("visibility_coco_only", nil)
	}
	if !v.Valid() {
		return e.warn("visibility_invalid", nil)
	}
	if idx < 0 || idx >= len(s.record.Keypoints) {
		return e.warn("keypoint_invalid_index", map[string]any{"Index": idx})
	}
	point, ok := s.record.Keypoints[idx].Coerce()
	if !ok {
		return e.warn("keypoint_invalid_index", map[string]any{"Index": idx})
	}
	e.snapshot(s)
	s.record.Keypoints[idx] = point.WithVisibility(v)
	e.changed(s)
	r := e.info("visibility_set", map[string]any{"Index": idx, "Value": int(v), "Label": v.Label()})
	r.Count = 1
	return r
}

// Clear removes every keypoint of the current record
func (e *Engine) Clear(sideName string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	e.snapshot(s)
	r := e.info("cleared", nil)
	r.Count = len(s.record.Keypoints)
	s.record.Keypoints = []domain.Keypoint{}
	s.selected = -1
	e.changed(s)
	return r
}

// Undo restores the keypoints before the last edit
func (e *Engine) Undo(sideName string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	if s.record == nil || !s.history.CanUndo() {
		return e.warn("nothing_to_undo", nil)
	}
	kps, _ := s.history.Undo(s.record.Keypoints)
	s.record.Keypoints = kps
	s.endDrag()
	e.changed(s)
	return e.info("undone", nil)
}

// Redo reapplies the last undone edit
func (e *Engine) Redo(sideName string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	if s.record == nil || !s.history.CanRedo() {
		return e.warn("nothing_to_redo", nil)
	}
	kps, _ := s.history.Redo(s.record.Keypoints)
	s.record.Keypoints = kps
	s.endDrag()
	e.changed(s)
	return e.info("redone", nil)
}

// CopyFromPrevious replaces the current keypoints with those of the previous
// image in the list. Entries that cannot be read become absent. Entries
// without visibility get the default visibility in COCO mode.
func (e *Engine) CopyFromPrevious(sideName string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	return e.copyFromPrevious(s)
}

// CopyFromPreviousAll runs CopyFromPrevious on every side with an image.
// Each side records its own undo step. Count is the number of sides copied.
func (e *Engine) CopyFromPreviousAll() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	copied := 0
	last := e.warn("no_image", nil)
	for _, name := range e.order {
		s := e.sides[name]
		if s.record == nil {
			continue
		}
		r := e.copyFromPrevious(s)
		if !r.OK {
			e.log.WithField("side", s.name).Debugf("CopyFromPreviousAll: %s", r.Message)
			last = r
			continue
		}
		copied++
	}
	if copied == 0 {
		return last
	}
	r := e.info("copy_all_done", map[string]any{"Count": copied})
	r.Count = copied
	return r
}

func (e *Engine) copyFromPrevious(s *side) Result {
	if s.index == 0 {
		return e.warn("copy_first_image", nil)
	}
	if !s.store.Loaded() {
		return e.warn("no_document", nil)
	}
	_, q := s.paths(s.images[s.index-1])
	res, ok := s.store.Resolve(q)
	if !ok {
		return e.warn("copy_no_previous", nil)
	}
	if len(res.Record.Keypoints) == 0 {
		return e.warn("copy_previous_empty", nil)
	}

	e.snapshot(s)
	cleaned := make([]domain.Keypoint, len(res.Record.Keypoints))
	valid := 0
	for i, kp := range res.Record.Keypoints {
		point, ok := kp.Coerce()
		if !ok {
			continue
		}
		if point.Kind == domain.Point && e.format == FormatCOCO {
			point = point.WithVisibility(e.defaultV)
		}
		cleaned[i] = point
		valid++
	}
	s.record.Keypoints = cleaned
	e.changed(s)
	r := e.info("copy_done", map[string]any{"Count": valid, "Total": len(cleaned)})
	r.Count = valid
	return r
}

// BatchCopy overwrites the keypoints of the next n images with a copy of the
// current ones, creating records as needed. n is clamped to the end of the
// list. Destination records get no undo snapshot.
func (e *Engine) BatchCopy(sideName string, n int) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, bad := e.editable(sideName)
	if bad != nil {
		return *bad
	}
	if !s.store.Loaded() {
		return e.warn("no_document", nil)
	}
	if len(s.record.Keypoints) == 0 {
		return e.warn("batch_no_keypoints", nil)
	}
	if n <= 0 {
		return e.warn("batch_invalid", nil)
	}
	if remaining := len(s.images) - s.index - 1; n > remaining {
		n = remaining
	}

	copied := 0
	for i := 1; i <= n; i++ {
		full, q := s.paths(s.images[s.index+i])
		width, height, err := e.imageSize(full)
		if err != nil {
			width, height = s.record.Width, s.record.Height
		}
		q.Width, q.Height = width, height
		res, err := s.store.ResolveOrCreate(q)
		if err != nil {
			return e.fail("save_failed", err, nil)
		}
		if res.Record == s.record {
			continue
		}
		res.Record.Keypoints = domain.CloneKeypoints(s.record.Keypoints)
		copied++
	}
	if copied > 0 {
		e.changed(s)
	}
	r := e.info("batch_done", map[string]any{"Count": copied})
	r.Count = copied
	return r
}

func coords(x, y float64) map[string]any {
	return map[string]any{"X": formatFloat(x, 1), "Y": formatFloat(y, 1)}
}

func formatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}
