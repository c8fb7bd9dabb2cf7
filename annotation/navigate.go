package annotation

import "github.com/lewtec/keylabel/internal/pathmatch"

// Navigate moves a side by delta images. Moves past either end stop there.
func (e *Engine) Navigate(sideName string, delta int) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	return e.navigate(s, s.index+delta)
}

// NavigateTo jumps to an absolute 0-based index. -1 means the last image and
// other out of range indices are clamped.
func (e *Engine) NavigateTo(sideName string, index int) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	if index == -1 {
		index = len(s.images) - 1
	}
	return e.navigate(s, index)
}

// NavigateAll moves every side that has images by delta
func (e *Engine) NavigateAll(delta int) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	moved := 0
	var last Result
	for _, name := range e.order {
		s := e.sides[name]
		if len(s.images) == 0 {
			continue
		}
		last = e.navigate(s, s.index+delta)
		if !last.OK {
			return last
		}
		moved++
	}
	if moved == 0 {
		return e.warn("no_images", nil)
	}
	last.Count = moved
	return last
}

func (e *Engine) navigate(s *side, index int) Result {
	if len(s.images) == 0 {
		return e.warn("no_images", nil)
	}
	if index < 0 {
		index = 0
	}
	if index >= len(s.images) {
		index = len(s.images) - 1
	}
	position := map[string]any{"Index": index + 1, "Total": len(s.images)}
	if index == s.index && s.record != nil {
		return e.info("navigate_edge", position)
	}
	if r := e.loadImage(s, index); !r.OK {
		return r
	}
	r := e.info("navigate_done", position)
	r.Count = 1
	return r
}

// SyncByFilename points the first two sides at images with the same file
// name, choosing the first such name in the first side's order
func (e *Engine) SyncByFilename() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.order) < 2 {
		return e.warn("sync_needs_two", nil)
	}
	left, right := e.sides[e.order[0]], e.sides[e.order[1]]
	if len(left.images) == 0 || len(right.images) == 0 {
		return e.warn("sync_needs_two", nil)
	}
	rightIndex := map[string]int{}
	for i, img := range right.images {
		name := pathmatch.Base(img)
		if _, ok := rightIndex[name]; !ok {
			rightIndex[name] = i
		}
	}
	for i, img := range left.images {
		name := pathmatch.Base(img)
		j, ok := rightIndex[name]
		if !ok {
			continue
		}
		if r := e.loadImage(left, i); !r.OK {
			return r
		}
		if r := e.loadImage(right, j); !r.OK {
			return r
		}
		return e.info("sync_done", map[string]any{"Name": name})
	}
	return e.warn("sync_none", nil)
}
