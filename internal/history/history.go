// Package history keeps bounded undo and redo stacks of keypoint list snapshots.
package history

import "github.com/lewtec/keylabel/internal/domain"

// DefaultCapacity is the number of undo steps kept when none is configured
const DefaultCapacity = 50

// History is the undo/redo state of one editing side. It is not safe for
// concurrent use; the engine serializes access.
type History struct {
	capacity int
	undo     [][]domain.Keypoint
	redo     [][]domain.Keypoint
}

// New creates a history holding at most capacity undo snapshots
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

// Snapshot records the state before a mutation. The oldest snapshot is
// dropped once the capacity is reached, and the redo stack is cleared.
func (h *History) Snapshot(current []domain.Keypoint) {
	h.undo = append(h.undo, domain.CloneKeypoints(orEmpty(current)))
	if len(h.undo) > h.capacity {
		h.undo = h.undo[len(h.undo)-h.capacity:]
	}
	h.redo = nil
}

// Undo returns the state to restore and pushes current onto the redo stack
func (h *History) Undo(current []domain.Keypoint) ([]domain.Keypoint, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, domain.CloneKeypoints(orEmpty(current)))
	return domain.CloneKeypoints(prev), true
}

// Redo is the inverse of Undo
func (h *History) Redo(current []domain.Keypoint) ([]domain.Keypoint, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, domain.CloneKeypoints(orEmpty(current)))
	return domain.CloneKeypoints(next), true
}

// Clear drops both stacks
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the number of undo snapshots held
func (h *History) Len() int { return len(h.undo) }

func orEmpty(kps []domain.Keypoint) []domain.Keypoint {
	if kps == nil {
		return []domain.Keypoint{}
	}
	return kps
}
