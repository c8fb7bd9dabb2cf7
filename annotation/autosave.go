package annotation

import (
	"context"
	"time"

	"github.com/lewtec/keylabel/internal/export"
)

// Tick saves every side with unsaved changes whose last save is at least the
// autosave interval before now. In COCO mode the "_coco.json" file is the
// destination. Failures are logged and the side stays unsaved. It returns the
// number of sides saved.
func (e *Engine) Tick(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	saved := 0
	for _, name := range e.order {
		s := e.sides[name]
		if !s.unsaved || !s.store.Loaded() {
			continue
		}
		dest := s.annotationFile
		if e.format == FormatCOCO && s.cocoFile != "" {
			dest = s.cocoFile
		}
		if dest == "" || now.Sub(s.lastSave) < e.cfg.Autosave.Interval {
			continue
		}
		log := e.log.WithField("side", s.name)
		if err := export.WriteNativeFile(dest, s.store.Document()); err != nil {
			log.WithError(err).Warn("Autosave: failed")
			continue
		}
		s.unsaved = false
		s.lastSave = now
		saved++
		log.Infof("Autosave: wrote %s", dest)
	}
	return saved
}

// RunAutosave calls Tick on every autosave tick until ctx is done. It
// returns at once when autosave is disabled.
func (e *Engine) RunAutosave(ctx context.Context) {
	if !e.cfg.AutosaveEnabled() {
		return
	}
	ticker := time.NewTicker(e.cfg.Autosave.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(e.clock())
		}
	}
}

func (e *Engine) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now()
}
