package annotation

import (
	"regexp"
	"strconv"
	"strings"
)

var labelEntry = regexp.MustCompile(`(\d+)\s*:\s*(?:"([^"]*)"|'([^']*)')`)

// ParseKeypointLabels reads a dictionary literal such as
// `KEYPOINT_LABELS = {0: 'Nose', 1: "Left Eye"}` into id → name. Text outside
// the braces is ignored. It returns nil when no braces are found.
func ParseKeypointLabels(text string) map[int]string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil
	}
	labels := map[int]string{}
	for _, m := range labelEntry.FindAllStringSubmatch(text[start+1:end], -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		name := m[2]
		if name == "" {
			name = m[3]
		}
		labels[id] = name
	}
	return labels
}

// ApplyKeypointLabels renames keypoints from dictionary text. Ids outside the
// current name list are ignored; the list never grows.
func (e *Engine) ApplyKeypointLabels(text string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	updated := 0
	names := append([]string(nil), e.skeleton.Names...)
	for id, name := range ParseKeypointLabels(text) {
		if id < 0 || id >= len(names) {
			continue
		}
		names[id] = name
		updated++
	}
	if updated == 0 {
		return e.warn("labels_invalid", nil)
	}
	e.skeleton.Names = names
	e.log.Infof("ApplyKeypointLabels: %d names updated", updated)
	r := e.info("labels_updated", nil)
	r.Count = updated
	return r
}
