package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/lewtec/keylabel/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes how far the annotation of a document has progressed
type Stats struct {
	Source            string `json:"source,omitempty"`
	TotalImages       int    `json:"total_images"`
	AnnotatedImages   int    `json:"annotated_images"`
	UnannotatedImages int    `json:"unannotated_images"`
	// Keypoint counts only consider annotated records
	TotalKeypoints   int     `json:"total_keypoints"`
	AverageKeypoints float64 `json:"average_keypoints_per_image"`
	MinKeypoints     int     `json:"min_keypoints"`
	MaxKeypoints     int     `json:"max_keypoints"`
	// Distribution maps a keypoint list length to the number of records with it
	Distribution map[int]int `json:"distribution"`
	// PerKeypoint counts records where a keypoint id has coordinates
	PerKeypoint   map[int]int     `json:"per_keypoint"`
	Visibility    map[string]int  `json:"visibility_counts"`
	AverageWidth  float64         `json:"average_width"`
	AverageHeight float64         `json:"average_height"`
	UniqueWidths  int             `json:"unique_widths"`
	UniqueHeights int             `json:"unique_heights"`
	Completion    float64         `json:"completion_percentage"`
	Skeleton      domain.Skeleton `json:"-"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// ComputeStats aggregates doc. totalImages is the size of the image folder;
// when it is zero the number of records is used instead.
func ComputeStats(doc *domain.Document, totalImages int, skeleton domain.Skeleton) *Stats {
	s := &Stats{
		Distribution: map[int]int{},
		PerKeypoint:  map[int]int{},
		Visibility: map[string]int{
			domain.NotLabeled.String(): 0,
			domain.Occluded.String():   0,
			domain.Visible.String():    0,
		},
		Skeleton:    skeleton,
		GeneratedAt: time.Now(),
	}
	s.TotalImages = totalImages
	if s.TotalImages == 0 {
		s.TotalImages = len(doc.Annotations)
	}

	var counts, widths, heights []float64
	uniqueWidths := map[int]bool{}
	uniqueHeights := map[int]bool{}
	for _, rec := range doc.Annotations {
		s.Distribution[len(rec.Keypoints)]++
		if rec.Width > 0 {
			widths = append(widths, float64(rec.Width))
			uniqueWidths[rec.Width] = true
		}
		if rec.Height > 0 {
			heights = append(heights, float64(rec.Height))
			uniqueHeights[rec.Height] = true
		}
		if len(rec.Keypoints) == 0 {
			continue
		}
		counts = append(counts, float64(len(rec.Keypoints)))
		for idx, kp := range rec.Keypoints {
			if !kp.Present() {
				continue
			}
			s.PerKeypoint[idx]++
			if kp.Kind == domain.PointV && kp.V.Valid() {
				s.Visibility[kp.V.String()]++
			}
		}
	}

	s.AnnotatedImages = len(counts)
	// records can outnumber the folder when the document lists missing images
	s.UnannotatedImages = max(s.TotalImages-s.AnnotatedImages, 0)
	if len(counts) > 0 {
		s.TotalKeypoints = int(floats.Sum(counts))
		s.AverageKeypoints = stat.Mean(counts, nil)
		s.MinKeypoints = int(floats.Min(counts))
		s.MaxKeypoints = int(floats.Max(counts))
	}
	if len(widths) > 0 {
		s.AverageWidth = stat.Mean(widths, nil)
	}
	if len(heights) > 0 {
		s.AverageHeight = stat.Mean(heights, nil)
	}
	s.UniqueWidths = len(uniqueWidths)
	s.UniqueHeights = len(uniqueHeights)
	if s.TotalImages > 0 {
		s.Completion = float64(s.AnnotatedImages) / float64(s.TotalImages) * 100
	}
	return s
}

// WriteStatsJSON writes the statistics as indented JSON
func WriteStatsJSON(w io.Writer, s *Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("while encoding statistics: %w", err)
	}
	return nil
}

// WriteStatsText writes the plain text report
func WriteStatsText(w io.Writer, s *Stats) error {
	_, err := io.WriteString(w, statsText(s))
	return err
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func statsText(s *Stats) string {
	rule := strings.Repeat("=", 60)
	sub := strings.Repeat("-", 60)
	source := s.Source
	if source == "" {
		source = "Unknown"
	}
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add(rule)
	add("KEYPOINT ANNOTATION STATISTICS REPORT")
	add(rule)
	add("Generated: %s", s.GeneratedAt.Format("2006-01-02 15:04:05"))
	add("Source File: %s", source)
	add("")
	add("OVERVIEW")
	add(sub)
	add("Total Images: %d", s.TotalImages)
	add("Annotated Images: %d (%.1f%%)", s.AnnotatedImages, percent(s.AnnotatedImages, s.TotalImages))
	add("Unannotated Images: %d (%.1f%%)", s.UnannotatedImages, percent(s.UnannotatedImages, s.TotalImages))
	add("")

	if s.AnnotatedImages > 0 {
		add("KEYPOINT STATISTICS")
		add(sub)
		add("Average Keypoints per Image: %.2f", s.AverageKeypoints)
		add("Maximum Keypoints: %d", s.MaxKeypoints)
		add("Minimum Keypoints: %d", s.MinKeypoints)
		add("Total Keypoints: %d", s.TotalKeypoints)
		add("")
		add("KEYPOINT DISTRIBUTION")
		add(sub)
		for _, n := range sortedKeys(s.Distribution) {
			add("  %d keypoints: %d images (%.1f%%)", n, s.Distribution[n], percent(s.Distribution[n], s.AnnotatedImages))
		}
		add("")
		add("VISIBILITY")
		add(sub)
		for _, v := range []domain.Visibility{domain.Visible, domain.Occluded, domain.NotLabeled} {
			add("  %s: %d", v.Label(), s.Visibility[v.String()])
		}
		add("")
	}

	if s.UniqueWidths > 0 && s.UniqueHeights > 0 {
		add("IMAGE DIMENSIONS")
		add(sub)
		add("Average Width: %.0fpx", s.AverageWidth)
		add("Average Height: %.0fpx", s.AverageHeight)
		add("Unique Widths: %d", s.UniqueWidths)
		add("Unique Heights: %d", s.UniqueHeights)
		add("")
	}

	add("KEYPOINT NAMES")
	add(sub)
	for idx, name := range s.Skeleton.Names {
		add("  %d: %s (%d images)", idx, name, s.PerKeypoint[idx])
	}
	add("")
	add("SKELETON CONNECTIONS")
	add(sub)
	for _, pair := range s.Skeleton.Pairs {
		add("  %s <-> %s", s.Skeleton.Name(pair[0]), s.Skeleton.Name(pair[1]))
	}
	add("")
	add(rule)
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
