package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	//go:embed templates/*
	templateFS embed.FS

	reportFuncMap = template.FuncMap{
		"markdown": func(text string) template.HTML {
			return template.HTML(blackfriday.Run([]byte(text)))
		},
	}

	reportTemplate = template.Must(template.New("report.html").Funcs(reportFuncMap).ParseFS(templateFS, "templates/report.html"))
)

type reportKeypoint struct {
	ID    int
	Name  string
	Count int
	Width int
}

// WriteStatsHTML renders the statistics as a standalone HTML page. The
// summary is written as markdown and converted with blackfriday.
func WriteStatsHTML(w io.Writer, s *Stats) error {
	var keypoints []reportKeypoint
	for idx, name := range s.Skeleton.Names {
		count := s.PerKeypoint[idx]
		width := 0
		if s.AnnotatedImages > 0 {
			width = count * 300 / s.AnnotatedImages
		}
		keypoints = append(keypoints, reportKeypoint{ID: idx, Name: name, Count: count, Width: width})
	}
	data := map[string]any{
		"Lang":      "en",
		"Title":     "Keypoint annotation statistics",
		"Body":      statsMarkdown(s),
		"Keypoints": keypoints,
	}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("while rendering statistics report: %w", err)
	}
	return nil
}

func statsMarkdown(s *Stats) string {
	var sb strings.Builder
	source := s.Source
	if source == "" {
		source = "Unknown"
	}
	fmt.Fprintf(&sb, "# Keypoint annotation statistics\n\n")
	fmt.Fprintf(&sb, "Generated %s from `%s`.\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05"), source)
	fmt.Fprintf(&sb, "## Overview\n\n")
	fmt.Fprintf(&sb, "- **Total images:** %d\n", s.TotalImages)
	fmt.Fprintf(&sb, "- **Annotated:** %d (%.1f%%)\n", s.AnnotatedImages, percent(s.AnnotatedImages, s.TotalImages))
	fmt.Fprintf(&sb, "- **Unannotated:** %d (%.1f%%)\n\n", s.UnannotatedImages, percent(s.UnannotatedImages, s.TotalImages))
	if s.AnnotatedImages > 0 {
		fmt.Fprintf(&sb, "## Keypoints per image\n\n")
		fmt.Fprintf(&sb, "- **Average:** %.2f\n- **Min:** %d\n- **Max:** %d\n- **Total:** %d\n\n",
			s.AverageKeypoints, s.MinKeypoints, s.MaxKeypoints, s.TotalKeypoints)
		fmt.Fprintf(&sb, "## Visibility\n\n")
		fmt.Fprintf(&sb, "- Visible: %d\n- Occluded: %d\n- Not labeled: %d\n\n",
			s.Visibility["visible"], s.Visibility["occluded"], s.Visibility["not_labeled"])
	}
	if s.UniqueWidths > 0 {
		fmt.Fprintf(&sb, "## Image dimensions\n\n")
		fmt.Fprintf(&sb, "Average size is %.0f x %.0f px across %d widths and %d heights.\n",
			s.AverageWidth, s.AverageHeight, s.UniqueWidths, s.UniqueHeights)
	}
	return sb.String()
}
