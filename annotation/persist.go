package annotation

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/export"
)

// ExportFormat names an export target
type ExportFormat string

const (
	ExportCOCO      ExportFormat = "coco"
	ExportYOLO      ExportFormat = "yolo"
	ExportVOC       ExportFormat = "voc"
	ExportStats     ExportFormat = "stats"
	ExportStatsJSON ExportFormat = "stats-json"
	ExportStatsHTML ExportFormat = "stats-html"
)

// ExportFormats lists every supported export target
var ExportFormats = []ExportFormat{ExportCOCO, ExportYOLO, ExportVOC, ExportStats, ExportStatsJSON, ExportStatsHTML}

// Save writes the side's document to its annotation file. In COCO mode the
// same document is also written to the "_coco.json" companion file.
func (e *Engine) Save(sideName string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	return e.save(s)
}

// SaveAs saves the side to filename and makes it the side's annotation file.
// A side without a document gets a new one holding its current record. When
// the save fails the side keeps its previous file and document state.
func (e *Engine) SaveAs(sideName, filename string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	created := false
	if !s.store.Loaded() && s.record != nil {
		doc := domain.NewDocument()
		doc.Annotations = append(doc.Annotations, s.record)
		s.store.Load(doc)
		created = true
	}
	prevFile, prevCoco := s.annotationFile, s.cocoFile
	s.annotationFile = filename
	s.cocoFile = export.COCOPath(filename)
	r := e.save(s)
	if !r.OK {
		s.annotationFile, s.cocoFile = prevFile, prevCoco
		if created {
			s.store.Load(nil)
		}
	}
	return r
}

func (e *Engine) save(s *side) Result {
	if !s.store.Loaded() {
		return e.warn("save_nothing", nil)
	}
	if s.annotationFile == "" {
		if e.format == FormatCOCO {
			return e.warn("save_no_standard_file", nil)
		}
		return e.warn("save_no_destination", nil)
	}
	doc := s.store.Document()
	log := e.log.WithField("side", s.name)
	if err := export.WriteNativeFile(s.annotationFile, doc); err != nil {
		return e.fail("save_failed", err, nil)
	}
	r := e.info("saved", map[string]any{"File": filepath.Base(s.annotationFile)})
	if e.format == FormatCOCO {
		if s.cocoFile == "" {
			s.cocoFile = export.COCOPath(s.annotationFile)
		}
		if err := export.WriteNativeFile(s.cocoFile, doc); err != nil {
			return e.fail("save_failed", err, nil)
		}
		r = e.info("saved_both", map[string]any{
			"File":     filepath.Base(s.annotationFile),
			"CocoFile": filepath.Base(s.cocoFile),
		})
	}
	s.unsaved = false
	s.lastSave = e.now()
	log.Infof("Save: %d records written to %s", len(doc.Annotations), s.annotationFile)
	r.Count = len(doc.Annotations)
	return r
}

// Export converts the side's document. dest is a file for coco and the
// stats formats, and a folder for yolo and voc.
func (e *Engine) Export(sideName string, format ExportFormat, dest string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.side(sideName)
	if err != nil {
		return e.noSide(sideName)
	}
	if !s.store.Loaded() {
		return e.warn("export_nothing", nil)
	}
	count, err := e.export(s, format, dest)
	if err != nil {
		return e.fail("export_failed", err, map[string]any{"Format": string(format)})
	}
	e.log.WithField("side", s.name).Infof("Export: %d %s annotations to %s", count, format, dest)
	r := e.info("exported", map[string]any{"Count": count, "Format": string(format)})
	r.Count = count
	return r
}

func (e *Engine) export(s *side, format ExportFormat, dest string) (int, error) {
	job := ExportJob{
		Format:      format,
		Dest:        dest,
		Skeleton:    e.skeleton,
		TotalImages: len(s.images),
	}
	if s.annotationFile != "" {
		job.Source = filepath.Base(s.annotationFile)
	}
	return ExportDocument(e.cfg, s.store.Document(), job)
}

// ExportJob describes one export of a document
type ExportJob struct {
	Format ExportFormat
	// Dest is a file for coco and the stats formats, and a folder for yolo and voc
	Dest     string
	Skeleton domain.Skeleton
	// TotalImages is the size of the image folder, used by the statistics
	TotalImages int
	Source      string
}

// ExportDocument writes doc in the job's format and returns how many
// annotations or files were produced
func ExportDocument(cfg *Config, doc *domain.Document, job ExportJob) (int, error) {
	switch job.Format {
	case ExportCOCO:
		opts := export.COCOOptions{
			Skeleton:         job.Skeleton,
			Padding:          cfg.BBoxPadding(),
			OneBasedSkeleton: cfg.Export.OneBasedSkeleton,
			CategoryName:     cfg.Export.Category,
		}
		coco, err := export.WriteCOCO(osfs.New(filepath.Dir(job.Dest)), filepath.Base(job.Dest), doc, opts)
		if err != nil {
			return 0, err
		}
		return len(coco.Annotations), nil
	case ExportYOLO:
		return export.WriteYOLO(osfs.New(job.Dest), "", doc)
	case ExportVOC:
		return export.WriteVOC(osfs.New(job.Dest), "", doc, job.Skeleton)
	case ExportStats, ExportStatsJSON, ExportStatsHTML:
		stats := export.ComputeStats(doc, job.TotalImages, job.Skeleton)
		stats.Source = job.Source
		if err := WriteStats(osfs.New(filepath.Dir(job.Dest)), filepath.Base(job.Dest), job.Format, stats); err != nil {
			return 0, err
		}
		return stats.AnnotatedImages, nil
	default:
		return 0, fmt.Errorf("unknown export format %q", job.Format)
	}
}

// WriteStats writes a statistics report in one of the stats formats
func WriteStats(fs billy.Filesystem, name string, format ExportFormat, stats *export.Stats) error {
	f, err := fs.Create(name)
	if err != nil {
		return fmt.Errorf("while creating %s: %w", name, err)
	}
	switch format {
	case ExportStatsJSON:
		err = export.WriteStatsJSON(f, stats)
	case ExportStatsHTML:
		err = export.WriteStatsHTML(f, stats)
	default:
		err = export.WriteStatsText(f, stats)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
