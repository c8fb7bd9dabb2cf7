package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lewtec/keylabel/annotation"
	"github.com/lewtec/keylabel/internal/export"
	"github.com/lewtec/keylabel/internal/scan"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	formats := make([]string, len(annotation.ExportFormats))
	for i, f := range annotation.ExportFormats {
		formats[i] = string(f)
	}
	cmd := &cobra.Command{
		Use:   "export [folder]",
		Short: "Convert an annotation file",
		Long: `Convert an annotation file to another format.

coco and the stats formats write to the --output file; yolo and voc write
labels/ and annotations/ folders under the --output folder. When folder is
given, statistics count its images as the total.

Formats: ` + strings.Join(formats, ", "),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			annFile, _ := cmd.Flags().GetString("annotations")
			if annFile == "" {
				return fmt.Errorf("--annotations flag is required")
			}
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				return fmt.Errorf("--output flag is required")
			}
			doc, err := export.ReadNativeFile(annFile)
			if err != nil {
				return err
			}

			job := annotation.ExportJob{
				Format:      annotation.ExportFormat(format),
				Dest:        output,
				Skeleton:    config.Skeleton(),
				TotalImages: len(doc.Annotations),
				Source:      filepath.Base(annFile),
			}
			if len(args) == 1 {
				images, err := scan.Images(os.DirFS(args[0]), ".")
				if err != nil {
					return err
				}
				job.TotalImages = len(images)
			}
			count, err := annotation.ExportDocument(config, doc, job)
			if err != nil {
				return fmt.Errorf("failed to export %s: %w", format, err)
			}
			logrus.WithField("component", "export").Infof("Export: %d %s annotations written to %s", count, format, output)
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d\n", count)
			return nil
		},
	}
	cmd.Flags().StringP("annotations", "a", "", "Annotation file")
	cmd.Flags().StringP("format", "f", string(annotation.ExportCOCO), "Export format")
	cmd.Flags().StringP("output", "o", "", "Output file or folder")
	return cmd
}
