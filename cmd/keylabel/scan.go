package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/lewtec/keylabel/annotation"
	"github.com/lewtec/keylabel/internal/export"
	"github.com/lewtec/keylabel/internal/repository"
	"github.com/lewtec/keylabel/internal/scan"
	"github.com/lewtec/keylabel/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const progressTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}}`

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan folder",
		Short: "List the images of a folder and their annotation status",
		Long: `List every image under folder, sorted, with forward slash paths.

With --annotations each image is marked as annotated when its record has
keypoints. With --catalog the image sizes and hashes are cached in a SQLite
catalog and images with the same content are reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			folder := args[0]
			images, err := scan.Images(os.DirFS(folder), ".")
			if err != nil {
				return err
			}

			st := store.New()
			if annFile, _ := cmd.Flags().GetString("annotations"); annFile != "" {
				doc, err := export.ReadNativeFile(annFile)
				if err != nil {
					return err
				}
				st.Load(doc)
			}

			out := cmd.OutOrStdout()
			annotated := 0
			for _, rel := range images {
				_, q := annotation.ImageQuery(folder, rel)
				status := "-"
				if st.Loaded() {
					status = "no"
					if st.IsAnnotated(q.RelPath, q.MatchPath) {
						status = "yes"
						annotated++
					}
				}
				fmt.Fprintf(out, "%s\t%s\n", rel, status)
			}
			if st.Loaded() {
				fmt.Fprintf(out, "%d images, %d annotated\n", len(images), annotated)
			} else {
				fmt.Fprintf(out, "%d images\n", len(images))
			}

			catalog, _ := cmd.Flags().GetString("catalog")
			if catalog == "" {
				catalog = config.Catalog
			}
			if catalog == "" {
				return nil
			}
			return catalogImages(cmd, catalog, folder, images)
		},
	}
	cmd.Flags().StringP("annotations", "a", "", "Annotation file to check the images against")
	cmd.Flags().String("catalog", "", "SQLite image catalog, overrides the config")
	cmd.Flags().Bool("progress", true, "Show a progress bar while cataloging")
	cmd.Flags().Bool("prune", false, "Remove catalog entries of this folder whose file is gone")
	return cmd
}

func catalogImages(cmd *cobra.Command, catalog, folder string, images []string) error {
	log := logrus.WithField("component", "scan")
	db, err := repository.Open(catalog)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := repository.NewImageRepository(db)

	showProgress, _ := cmd.Flags().GetBool("progress")
	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.ProgressBarTemplate(progressTemplate).New(len(images))
		bar.SetWriter(cmd.ErrOrStderr())
		bar.Set("prefix", "catalog")
		bar.Start()
	}
	failed := 0
	seen := map[string]bool{}
	for _, rel := range images {
		full, _ := annotation.ImageQuery(folder, rel)
		entry, err := annotation.CatalogImage(cmd.Context(), repo, full)
		if err != nil {
			log.WithError(err).Warnf("Scan: skipping %s", rel)
			failed++
		} else {
			seen[entry.Path] = true
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}
	log.Infof("Scan: cataloged %d images in %s", len(images)-failed, catalog)

	if prune, _ := cmd.Flags().GetBool("prune"); prune {
		if err := pruneCatalog(cmd, repo, folder, seen); err != nil {
			return err
		}
	}

	duplicates, err := repo.Duplicates(cmd.Context())
	if err != nil {
		return err
	}
	hashes := make([]string, 0, len(duplicates))
	for hash := range duplicates {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	out := cmd.OutOrStdout()
	for _, hash := range hashes {
		fmt.Fprintf(out, "duplicate %s\n", hash)
		for _, p := range duplicates[hash] {
			fmt.Fprintf(out, "\t%s\n", p)
		}
	}
	return nil
}

// pruneCatalog deletes the entries under folder that were not seen in this scan
func pruneCatalog(cmd *cobra.Command, repo *repository.ImageRepository, folder string, seen map[string]bool) error {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("while resolving %s: %w", folder, err)
	}
	prefix := strings.TrimSuffix(filepath.ToSlash(abs), "/") + "/"
	entries, err := repo.List(cmd.Context())
	if err != nil {
		return err
	}
	removed := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Path, prefix) || seen[entry.Path] {
			continue
		}
		if err := repo.Delete(cmd.Context(), entry.Path); err != nil {
			return err
		}
		removed++
	}
	logrus.WithField("component", "scan").Infof("Scan: pruned %d catalog entries", removed)
	return nil
}
