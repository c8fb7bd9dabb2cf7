package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lewtec/keylabel/annotation"
	"github.com/lewtec/keylabel/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Edit keypoints from a command console",
		Long: `Open an image folder and an annotation file and read editing commands
from standard input, one per line. Type "help" for the command list.

With --right-images a second side is opened next to the first one; the sides
are then called left and right.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			images, _ := cmd.Flags().GetString("images")
			if images == "" {
				return fmt.Errorf("--images flag is required")
			}
			annFile, _ := cmd.Flags().GetString("annotations")
			rightImages, _ := cmd.Flags().GetString("right-images")
			rightAnnFile, _ := cmd.Flags().GetString("right-annotations")

			log := logrus.WithField("session", uuid.NewString())
			opts := []annotation.Option{annotation.WithLogger(log)}
			if config.Catalog != "" {
				db, err := repository.Open(config.Catalog)
				if err != nil {
					return err
				}
				defer db.Close()
				opts = append(opts, annotation.WithCatalog(repository.NewImageRepository(db)))
			}
			sides := []struct{ name, images, annotations string }{
				{annotation.SideMain, images, annFile},
			}
			if rightImages != "" {
				opts = append(opts, annotation.WithSides(annotation.SideLeft, annotation.SideRight))
				sides = []struct{ name, images, annotations string }{
					{annotation.SideLeft, images, annFile},
					{annotation.SideRight, rightImages, rightAnnFile},
				}
			}
			engine := annotation.New(config, opts...)

			out := cmd.OutOrStdout()
			for _, s := range sides {
				if s.annotations != "" {
					fmt.Fprintln(out, engine.ImportAnnotations(s.name, s.annotations))
				}
				fmt.Fprintln(out, engine.SelectFolder(s.name, s.images))
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go engine.RunAutosave(ctx)

			c := &console{engine: engine, out: out}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				if c.exec(scanner.Text()) {
					break
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("while reading commands: %w", err)
			}
			for _, name := range engine.Sides() {
				if view, err := engine.Current(name); err == nil && view.Unsaved {
					log.Warnf("Session: side %s has unsaved changes", name)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringP("images", "i", "", "Images folder")
	cmd.Flags().StringP("annotations", "a", "", "Annotation file")
	cmd.Flags().String("right-images", "", "Images folder of the right side")
	cmd.Flags().String("right-annotations", "", "Annotation file of the right side")
	return cmd
}
