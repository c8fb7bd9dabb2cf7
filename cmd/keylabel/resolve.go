package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lewtec/keylabel/annotation"
	"github.com/lewtec/keylabel/internal/export"
	"github.com/lewtec/keylabel/internal/scan"
	"github.com/lewtec/keylabel/internal/store"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve folder",
		Short: "Show which annotation record each image resolves to",
		Long: `For every image under folder print the resolution strategy and the
annotation path it matched, or "new" when a record would be created. The
annotation file is only read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			annFile, _ := cmd.Flags().GetString("annotations")
			if annFile == "" {
				return fmt.Errorf("--annotations flag is required")
			}
			doc, err := export.ReadNativeFile(annFile)
			if err != nil {
				return err
			}
			st := store.New()
			st.Load(doc)

			folder := args[0]
			images, err := scan.Images(os.DirFS(folder), ".")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, strings.Join([]string{"image", "strategy", "record"}, "\t"))
			matched := 0
			for _, rel := range images {
				_, q := annotation.ImageQuery(folder, rel)
				res, ok := st.Resolve(q)
				if !ok {
					fmt.Fprintf(out, "%s\tnew\t\n", rel)
					continue
				}
				matched++
				fmt.Fprintf(out, "%s\t%s\t%s\n", rel, res.Strategy, res.Record.Image)
			}
			fmt.Fprintf(out, "%d of %d images matched\n", matched, len(images))
			return nil
		},
	}
	cmd.Flags().StringP("annotations", "a", "", "Annotation file")
	return cmd
}
