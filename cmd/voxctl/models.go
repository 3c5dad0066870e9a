package main

import (
	"fmt"
	"net/http"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.aimuz.me/voxlore/stt"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage local whisper.cpp models",
}

func modelDir() (string, error) {
	if cfg.LocalModel.Dir != "" {
		return cfg.LocalModel.Dir, nil
	}
	return stt.DefaultModelDir()
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known models and which are downloaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := modelDir()
		if err != nil {
			return err
		}
		downloaded, err := stt.ListDownloaded(dir)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSIZE\tDOWNLOADED\tSELECTED")
		for _, m := range stt.Models {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				m.ID, humanize.IBytes(uint64(m.Size)),
				mark(slices.Contains(downloaded, m.ID)), mark(cfg.LocalModel.ID == m.ID))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\nmodel dir: %s\n", dir)
		return nil
	},
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a model into the model directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := modelDir()
		if err != nil {
			return err
		}
		last := -1
		path, err := stt.Download(cmd.Context(), http.DefaultClient, args[0], dir, func(percent int) {
			if percent != last {
				last = percent
				fmt.Fprintf(os.Stderr, "\rdownloading %s: %3d%%", args[0], percent)
			}
		})
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return ""
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDownloadCmd)
}
