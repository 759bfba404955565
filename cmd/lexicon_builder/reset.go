package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/jonathan/career-lexicon/internal/config"
)

var (
	resetOutput string
	resetState  string
	resetYes    bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the manifest so the next update reprocesses every document",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := manifestPath(resetOutput, resetState)

		if !resetYes {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Delete manifest %s", path),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled.")
				return nil
			}
		}

		removed, err := removeManifest(path)
		if err != nil {
			return err
		}
		if removed {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
		} else {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No manifest at %s\n", path)
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().StringVarP(&resetOutput, "output", "o", config.DefaultOutputDir, "Lexicon output directory")
	resetCmd.Flags().StringVar(&resetState, "state", "", "Manifest path (default <output>/.state.json)")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

// removeManifest deletes the manifest, reporting whether one existed
func removeManifest(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove manifest: %w", err)
	}
	return true, nil
}
