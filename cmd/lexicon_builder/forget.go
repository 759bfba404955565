package main

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var forgetYes bool

var forgetCmd = &cobra.Command{
	Use:     "forget <run-id>",
	Short:   "Delete a recorded run and its stored lexicons",
	Args:    cobra.ExactArgs(1),
	PreRunE: bindStoreFlag,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := historyStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := commandContext(cmd)
		run, err := lookupRun(ctx, store, args[0])
		if err != nil {
			return err
		}

		if !forgetYes {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Delete %s run %s from %s", run.Mode, run.ID, run.CreatedAt.Format("2006-01-02")),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Forget cancelled.")
				return nil
			}
		}

		if err := store.DeleteRun(ctx, run.ID); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
		return nil
	},
}

func init() {
	addStoreFlag(forgetCmd)
	forgetCmd.Flags().BoolVarP(&forgetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(forgetCmd)
}
