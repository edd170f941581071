package cmd

import "github.com/spf13/cobra"

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove generated files the current templates and schemes no longer produce",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.log.Sync() }()

		return rt.renderer.Prune()
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
