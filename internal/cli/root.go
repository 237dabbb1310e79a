package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the schema2api CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema2api",
		Short: "Turn a relationship sentence or endpoint list into a running mock API",
		Long: "schema2api infers entities from plain-English sentences such as " +
			"\"a university has many programs\" and serves a linked JSON:API mock, " +
			"or serves plain JSON routes from explicit endpoint definitions.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	flagErr := func(c *cobra.Command, err error) error {
		return newUsageErrorf("%v\n\n%s", err, c.UsageString())
	}
	cmd.SetFlagErrorFunc(flagErr)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	for _, sub := range []*cobra.Command{
		newInferCmd(),
		newManualCmd(),
		newExportCmd(),
		newInitCmd(),
	} {
		sub.SetFlagErrorFunc(flagErr)
		cmd.AddCommand(sub)
	}

	return cmd
}
