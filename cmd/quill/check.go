package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <unit.toml>",
	Short: "Check a unit manifest's declarations without resolving calls",
	Long:  `Check runs only the registration phase: type declarations, trait defaults, duplicate signatures and unknown-name validation`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Bool("context", false, "show the offending manifest line under each diagnostic")
}

func runCheck(cmd *cobra.Command, args []string) error {
	showContext, err := cmd.Flags().GetBool("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := shouldColor(colorMode)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	fileID, err := fs.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	content := fs.Get(fileID).Content

	m, err := driver.DecodeManifest(content)
	if err != nil {
		return err
	}

	bag := diag.NewBag(maxDiagnostics)
	unit := driver.BuildUnit(m, content, fileID, diag.NewDedupReporter(diag.BagReporter{Bag: bag}))
	bag.Sort()

	diagfmt.Pretty(cmd.OutOrStderr(), bag, fs, diagfmt.PrettyOpts{
		Color:   useColor,
		Context: showContext,
	})

	if bag.HasErrors() {
		return fmt.Errorf("check failed with %d diagnostic(s)", bag.Len())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "unit %s: %d declaration(s), %d call(s), ok\n",
		unit.Name, len(unit.Universe.Decls()), len(unit.Calls))
	return nil
}
