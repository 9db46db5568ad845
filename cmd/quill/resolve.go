package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/source"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <unit.toml>",
	Short: "Resolve every call of a unit manifest",
	Long:  `Resolve registers the manifest's types, traits and function signatures, then resolves each listed call to its unique declaration or reports why none could be chosen`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().Int("jobs", 0, "max parallel workers for call resolution (0=auto)")
	resolveCmd.Flags().Bool("context", false, "show the offending manifest line under each diagnostic")
	resolveCmd.Flags().Bool("disk-cache", false, "reuse cached results for unchanged manifests")
}

func runResolve(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	showContext, err := cmd.Flags().GetBool("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
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

	var cache *driver.DiskCache
	var key driver.Digest
	if useCache {
		cache, err = driver.OpenDiskCache("quill")
		if err != nil {
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
		key = driver.HashContent(content)
		var payload driver.DiskPayload
		hit, err := cache.Get(key, &payload)
		if err != nil {
			return err
		}
		if hit {
			return printCached(cmd, &payload, quiet)
		}
	}

	m, err := driver.DecodeManifest(content)
	if err != nil {
		return err
	}

	bag := diag.NewBag(maxDiagnostics)
	unit := driver.BuildUnit(m, content, fileID, diag.NewDedupReporter(diag.BagReporter{Bag: bag}))

	results, err := driver.ResolveUnit(cmd.Context(), unit, jobs)
	if err != nil {
		return err
	}
	resolved := make([]string, len(results))
	for i, res := range results {
		if res.Diagnostic != nil {
			bag.Add(*res.Diagnostic)
			continue
		}
		resolved[i] = res.Resolved.MangledName(unit.Universe)
	}
	bag.Sort()

	if !quiet {
		for i, res := range results {
			if resolved[i] == "" {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s => %s\n", res.Call.Label(unit.Strings, unit.Types), resolved[i])
		}
	}
	diagfmt.Pretty(cmd.OutOrStderr(), bag, fs, diagfmt.PrettyOpts{
		Color:   useColor,
		Context: showContext,
	})

	if cache != nil {
		payload := driver.DiskPayload{
			Unit:         unit.Name,
			ManifestHash: key,
			Resolved:     resolved,
			Diagnostics:  diag.FormatGolden(bag.Items(), fs, true),
			Broken:       bag.HasErrors(),
		}
		if err := cache.Put(key, &payload); err != nil && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to write disk cache: %v\n", err)
		}
	}

	if bag.HasErrors() {
		return fmt.Errorf("resolution failed with %d diagnostic(s)", bag.Len())
	}
	return nil
}

func printCached(cmd *cobra.Command, payload *driver.DiskPayload, quiet bool) error {
	if !quiet {
		for _, name := range payload.Resolved {
			if name == "" {
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	}
	if payload.Diagnostics != "" {
		fmt.Fprintln(cmd.OutOrStderr(), payload.Diagnostics)
	}
	if payload.Broken {
		return fmt.Errorf("resolution failed (cached)")
	}
	return nil
}

func shouldColor(mode string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}
