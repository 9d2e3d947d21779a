package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/printer"
	"github.com/ayusman/signcoach/internal/store"
)

var (
	patternsKind   string
	patternsFormat string
	patternsOutput string
	patternsDB     string
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect, export and import hand shape patterns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the merged pattern library",
	Long: `Show every pattern the classifier matches against: the built-in (or
configured) library plus the calibrated custom signs in the database.`,
	Args: cobra.NoArgs,
	RunE: runPatternsList,
}

var patternsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the merged pattern library to a file",
	Example: `  signcoach patterns export -o patterns.yaml
  signcoach patterns export --kind custom --format json`,
	Args: cobra.NoArgs,
	RunE: runPatternsExport,
}

var patternsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store the patterns of a library file as custom signs",
	Long: `Read a YAML or JSON pattern library and store each pattern as a sign.
Signs whose label already exists are overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runPatternsImport,
}

func init() {
	patternsCmd.PersistentFlags().StringVar(&patternsDB, "db", "", "sign database path")
	patternsCmd.PersistentFlags().StringVar(&patternsKind, "kind", "", "only letter, digit or custom patterns")
	patternsExportCmd.Flags().StringVar(&patternsFormat, "format", "", "yaml or json (default from the file extension, else yaml)")
	patternsExportCmd.Flags().StringVarP(&patternsOutput, "output", "o", "", "output file (default stdout)")

	patternsCmd.AddCommand(patternsListCmd, patternsExportCmd, patternsImportCmd)
	rootCmd.AddCommand(patternsCmd)
}

// library returns the merged library the classifier would use.
func library() ([]handshape.Pattern, error) {
	st, err := openStore(patternsDB)
	if err != nil {
		return nil, printer.Error("Failed to open the sign database", err.Error(), nil)
	}
	defer st.Close()

	engine, _, err := newRecognizer(st, nil)
	if err != nil {
		return nil, printer.Error("Failed to load the pattern library", err.Error(), nil)
	}

	patterns := engine.Patterns()
	if patternsKind != "" {
		kind, err := parseKind(patternsKind)
		if err != nil {
			return nil, printer.Error("Invalid kind", err.Error(), []string{"Use --kind letter, digit or custom"})
		}
		patterns = handshape.Filter(patterns, kind)
	}
	return patterns, nil
}

func runPatternsList(cmd *cobra.Command, _ []string) error {
	patterns, err := library()
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		printer.Warning(cmd.OutOrStdout(), "No patterns found")
		return nil
	}
	return printer.Patterns(cmd.OutOrStdout(), patterns)
}

func runPatternsExport(cmd *cobra.Command, _ []string) error {
	patterns, err := library()
	if err != nil {
		return err
	}

	format := handshape.FormatYAML
	switch strings.ToLower(patternsFormat) {
	case "":
		if patternsOutput != "" {
			format = handshape.FormatOf(patternsOutput)
		}
	case "yaml", "yml":
	case "json":
		format = handshape.FormatJSON
	default:
		return printer.Error("Invalid format", fmt.Sprintf("unknown format %q", patternsFormat),
			[]string{"Use --format yaml or --format json"})
	}

	if patternsOutput == "" {
		return handshape.WritePatterns(cmd.OutOrStdout(), patterns, format)
	}

	f, err := os.Create(patternsOutput)
	if err != nil {
		return printer.Error("Failed to create the output file", err.Error(), nil)
	}
	if err := handshape.WritePatterns(f, patterns, format); err != nil {
		f.Close()
		return printer.Error("Failed to write patterns", err.Error(), nil)
	}
	if err := f.Close(); err != nil {
		return printer.Error("Failed to write patterns", err.Error(), nil)
	}
	printer.Success(cmd.OutOrStdout(), "Exported %d patterns to %s", len(patterns), patternsOutput)
	return nil
}

func runPatternsImport(cmd *cobra.Command, args []string) error {
	patterns, err := handshape.LoadFile(args[0])
	if err != nil {
		return printer.Error("Failed to read the pattern file", err.Error(),
			[]string{"Check the file is a YAML or JSON library with a top-level patterns list"})
	}
	if patternsKind != "" {
		kind, err := parseKind(patternsKind)
		if err != nil {
			return printer.Error("Invalid kind", err.Error(), []string{"Use --kind letter, digit or custom"})
		}
		patterns = handshape.Filter(patterns, kind)
	}

	st, err := openStore(patternsDB)
	if err != nil {
		return printer.Error("Failed to open the sign database", err.Error(), nil)
	}
	defer st.Close()

	var created, updated int
	signs := st.Signs()
	for _, p := range patterns {
		label := strings.ToUpper(p.Label)
		if p.Kind == "" {
			p.Kind = handshape.KindCustom
		}
		existing, err := signs.GetByLabel(label)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s := &store.Sign{ID: uuid.NewString(), Label: label, Kind: p.Kind, Joints: p.Joints}
			if err := signs.Create(s); err != nil {
				return printer.Error("Failed to store sign "+label, err.Error(), nil)
			}
			created++
		case err != nil:
			return printer.Error("Failed to look up sign "+label, err.Error(), nil)
		default:
			existing.Kind = p.Kind
			existing.Joints = p.Joints
			if err := signs.Update(existing); err != nil {
				return printer.Error("Failed to update sign "+label, err.Error(), nil)
			}
			updated++
		}
		logger.Debug("pattern imported", "label", label, "kind", p.Kind)
	}

	printer.Success(cmd.OutOrStdout(), "Imported %d patterns (%d new, %d updated)", len(patterns), created, updated)
	return nil
}

func parseKind(s string) (handshape.Kind, error) {
	switch k := handshape.Kind(strings.ToLower(s)); k {
	case handshape.KindLetter, handshape.KindDigit, handshape.KindCustom:
		return k, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}
