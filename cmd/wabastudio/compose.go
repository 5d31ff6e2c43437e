package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nebari-dev/wabastudio/internal/composer"
	"github.com/nebari-dev/wabastudio/internal/diff"
	"github.com/nebari-dev/wabastudio/internal/draftfile"
	"github.com/spf13/cobra"
)

var (
	composeConnection string
	composeDiffJSON   bool
	composeInitFormat string
	composeInitForce  bool
)

var errDraftProblems = errors.New("draft has problems")

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Work with template draft files offline",
	Long: `Create, check, serialize and compare template drafts stored as
YAML, TOML or JSON files. The file extension picks the format.`,
}

var composeInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write a new empty draft file",
	Long: `Writes the initial draft (marketing, no header) to <file>. The template
name defaults to the file name.

Examples:
  wabastudio compose init order_update.yaml
  wabastudio compose init welcome.toml --parameter-format named`,
	Args: cobra.ExactArgs(1),
	RunE: runComposeInit,
}

var composeCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a draft file",
	Long:  `Reports placeholder errors in header and body and anything else that would block submission.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runComposeCheck,
}

var composeBuildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Print the create-template request for a draft file",
	Args:  cobra.ExactArgs(1),
	RunE:  runComposeBuild,
}

var composeDiffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare two draft files field by field",
	Long: `Compares two drafts. Exits 0 when they match, 1 when they differ and
2 on error.`,
	Args: cobra.ExactArgs(2),
	Run:  runComposeDiff,
}

func init() {
	composeInitCmd.Flags().StringVar(&composeInitFormat, "parameter-format", string(composer.FormatPositional), "Placeholder style: positional or named")
	composeInitCmd.Flags().BoolVarP(&composeInitForce, "force", "f", false, "Overwrite an existing file")
	composeBuildCmd.Flags().StringVarP(&composeConnection, "connection", "c", "", "Connection ID to put in the request")
	composeDiffCmd.Flags().BoolVar(&composeDiffJSON, "json", false, "Output as JSON")

	composeCmd.AddCommand(composeInitCmd)
	composeCmd.AddCommand(composeCheckCmd)
	composeCmd.AddCommand(composeBuildCmd)
	composeCmd.AddCommand(composeDiffCmd)
}

func runComposeInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := composer.ParseParameterFormat(composeInitFormat)
	if err != nil {
		return fmt.Errorf("invalid parameter format %q: use positional or named", composeInitFormat)
	}
	if _, err := os.Stat(path); err == nil && !composeInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	d := composer.NewDraft(format)
	d.Name = templateNameFromPath(path)
	if err := draftfile.WriteFile(path, d); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// templateNameFromPath turns "Order Update.yaml" into "order_update".
func templateNameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var sb strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '.':
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func runComposeCheck(cmd *cobra.Command, args []string) error {
	d, err := draftfile.ReadFile(args[0])
	if err != nil {
		return err
	}
	if !printProblems(cmd.OutOrStdout(), d) {
		return errDraftProblems
	}

	digest, err := draftfile.Digest(d)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", args[0], digest)
	return nil
}

// printProblems writes every problem with d and reports whether there were none.
func printProblems(w io.Writer, d composer.Draft) bool {
	ok := true
	msgs := d.FieldErrors().Messages()
	for _, section := range []composer.Section{composer.SectionHeader, composer.SectionBody} {
		if msg, found := msgs[section]; found {
			fmt.Fprintf(w, "%s: %s\n", section, msg)
			ok = false
		}
	}
	if err := d.Check(); err != nil {
		fmt.Fprintf(w, "draft: %v\n", err)
		ok = false
	}
	return ok
}

func runComposeBuild(cmd *cobra.Command, args []string) error {
	d, err := draftfile.ReadFile(args[0])
	if err != nil {
		return err
	}

	payload, err := composer.BuildRequest(composeConnection, d)
	if err != nil {
		printProblems(cmd.ErrOrStderr(), d)
		return errDraftProblems
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(payload)
}

func runComposeDiff(cmd *cobra.Command, args []string) {
	code, err := composeDiff(cmd.OutOrStdout(), args[0], args[1], composeDiffJSON)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	osExit(code)
}

func composeDiff(w io.Writer, oldPath, newPath string, asJSON bool) (int, error) {
	oldDraft, err := draftfile.ReadFile(oldPath)
	if err != nil {
		return diff.ExitError, err
	}
	newDraft, err := draftfile.ReadFile(newPath)
	if err != nil {
		return diff.ExitError, err
	}

	d, err := diff.Compare(oldDraft, newDraft)
	if err != nil {
		return diff.ExitError, err
	}

	if asJSON {
		oldDigest, _ := draftfile.Digest(oldDraft)
		newDigest, _ := draftfile.Digest(newDraft)
		data, err := diff.FormatDiffJSON(
			diff.DiffRefJSON{Path: oldPath, Digest: oldDigest},
			diff.DiffRefJSON{Path: newPath, Digest: newDigest},
			d,
		)
		if err != nil {
			return diff.ExitError, err
		}
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprint(w, diff.FormatUnifiedDiff(d, oldPath, newPath))
	}
	return diff.ExitCodeForDiff(d), nil
}
