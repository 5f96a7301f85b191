package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthetl/internal/formatter"
	"healthetl/internal/validator"
)

// errPendingChanges is returned by a dry-run format that would change files.
var errPendingChanges = errors.New("files need formatting; rerun with --write")

var flagWrite bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compute statistics over the processed datasets and write the report",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		return runVerify(cfg, log, "")
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Maintain generated Markdown reports",
}

var reportFormatCmd = &cobra.Command{
	Use:   "format <path>...",
	Short: "Align report tables and refresh their signature",
	Long: `format aligns every Markdown table by display width. Files that carry a
metadata block are re-signed over the formatted text. Without --write the
command only lists files that would change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		changed := 0

		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			formatted := formatter.FormatMarkdown(string(content))
			if formatted == string(content) {
				continue
			}

			changed++

			if !flagWrite {
				fmt.Printf("would format: %s\n", path)

				continue
			}

			if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
				return err
			}

			fmt.Printf("formatted: %s\n", path)
		}

		if changed > 0 && !flagWrite {
			return errPendingChanges
		}

		return nil
	},
}

var reportCheckCmd = &cobra.Command{
	Use:   "check <path>...",
	Short: "Verify report signatures",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var errs []error

		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			res := validator.ValidateIntegrity(string(content))
			if !res.IsValid {
				for _, e := range res.Errors {
					fmt.Printf("invalid: %s: %s\n", path, e.Message)
				}

				errs = append(errs, fmt.Errorf("%s: %w", path, validator.ErrIntegrity))

				continue
			}

			fmt.Printf("ok: %s\n", path)
		}

		return errors.Join(errs...)
	},
}

func init() {
	reportFormatCmd.Flags().BoolVar(&flagWrite, "write", false, "Write changes to files")

	reportCmd.AddCommand(reportFormatCmd, reportCheckCmd)
	rootCmd.AddCommand(verifyCmd, reportCmd)
}
