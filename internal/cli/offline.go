package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/access"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/device"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/auditlog"
)

// errVerifyFailed is returned when an audit log fails verification. The
// failure details are already written to stderr.
var errVerifyFailed = errors.New("audit log verification failed")

func newFingerprintCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Hash device attributes the way the engine does",
		Long:  "Reads a fingerprint request as JSON from --file or stdin and prints its hash and normalized attributes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open fingerprint request: %w", err)
				}
				defer f.Close()
				in = f
			}

			var req device.FingerprintRequest
			if err := json.NewDecoder(in).Decode(&req); err != nil {
				return fmt.Errorf("decode fingerprint request: %w", err)
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"hash":       req.Hash(),
				"attributes": req.Attributes(),
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON fingerprint request (default stdin)")
	return cmd
}

func newDecideCmd() *cobra.Command {
	var (
		level    string
		resource string
		keywords []string
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Dry-run an access decision for a trust level and resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := trust.ParseLevel(level)
			if err != nil {
				return err
			}
			if resource == "" {
				return fmt.Errorf("--resource is required")
			}

			classifier := access.NewClassifier(keywords)
			decision := access.Decide(parsed, resource, classifier)
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"sensitivity": classifier.Classify(resource).String(),
				"decision":    decision,
			})
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "Trust level: VeryLow, Low, Medium, High or VeryHigh")
	cmd.Flags().StringVar(&resource, "resource", "", "Resource path being accessed")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "High-risk resource keywords (default built-in list)")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func newAuditCmd() *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit log operations",
		Long:  "Commands for the hash-chained security event log written by the file audit sink.",
	}

	auditCmd.AddCommand(&cobra.Command{
		Use:   "verify <path>",
		Short: "Verify hash chain integrity of an audit log",
		Long:  "Walks the JSONL audit log and checks that every entry's prev_hash matches the SHA-256 of the previous line.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditVerify(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	})
	return auditCmd
}

func runAuditVerify(stdout, stderr io.Writer, path string) error {
	result := auditlog.Verify(path)
	if result.Valid {
		fmt.Fprintf(stdout, "OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(stderr, "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	return errVerifyFailed
}
