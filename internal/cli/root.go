package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/config"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/telemetry"
)

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
}

// NewRootCmd builds the ztctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "ztctl",
		Short:        "Operate the zero-trust access engine",
		Long:         "Offline tools for fingerprints, decisions and audit logs, plus admin commands that seed the device registry, threat feed and compliance records.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file (defaults to ZTE_CONFIG_FILE)")

	root.AddCommand(
		newFingerprintCmd(),
		newDecideCmd(),
		newAuditCmd(),
		newDeviceCmd(opts),
		newThreatCmd(opts),
		newComplianceCmd(opts),
		newIngestCmd(opts),
	)
	return root
}

func (o *options) load() (*config.Config, *zap.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := telemetry.NewLogger("warn", cfg.Environment)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
