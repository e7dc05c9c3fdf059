package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/compliance"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/cache"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/database"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/threatintel"
)

func (o *options) withDB(cmd *cobra.Command, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := commandContext(cmd)
	pool, err := database.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

func (o *options) withFeed(cmd *cobra.Command, fn func(ctx context.Context, feed *threatintel.Feed) error) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, err := cache.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	return fn(commandContext(cmd), threatintel.NewFeed(client, logger))
}

func newDeviceCmd(opts *options) *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "Manage the device registry",
	}

	var fingerprint string
	register := &cobra.Command{
		Use:   "register <device-id> <user-id>",
		Short: "Register a device to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				if err := database.NewDeviceRepository(pool).RegisterDevice(ctx, args[0], args[1], fingerprint); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered device %s for user %s\n", args[0], args[1])
				return nil
			})
		},
	}
	register.Flags().StringVar(&fingerprint, "fingerprint", "", "Fingerprint hash from 'ztctl fingerprint'")

	health := &cobra.Command{
		Use:   "health <device-id> <healthy|unhealthy>",
		Short: "Record the latest health check for a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			healthy, err := parseHealth(args[1])
			if err != nil {
				return err
			}
			return opts.withDB(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				return database.NewDeviceRepository(pool).SetDeviceHealth(ctx, args[0], healthy, time.Now().UTC())
			})
		},
	}

	deviceCmd.AddCommand(register, health)
	return deviceCmd
}

func parseHealth(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "healthy":
		return true, nil
	case "unhealthy":
		return false, nil
	default:
		return false, fmt.Errorf("health must be healthy or unhealthy, got %q", v)
	}
}

func newThreatCmd(opts *options) *cobra.Command {
	threatCmd := &cobra.Command{
		Use:   "threat",
		Short: "Seed the threat intelligence feed",
	}

	var (
		severity    string
		source      string
		description string
		ttl         time.Duration
	)
	report := &cobra.Command{
		Use:   "report <ip>",
		Short: "Add a threat report for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sev, err := threat.ParseSeverity(severity)
			if err != nil {
				return err
			}
			intel := threat.Intelligence{
				Severity:    sev,
				Source:      source,
				Description: description,
				IPAddress:   args[0],
				ReportedAt:  time.Now().UTC(),
			}
			return opts.withFeed(cmd, func(ctx context.Context, feed *threatintel.Feed) error {
				return feed.Report(ctx, intel, ttl)
			})
		},
	}
	report.Flags().StringVar(&severity, "severity", "Medium", "Low, Medium, High or Critical")
	report.Flags().StringVar(&source, "source", "manual", "Reporting source")
	report.Flags().StringVar(&description, "description", "", "What was observed")
	report.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "How long reports for the address are kept (0 = forever)")

	var reputationTTL time.Duration
	reputation := &cobra.Command{
		Use:   "reputation <ip> <score>",
		Short: "Set an address reputation between 0 (hostile) and 1 (reputable)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[1], err)
			}
			return opts.withFeed(cmd, func(ctx context.Context, feed *threatintel.Feed) error {
				return feed.SetReputation(ctx, args[0], score, reputationTTL)
			})
		},
	}
	reputation.Flags().DurationVar(&reputationTTL, "ttl", 0, "Expiry for the reputation (0 = forever)")

	show := &cobra.Command{
		Use:   "show <ip>",
		Short: "Print the reputation and reports for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withFeed(cmd, func(ctx context.Context, feed *threatintel.Feed) error {
				score, err := feed.GetIPReputationScore(ctx, args[0])
				if err != nil {
					return err
				}
				reports, err := feed.GetThreatIntelligence(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"ip":         args[0],
					"reputation": score,
					"threats":    reports,
				})
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear <ip>",
		Short: "Remove the reputation and reports for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withFeed(cmd, func(ctx context.Context, feed *threatintel.Feed) error {
				return feed.Clear(ctx, args[0])
			})
		},
	}

	threatCmd.AddCommand(report, reputation, show, clearCmd)
	return threatCmd
}

func newComplianceCmd(opts *options) *cobra.Command {
	complianceCmd := &cobra.Command{
		Use:   "compliance",
		Short: "Record tenant compliance attestations",
	}

	var (
		compliant bool
		issue     string
	)
	set := &cobra.Command{
		Use:   "set <tenant-id> <framework>",
		Short: "Record the result of a framework audit for a tenant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			framework, err := parseFramework(args[1])
			if err != nil {
				return err
			}
			if !compliant && issue == "" {
				return fmt.Errorf("--issue is required when the tenant is not compliant")
			}
			return opts.withDB(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				return database.NewComplianceRepository(pool).SetControl(ctx, args[0], framework, compliant, issue, time.Now().UTC())
			})
		},
	}
	set.Flags().BoolVar(&compliant, "compliant", false, "Whether the tenant passed")
	set.Flags().StringVar(&issue, "issue", "", "Finding to report when the tenant did not pass")

	complianceCmd.AddCommand(set)
	return complianceCmd
}

func parseFramework(v string) (compliance.Framework, error) {
	for _, f := range compliance.Frameworks {
		if strings.EqualFold(string(f), v) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown compliance framework %q", v)
}

func newIngestCmd(opts *options) *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Record observed user activity",
	}

	location := &cobra.Command{
		Use:   "location <user-id> <location>",
		Short: "Record a location the user was seen at",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				return database.NewLocationRepository(pool).RecordLocation(ctx, args[0], args[1], time.Now().UTC())
			})
		},
	}

	metric := &cobra.Command{
		Use:   "metric <user-id> <metric> <value>",
		Short: "Record one behavioral metric sample",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid metric value %q: %w", args[2], err)
			}
			return opts.withDB(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				repo := database.NewBehaviorRepository(pool, database.DefaultHistoryLookback)
				return repo.RecordMetric(ctx, args[0], args[1], value, time.Now().UTC())
			})
		},
	}

	ingestCmd.AddCommand(location, metric)
	return ingestCmd
}
