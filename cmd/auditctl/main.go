// Package main provides the auditctl CLI for inspecting the audit event
// store.
//
// Usage:
//
//	auditctl stats --config ./configs/config.local.yaml
//	auditctl history Order 42 --config ./configs/config.local.yaml
//	auditctl state Order 42 --at 2026-01-15T10:00:00Z
//	auditctl version Order 42
//
// The config file carries the same "mongo" and "event-sourcing" sections the
// library consumes; auditctl always talks to the MongoDB provider.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Sokol111/ecommerce-eventstore/pkg/eventstore"
	esmongo "github.com/Sokol111/ecommerce-eventstore/pkg/eventstore/mongo"
	persistencemongo "github.com/Sokol111/ecommerce-eventstore/pkg/persistence/mongo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "auditctl",
		Short:         "Inspect the audit event store",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./configs/config.local.yaml", "path to the config file")

	rootCmd.AddCommand(
		newStatsCmd(&configFile),
		newHistoryCmd(&configFile),
		newStateCmd(&configFile),
		newVersionCmd(&configFile),
	)

	return rootCmd
}

// withStore connects to MongoDB, runs fn against the event store and
// disconnects afterwards.
func withStore(configFile string, fn func(ctx context.Context, store *esmongo.Store, conf eventstore.Config, log *zap.Logger) error) error {
	ctx := context.Background()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file [%s]: %w", configFile, err)
	}

	mongoConf, err := persistencemongo.NewConfig(v)
	if err != nil {
		return err
	}
	storeConf, err := eventstore.NewConfig(v)
	if err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	m, err := persistencemongo.NewMongo(log, mongoConf)
	if err != nil {
		return err
	}
	if err := m.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = m.Disconnect(context.Background()) }()

	bulkhead := persistencemongo.NewBulkhead(mongoConf.MaxConcurrentOps, mongoConf.AcquireTimeout, log)
	return fn(ctx, esmongo.NewStore(m, bulkhead, storeConf, log), storeConf, log)
}

func printJSON(value any) error {
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func newStatsCmd(configFile *string) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show event counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuery(from, to, 0)
			if err != nil {
				return err
			}
			return withStore(*configFile, func(ctx context.Context, store *esmongo.Store, _ eventstore.Config, _ *zap.Logger) error {
				stats, err := store.Statistics(ctx, q)
				if err != nil {
					return err
				}
				return printJSON(stats)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "lower time bound (RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "upper time bound (RFC 3339)")

	return cmd
}

func newHistoryCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <aggregate-type> <aggregate-id>",
		Short: "Show the event stream of an aggregate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(*configFile, func(ctx context.Context, store *esmongo.Store, _ eventstore.Config, _ *zap.Logger) error {
				events, err := store.Events(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(events)
			})
		},
	}
	return cmd
}

func newStateCmd(configFile *string) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "state <aggregate-type> <aggregate-id>",
		Short: "Reconstruct aggregate state, optionally at a point in time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(*configFile, func(ctx context.Context, store *esmongo.Store, conf eventstore.Config, log *zap.Logger) error {
				replayer := eventstore.NewReplayer(store, conf, log)

				var agg *eventstore.Aggregate
				var err error
				if at != "" {
					cutoff, parseErr := time.Parse(time.RFC3339, at)
					if parseErr != nil {
						return fmt.Errorf("invalid --at value [%s]: %w", at, parseErr)
					}
					agg, err = replayer.StateAt(ctx, args[0], args[1], cutoff)
				} else {
					agg, err = replayer.Replay(ctx, args[0], args[1])
				}
				if err != nil {
					return err
				}
				return printJSON(agg)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "reconstruct state as of this time (RFC 3339)")

	return cmd
}

func newVersionCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version <aggregate-type> <aggregate-id>",
		Short: "Show the latest version of an aggregate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(*configFile, func(ctx context.Context, store *esmongo.Store, _ eventstore.Config, _ *zap.Logger) error {
				latest, err := store.LatestVersion(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(map[string]any{
					"aggregate_type": args[0],
					"aggregate_id":   args[1],
					"version":        latest,
				})
			})
		},
	}
	return cmd
}

func parseQuery(from, to string, limit int) (eventstore.Query, error) {
	var q eventstore.Query
	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return q, fmt.Errorf("invalid --from value [%s]: %w", from, err)
		}
		q.From = t
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return q, fmt.Errorf("invalid --to value [%s]: %w", to, err)
		}
		q.To = t
	}
	q.Limit = limit
	return q, nil
}
