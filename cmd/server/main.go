package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"crossbridge/internal/agent"
	"crossbridge/internal/bridge"
	"crossbridge/internal/chainhealth"
	"crossbridge/internal/config"
	"crossbridge/internal/registry"
	"crossbridge/internal/server"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "bridge",
		Short: "Cross-chain burn-then-mint orchestration API",
		Long: `Serves POST /bridge. Each transfer burns tokens through the source
chain's agent and then mints them through the destination chain's agent.
Configuration comes from BRIDGE_* environment variables, .env and --config.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "optional YAML/JSON/TOML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "chains",
		Short: "Print the chain registry and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			reg, err := registry.Load(cmd.Context(), cfg.Registry.Source, cfg.Registry.Path, cfg.Registry.DSN)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range reg.Entries() {
				rpc := e.RPCURL
				if rpc == "" {
					rpc = "-"
				}
				fmt.Fprintf(out, "%-10s %-28s %s\n", e.Name, e.AgentEndpoint, rpc)
			}
			return nil
		},
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("bridge exited")
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func serve(parent context.Context, cfg *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Load(ctx, cfg.Registry.Source, cfg.Registry.Path, cfg.Registry.DSN)
	if err != nil {
		return fmt.Errorf("registry error: %w", err)
	}

	var agents agent.Client = agent.NewHTTPClient(agent.HTTPClientConfig{Timeout: cfg.Agent.Timeout})
	if cfg.Agent.DryRun {
		log.Warn().Msg("agent dry run enabled, no agent will be contacted")
		agents = agent.DryRunClient{}
	}

	var deadLetter *bridge.DeadLetter
	if cfg.Bridge.DeadLetterDir != "" {
		deadLetter, err = bridge.NewDeadLetter(cfg.Bridge.DeadLetterDir)
		if err != nil {
			return fmt.Errorf("dead letter error: %w", err)
		}
	}

	checkers := make(map[string]chainhealth.Checker)
	for _, e := range reg.Entries() {
		if e.RPCURL == "" {
			continue
		}
		c := chainhealth.NewEthChecker(e.RPCURL)
		defer c.Close()
		checkers[e.Name] = c
	}

	metrics := server.NewMetrics()
	orch, err := bridge.NewOrchestrator(bridge.Config{
		Registry:   reg,
		Agents:     agents,
		DeadLetter: deadLetter,
		Observer:   metrics,
	})
	if err != nil {
		return err
	}

	apiServer := server.NewServer(cfg, server.Deps{
		Registry:   reg,
		Bridge:     orch,
		Metrics:    metrics,
		DeadLetter: deadLetter,
		Checkers:   checkers,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	return apiServer.Shutdown(shutdownCtx)
}
