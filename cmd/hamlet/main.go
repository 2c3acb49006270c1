// Command hamlet runs the autonomous villager settlement simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/hamlet/internal/api"
	"github.com/talgya/hamlet/internal/config"
	"github.com/talgya/hamlet/internal/persistence"
	"github.com/talgya/hamlet/internal/sim"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hamlet",
	Short: "Autonomous villager settlement simulation",
	Long: `Hamlet simulates a settlement of autonomous villagers: they find
resources, haul them home, raise buildings, and grow the population, one
tick at a time. State persists to SQLite; a read-only HTTP API observes
the world while it runs.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/tuning.yaml", "tuning file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		speed   float64
		noAPI   bool
		maxTick uint64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			db, err := persistence.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			slog.Info("database opened", "path", cfg.DBPath)

			world := sim.New(cfg)
			restored, err := db.RestoreWorldState(world)
			if err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			if !restored {
				slog.Info("starting a fresh world", "seed", cfg.Seed)
			}

			var server *api.Server
			if !noAPI {
				server = api.NewServer(db, cfg.APIPort)
				server.Start()
			}

			engine := sim.NewEngine(
				time.Duration(cfg.TickIntervalMs)*time.Millisecond,
				cfg.DayTicks,
			)
			engine.Tick = world.CurrentTick()
			engine.Speed = speed
			engine.OnTick = func(tick uint64) {
				world.Step(tick)
				if server != nil {
					server.Publish(world.Snapshot())
				}
				if cfg.SnapshotEvery > 0 && tick%uint64(cfg.SnapshotEvery) == 0 {
					if err := db.SaveWorldState(world); err != nil {
						slog.Error("periodic save failed", "error", err)
					}
				}
				if maxTick > 0 && tick >= maxTick {
					engine.Stop()
				}
			}

			// Save on SIGINT/SIGTERM, then exit cleanly.
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigs
				slog.Info("shutting down", "signal", sig.String())
				engine.Stop()
			}()

			engine.Run()

			if err := db.SaveWorldState(world); err != nil {
				return fmt.Errorf("final save: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 1.0, "tick speed multiplier (0 = paused)")
	cmd.Flags().BoolVar(&noAPI, "no-api", false, "disable the HTTP API")
	cmd.Flags().Uint64Var(&maxTick, "max-tick", 0, "stop after this tick (0 = run forever)")
	return cmd
}
