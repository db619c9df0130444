package main

import (
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"github.com/Garsondee/Rat-Sense/internal/config"
	"github.com/Garsondee/Rat-Sense/internal/game"
	"github.com/Garsondee/Rat-Sense/internal/viewer"
)

func main() {
	var (
		configPath string
		policy     string
		seed       int64
		dimension  int
		mobile     bool
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "viewer",
		Short: "Watch the agent localize itself and hunt the target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			tuning := config.DefaultTuningConfig()
			if configPath != "" {
				var err error
				if tuning, err = config.LoadTuningConfig(configPath); err != nil {
					return err
				}
			}
			cfg := game.ConfigFromTuning(tuning)
			if policy != "" {
				cfg.Policy = policy
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if dimension > 0 {
				cfg.Dimension = dimension
			}
			if cmd.Flags().Changed("mobile") {
				cfg.MobileTarget = mobile
			}

			v, err := viewer.New(cfg, log)
			if err != nil {
				return err
			}
			w, h := v.Size()
			ebiten.SetWindowTitle("Rat Sense")
			ebiten.SetWindowSize(w, h)
			return ebiten.RunGame(v)
		},
		SilenceUsage: true,
	}
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "tuning config file (.json, .yaml)")
	f.StringVar(&policy, "policy", "", "movement policy (greedy, value-iteration)")
	f.Int64Var(&seed, "seed", config.DefaultSeed, "game seed")
	f.IntVar(&dimension, "dimension", 0, "override the ship dimension")
	f.BoolVar(&mobile, "mobile", false, "let the target wander")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
