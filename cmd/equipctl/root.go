package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"equipment-registry-backend/config"
	"equipment-registry-backend/internal/db"
	"equipment-registry-backend/internal/ledger"
	"equipment-registry-backend/internal/model"
	"equipment-registry-backend/internal/parse"
	"equipment-registry-backend/internal/registry"
	"equipment-registry-backend/internal/store"
)

const defaultConfigPath = "./config/config.yaml"

// cli carries the state shared by every subcommand.
type cli struct {
	cfgFile string
	caller  string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "equipctl",
		Short: "Administer the donated medical equipment registry",
		Long: `equipctl operates on the registry database named in the configuration file.

Mutating commands act on behalf of the principal given with --as; only the
principal that registered an item may change it.

Examples:
  # Mint a bearer token for the HTTP API
  equipctl token --principal ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM

  # Register an item and move it through its lifecycle
  equipctl register --as ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM --name "MRI Scanner" --value 500000
  equipctl status 1 allocated --as ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM

  # Inspect
  equipctl get 1
  equipctl list --status available | jq '.[].name'`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd.Flags().Changed("config"))
		},
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = defaultConfigPath
	}
	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", defaultPath, "config file")
	root.PersistentFlags().StringVar(&c.caller, "as", "", "principal performing a mutation")

	root.AddCommand(
		newTokenCmd(c),
		newRegisterCmd(c),
		newStatusCmd(c),
		newDetailsCmd(c),
		newGetCmd(c),
		newListCmd(c),
		newStatsCmd(c),
	)
	return root
}

// loadConfig reads the config file. A missing default file falls back to
// built-in defaults; a missing explicit file is an error.
func (c *cli) loadConfig(explicit bool) error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			c.cfg = config.Default()
			return nil
		}
		return fmt.Errorf("loading config %s: %w", c.cfgFile, err)
	}
	c.cfg = cfg
	return nil
}

// openRegistry opens the configured database and returns a registry whose
// registrations are stamped one block past the highest stored height.
func (c *cli) openRegistry(ctx context.Context) (*registry.Registry, func(), error) {
	if c.cfg.Database.Driver == config.DriverMemory {
		return nil, nil, errors.New("equipctl needs a persistent database; the memory driver keeps nothing between runs")
	}

	gormDB, err := db.Init(&c.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	s := store.NewGormStore(gormDB)
	stats, err := s.Stats(ctx)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	chain := ledger.NewChain(c.cfg.Ledger.StartHeight, stats.MaxHeight, 0)

	return registry.New(s, ledger.Fixed(chain.Height())), closeDB, nil
}

// callerPrincipal returns the validated --as principal.
func (c *cli) callerPrincipal() (model.Principal, error) {
	if c.caller == "" {
		return "", errors.New("--as is required for this command")
	}
	return parse.ParsePrincipal(c.caller)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
