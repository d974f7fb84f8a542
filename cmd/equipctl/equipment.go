package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"equipment-registry-backend/internal/model"
	"equipment-registry-backend/internal/parse"
	"equipment-registry-backend/internal/store"
)

// addDetailsFlags binds the amendable fields of an item to flags on cmd.
func addDetailsFlags(cmd *cobra.Command, d *model.Details) {
	cmd.Flags().StringVar(&d.Description, "description", "", "free-text description")
	cmd.Flags().StringVar(&d.Specifications, "specifications", "", "technical specifications")
	cmd.Flags().StringVar(&d.Condition, "condition", "", "physical condition")
	cmd.Flags().Uint64Var(&d.EstimatedValue, "value", 0, "estimated value")
	cmd.Flags().StringVar(&d.MaintenanceRequirements, "maintenance", "", "maintenance requirements")
	cmd.Flags().BoolVar(&d.TrainingRequired, "training-required", false, "operators need training")
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid equipment id %q", raw)
	}
	return id, nil
}

func newRegisterCmd(c *cli) *cobra.Command {
	var (
		name    string
		details model.Details
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a donated item and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.callerPrincipal()
			if err != nil {
				return err
			}
			reg, done, err := c.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			id, err := reg.Register(cmd.Context(), caller, name, details)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "item name")
	addDetailsFlags(cmd, &details)
	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set the status of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.callerPrincipal()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			reg, done, err := c.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if _, err := reg.UpdateStatus(cmd.Context(), caller, id, args[1]); err != nil {
				return fmt.Errorf("equipment %d: %w", id, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newDetailsCmd(c *cli) *cobra.Command {
	var details model.Details

	cmd := &cobra.Command{
		Use:   "details ID",
		Short: "Replace every amendable detail of an item",
		Long:  "Replace every amendable detail of an item. Fields whose flag is omitted are cleared.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.callerPrincipal()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			reg, done, err := c.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if _, err := reg.UpdateDetails(cmd.Context(), caller, id, details); err != nil {
				return fmt.Errorf("equipment %d: %w", id, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	addDetailsFlags(cmd, &details)
	return cmd
}

func newGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print an item as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			reg, done, err := c.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			e, err := reg.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("equipment %d not found", id)
			}
			return writeJSON(cmd.OutOrStdout(), e)
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	var owner, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print items as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.ListFilter{Status: status}
			if owner != "" {
				p, err := parse.ParsePrincipal(owner)
				if err != nil {
					return err
				}
				filter.Owner = p
			}

			reg, done, err := c.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			items, err := reg.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if items == nil {
				items = []model.Equipment{}
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "only items registered by this principal")
	cmd.Flags().StringVar(&status, "status", "", "only items with this status")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print registry statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, done, err := c.openRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			stats, err := reg.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}
