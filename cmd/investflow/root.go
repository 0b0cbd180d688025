package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/investflow/internal/app"
	"github.com/bobmcallan/investflow/internal/apperr"
)

// appLoader builds the App for a config path.
type appLoader func(configPath string) (*app.App, error)

func defaultLoader(configPath string) (*app.App, error) {
	return app.NewApp(configPath)
}

// cli carries state shared by all subcommands.
type cli struct {
	load appLoader
	app  *app.App
	out  io.Writer

	configPath string
	email      string
	password   string
}

func newRootCmd(load appLoader) *cobra.Command {
	c := &cli{load: load, out: os.Stdout}

	root := &cobra.Command{
		Use:           "investflow",
		Short:         "InvestFlow portfolio tracker",
		Long:          "Manage InvestFlow holdings, broker imports and AI insights from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			if cmd.Annotations["app"] == "none" {
				return nil
			}
			a, err := c.load(c.configPath)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				c.app.Close()
				c.app = nil
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file path (default: INVESTFLOW_CONFIG or config/investflow.toml)")
	flags.StringVar(&c.email, "email", os.Getenv("INVESTFLOW_EMAIL"), "account email (env INVESTFLOW_EMAIL)")
	flags.StringVar(&c.password, "password", os.Getenv("INVESTFLOW_PASSWORD"), "account password (env INVESTFLOW_PASSWORD)")

	root.AddCommand(
		c.versionCmd(),
		c.registerCmd(),
		c.holdingsCmd(),
		c.statsCmd(),
		c.allocationCmd(),
		c.importCmd(),
		c.insightCmd(),
	)
	return root
}

// ownerID signs in with the account flags and returns the user ID.
func (c *cli) ownerID(ctx context.Context) (string, error) {
	if c.email == "" || c.password == "" {
		return "", fmt.Errorf("--email and --password are required")
	}
	res, err := c.app.AuthService.Login(ctx, c.email, c.password)
	if err != nil {
		return "", userError(err)
	}
	return res.User.ID, nil
}

// userError reduces err to its user-facing message when it is classified.
func userError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return errors.New(ae.Message)
	}
	return err
}
