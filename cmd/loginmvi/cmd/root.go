// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cmd defines the loginmvi command tree.
package cmd

import (
	"bytes"
	"context"

	"github.com/z5labs/mvi"
	"github.com/z5labs/mvi/cmd/loginmvi/app"
	"github.com/z5labs/mvi/pkg/config"

	"github.com/spf13/cobra"
)

// EnvPrefix prefixes every environment variable read by loginmvi.
const EnvPrefix = "LOGINMVI"

// Execute runs the command tree with args.
func Execute(ctx context.Context, args ...string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCmd returns the loginmvi root command.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "loginmvi",
		Short:        "Drive the login screen from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")

	root.AddCommand(
		newLoginCmd(&configPath),
		newRegisterCmd(&configPath),
	)
	return root
}

type credentials struct {
	email    string
	password string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.email, "email", "", "account email")
	cmd.Flags().StringVar(&c.password, "password", "", "account password")
}

func run(cmd *cobra.Command, configPath string, req app.Request) error {
	v, err := config.NewViper(configPath, EnvPrefix, app.ConfigKeys...)
	if err != nil {
		return err
	}

	return mvi.Run(
		cmd.Context(),
		app.Builder(req, cmd.OutOrStdout(), cmd.ErrOrStderr()),
		config.FromYaml(bytes.NewReader(app.DefaultConfig)),
		config.FromViper(v),
	)
}

func newLoginCmd(configPath *string) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Type the credentials and press the login button",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, *configPath, app.Request{
				Operation: app.OperationLogin,
				Email:     creds.email,
				Password:  creds.password,
			})
		},
	}
	creds.bind(cmd)
	return cmd
}

func newRegisterCmd(configPath *string) *cobra.Command {
	var creds credentials
	var displayName string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, *configPath, app.Request{
				Operation:   app.OperationRegister,
				Email:       creds.email,
				Password:    creds.password,
				DisplayName: displayName,
			})
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&displayName, "display-name", "", "name shown to other users")
	return cmd
}
