// Package main is the deferlink development CLI: run attribution checks
// against a real or stub server, inspect persisted state, and serve a local
// stub endpoint for host-app development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	deferlink "github.com/deferlink/deferlink-go"
	"github.com/deferlink/deferlink-go/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "deferlink",
		Short:         "Deferred deep link attribution client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCheckCmd(),
		newAttributeCmd(),
		newResetCmd(),
		newVersionCmd(),
		newStubCmd(),
	)
	return root
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the deferred deep link check and print the verdict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, cleanup, err := buildClient(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := client.CheckForDeferredDeepLink(ctx)
			if errors.Is(err, deferlink.ErrSimulator) {
				fmt.Fprintln(cmd.OutOrStdout(), "skipped: running in simulator")
				return nil
			}
			if err != nil {
				return err
			}
			return printResult(cmd, result)
		},
	}
}

func newAttributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attribute <url>",
		Short: "Resolve a directly opened link URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, cleanup, err := buildClient(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := client.HandleUniversalLink(ctx, args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, result)
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear persisted attribution state (debug only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, cleanup, err := buildClient(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := client.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "attribution state cleared")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the SDK version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), deferlink.Version)
		},
	}
}

// buildClient assembles a configured SDK client from the environment.
func buildClient(ctx context.Context) (*deferlink.Client, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg.newClient(ctx)
}

func printResult(cmd *cobra.Command, result *model.DeepLinkResult) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
