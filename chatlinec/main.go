package main

import (
	"context"
	"fmt"
	"os"

	"github.com/davidbalbert/chatline/api"
	"github.com/davidbalbert/chatline/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var socket, address string

	cmd := &cobra.Command{
		Use:          "chatlinec",
		Short:        "Interactive console for chatlined",
		Long:         "chatlinec sends lines to chatlined as if they were typed into the game's chat box. Tab completes and ? describes the command under the cursor. Lines starting with : are handled by the console itself; try :help.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), socket, address)
		},
	}

	cmd.Flags().StringVarP(&socket, "socket", "s", config.DefaultSocket, "path to chatlined socket")
	cmd.Flags().StringVarP(&address, "address", "a", "", "host:port of chatlined, instead of the socket")

	return cmd
}

func run(ctx context.Context, socket, address string) error {
	client, err := api.NewClient(socket, address)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	session, err := client.OpenSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer client.CloseSession(context.Background(), session)

	cli := NewCLI(ctx, client, session)

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to make terminal raw: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	cli.Run(os.Stdin)

	return nil
}
