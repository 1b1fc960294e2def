package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// exitError carries the exit code of a failed command through cobra.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }
func (e exitError) Unwrap() error { return e.err }

var envFile string

var rootCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Multi-agent consensus chat",
	Long: `consensus connects to a chat room where several AI agents answer each
question and a consensus is built from their replies. It also ships a
development room server and a token minting helper.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file loaded before the environment")
	rootCmd.AddCommand(newChatCmd(), newServeCmd(), newTokenCmd(), newHistoryCmd())
}

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to run the command and handle the OS exit code.
	err := rootCmd.Execute()
	if err == nil {
		os.Exit(exitOK)
	}
	fmt.Fprintf(os.Stderr, "consensus terminated with error: %v\n", err)
	var exit exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	os.Exit(exitConfig)
}

// wrap adapts a run function following the exit code convention to cobra.
func wrap(run func(cmd *cobra.Command, args []string) (int, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		code, err := run(cmd, args)
		if err != nil {
			return exitError{code: code, err: err}
		}
		return nil
	}
}

func envFiles() []string {
	if envFile == "" {
		return nil
	}
	return []string{envFile}
}
