// Package main implements echomectl, a terminal client for the EchoMe X API:
// take the personality quiz, chat with your twin and manage your twins.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/echome-x/internal/client"
	"github.com/tbourn/echome-x/internal/sysutil"
)

var (
	serverURL string
	statePath string
	noColor   bool
	timeout   time.Duration

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "echomectl",
	Short: "Talk to your EchoMe X AI twin from the terminal",
	Long: `echomectl is a command-line client for the EchoMe X server.

Examples:
  # Create a twin by answering the personality quiz
  echomectl quiz

  # Chat with it
  echomectl chat

  # Use another server
  echomectl --server http://localhost:9000/api twins`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (env ECHOME_SERVER, default http://localhost:8080/api)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "state file remembering the current twin")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output (env NO_COLOR)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")

	rootCmd.AddCommand(quizCmd, createCmd, chatCmd, twinsCmd, deleteCmd, healthCmd, analyticsCmd)
}

// session bundles what every command needs.
type session struct {
	api   *client.Client
	state client.State
	path  string
	ui    styles
}

func newSession() (*session, error) {
	path := sysutil.FirstNonEmpty(statePath, os.Getenv("ECHOME_STATE"), client.DefaultStatePath())
	st, err := client.LoadState(path)
	if err != nil {
		return nil, err
	}
	api := client.New(sysutil.FirstNonEmpty(serverURL, os.Getenv("ECHOME_SERVER"), "http://localhost:8080/api"))
	api.HTTP.Timeout = timeout
	api.OwnerToken = st.OwnerToken
	return &session{
		api:   api,
		state: st,
		path:  path,
		ui:    newStyles(!noColor && !sysutil.IsTruthy(os.Getenv("NO_COLOR"))),
	}, nil
}

// remember stores the created twin as the current one.
func (s *session) remember(c *client.Created) error {
	s.state.TwinID = c.ID
	s.state.TwinName = c.Name
	if s.state.OwnerToken == "" {
		s.state.OwnerToken = c.OwnerToken
	}
	if err := client.SaveState(s.path, s.state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
