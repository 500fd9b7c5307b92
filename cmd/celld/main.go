// Command celld runs the character-cell display engine's server: two
// TCP listeners, one for applications speaking the line-delimited JSON
// protocol and one for raw clients.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"celld/internal/config"
	"celld/internal/server"
)

var (
	version  = "dev"
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "celld [app-port] [client-port]",
		Short: "Character-cell display engine server",
		Long: `celld - character-cell display engine server

Listens on two TCP ports: one for applications driving the display via
line-delimited JSON commands, one for raw clients receiving the
rendered ANSI byte stream and sending back keyboard/mouse input.

Ports omitted on the command line fall back to the user config file
($XDG_CONFIG_HOME/celld/config.toml), then to 6121/6123.`,
		Example: `  # Run with the default ports
  celld 6121 6123

  # Run with verbose logging
  celld --log-level=messages 6121 6123`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Logging verbosity: off, errors, basic, messages, trace")

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
	); err != nil {
		os.Exit(1)
	}
}

func run(args []string) error {
	userCfg, err := config.LoadUserConfig()
	if err != nil {
		return err
	}

	appPort := strconv.Itoa(userCfg.Server.AppPort)
	clientPort := strconv.Itoa(userCfg.Server.ClientPort)
	if len(args) > 0 {
		appPort = args[0]
	}
	if len(args) > 1 {
		clientPort = args[1]
	}
	if _, err := strconv.Atoi(appPort); err != nil {
		return fmt.Errorf("app port: %w", err)
	}
	if _, err := strconv.Atoi(clientPort); err != nil {
		return fmt.Errorf("client port: %w", err)
	}

	// Flag beats environment beats config file.
	level := config.ParseLevel(userCfg.Server.LogLevel)
	if envLevel, ok := config.LevelFromEnv(); ok {
		level = envLevel
	}
	if logLevel != "" {
		level = config.ParseLevel(logLevel)
	}
	logger := config.NewLogger(level, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Infof("shutting down")
		cancel()
	}()

	srv := server.New(
		net.JoinHostPort("", appPort),
		net.JoinHostPort("", clientPort),
		logger,
		userCfg.Window,
	)
	return srv.Run(ctx)
}
