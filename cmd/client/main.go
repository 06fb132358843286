package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat/internal/app"
	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/log"
	"github.com/vovakirdan/roomchat/internal/view"
)

const actionTimeout = 2 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Client
	)

	cmd := &cobra.Command{
		Use:           "roomchat",
		Short:         "Terminal client for room-scoped chat sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.NewWithWriter("info", os.Stderr)
			cfg, path, err := config.LoadClient(bootLogger, configPath)
			if err != nil {
				bootLogger.Error().Err(err).Str("path", path).Msg("load config")
				return err
			}
			cfg.UpdateFrom(overrides)

			logger := log.NewWithWriter(cfg.LogLevel, os.Stderr)
			logger.Debug().Str("config", path).Str("server_url", cfg.ServerURL).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to roomchat.yaml")
	flags.StringVar(&overrides.ServerURL, "server-url", "", "chat server WebSocket URL")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.IdentityPath, "identity", "", "SQLite file holding the session identity")

	return cmd
}

func run(ctx context.Context, cfg config.Client, logger *zerolog.Logger, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := app.NewClient(ctx, cfg, logger, func(v view.View) {
		if err := view.Render(out, v); err != nil {
			logger.Warn().Err(err).Msg("render view")
		}
	})
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	fmt.Fprintln(out, view.Help())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if quit := handleLine(ctx, client, logger, out, line); quit {
				break loop
			}
		}
	}

	cancel()
	return <-done
}

// handleLine runs one input line and reports whether the user asked to quit.
func handleLine(ctx context.Context, client *app.Client, logger *zerolog.Logger, out io.Writer, line string) bool {
	actx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	fields := strings.Fields(line)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		switch fields[0] {
		case "/quit", "/exit":
			return true
		case "/help":
			fmt.Fprintln(out, view.Help())
		case "/join":
			room, name, email := parseJoin(fields[1:])
			reportAction(logger, out, "join", client.Join(actx, name, email, room))
		case "/leave":
			reportAction(logger, out, "leave", client.Leave(actx))
		default:
			fmt.Fprintf(out, "unknown command %s\n", fields[0])
		}
		return false
	}

	if err := client.Typing(actx); err != nil {
		logger.Debug().Err(err).Msg("typing pulse")
	}
	_, err := client.Send(actx, line)
	reportAction(logger, out, "send", err)
	return false
}

// parseJoin splits "/join" arguments as room, name, email. The room is the
// first word and the email the last; everything between is the name.
func parseJoin(args []string) (room, name, email string) {
	switch len(args) {
	case 0:
		return "", "", ""
	case 1:
		return args[0], "", ""
	case 2:
		return args[0], args[1], ""
	}
	last := len(args) - 1
	return args[0], strings.Join(args[1:last], " "), args[last]
}

func reportAction(logger *zerolog.Logger, out io.Writer, action string, err error) {
	var verrs core.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		// Shown inline by the view.
	case errors.Is(err, core.ErrNotInRoom), errors.Is(err, core.ErrAlreadyJoined), errors.Is(err, core.ErrJoinPending):
		fmt.Fprintln(out, err)
	default:
		logger.Warn().Err(err).Str("action", action).Msg("action failed")
	}
}
