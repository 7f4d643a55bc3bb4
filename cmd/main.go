/*
Package main is the entry point for the wschat terminal client.

It is responsible for loading configuration (environment, optional YAML file and
command-line flags), initializing the global logging system, wiring the chat session
to the terminal view and the notifier, and gracefully handling operating system
interrupt signals (SIGINT, SIGTERM) so the WebSocket is closed cleanly.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"wschat/internal/app/chat"
	"wschat/internal/app/notify"
	"wschat/internal/app/ui"
	"wschat/internal/configs"
	"wschat/internal/pkg/limiter"
	"wschat/internal/pkg/logx"
	"wschat/internal/pkg/randx"
)

var rootCmd = &cobra.Command{
	Use:          "wschat",
	Short:        "Terminal client for the WebSocket chat",
	RunE:         runChat,
	SilenceUsage: true,
}

var (
	flagServerURL string
	flagName      string
	flagNotify    string
	flagWidth     int
	flagColor     string
	flagLogFile   string
	flagEnv       string
	flagSendRate  float64
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServerURL, "url", "", "chat server WebSocket URL (overrides CHAT_SERVER_URL)")
	flags.StringVar(&flagName, "name", "", "log in with this name instead of asking (overrides CHAT_NAME)")
	flags.StringVar(&flagNotify, "notify", "", "notification backend: desktop, bell or off (overrides CHAT_NOTIFY)")
	flags.IntVar(&flagWidth, "width", 0, "terminal width in columns (overrides CHAT_WIDTH)")
	flags.StringVar(&flagColor, "color", "", "color mode: auto, always or never (overrides CHAT_COLOR)")
	flags.StringVar(&flagLogFile, "log-file", "", "write logs to this file instead of stderr (overrides CHAT_LOG_FILE)")
	flags.StringVar(&flagEnv, "env", "", "environment: development or production (overrides ENVIRONMENT)")
	flags.Float64Var(&flagSendRate, "send-rate", 0, "max chat messages per second, 0 for unlimited (overrides CHAT_SEND_RATE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logx.Fatal(err, "wschat exited with an error")
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Load configuration from environment variables and the optional config file
	cfg, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize global logger
	logOut, closeLog, err := openLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	logx.InitGlobalLogger(cfg.IsDevelopment(), logOut)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("server_url", logx.RedactEndpoint(cfg.ServerURL)).
		Str("notify", cfg.Notify).
		Float64("send_rate", cfg.SendRate).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color := useColor(cfg.Color)
	var out io.Writer = colorable.NewNonColorable(os.Stdout)
	if color {
		out = colorable.NewColorableStdout()
	}
	term := ui.NewTerminal(out, cfg.Width, color)

	presence := notify.NewPresence(cfg.IdleAfter)
	notifier := notify.New(notificationBackend(cfg.Notify), presence)

	session := chat.NewSession(term, chat.Options{
		Endpoint:  cfg.ServerURL,
		SessionID: randx.SessionID(),
		Limiter:   limiter.NewSendLimiter(cfg.SendRate, cfg.SendBurst),
		Notifier:  notifier,
	})

	sessionCtx, cancelSession := context.WithCancel(ctx)
	go session.Run(sessionCtx)

	console := ui.NewConsole(session, term, os.Stdin, presence)
	runErr := console.Run(ctx, cfg.Name)

	// Close the connection and wait for in-flight notifications.
	cancelSession()
	<-session.Done()
	notifier.Wait()

	if runErr != nil && ctx.Err() == nil {
		return runErr
	}

	logx.Info("Chat closed.")
	return nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *configs.AppConfig) {
	flags := cmd.Flags()

	if flags.Changed("url") {
		cfg.ServerURL = flagServerURL
	}
	if flags.Changed("name") {
		cfg.Name = flagName
	}
	if flags.Changed("notify") {
		cfg.Notify = flagNotify
	}
	if flags.Changed("width") {
		cfg.Width = flagWidth
	}
	if flags.Changed("color") {
		cfg.Color = flagColor
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if flags.Changed("env") {
		cfg.Environment = flagEnv
	}
	if flags.Changed("send-rate") {
		cfg.SendRate = flagSendRate
	}
}

// openLog returns the log destination: the named file, or stderr when path is empty.
func openLog(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func useColor(mode string) bool {
	switch mode {
	case configs.ColorAlways:
		return true
	case configs.ColorNever:
		return false
	default:
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
}

// notificationBackend maps CHAT_NOTIFY to a backend. Nil disables notifications.
func notificationBackend(kind string) notify.Backend {
	switch kind {
	case configs.NotifyDesktop:
		return notify.NewDesktop("wschat")
	case configs.NotifyBell:
		return notify.NewBell(os.Stderr)
	default:
		return nil
	}
}
