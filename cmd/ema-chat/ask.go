package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/koscakluka/ema-chat/core/llms"
	"github.com/koscakluka/ema-chat/internal/utils"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send a single prompt and stream the response to stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitor := newMonitor(cfg)
	monitor.Set(monitor.Check(ctx))

	responder, err := newResponder(cfg, monitor)
	if err != nil {
		return err
	}
	model, err := llms.ParseModel(cfg.Model)
	if err != nil {
		return err
	}

	var sessionID *string
	if cfg.SessionID != "" {
		sessionID = utils.Ptr(cfg.SessionID)
	}

	out := cmd.OutOrStdout()
	streamed := false
	text, err := responder.Send(ctx, prompt, model.String(), sessionID, func(chunk string) {
		streamed = true
		fmt.Fprint(out, chunk)
	})
	if !streamed && text != "" {
		fmt.Fprint(out, text)
	}
	fmt.Fprintln(out)

	if err != nil {
		logger.Error("prompt failed", "model", model, "error", err)
		return err
	}
	return nil
}
