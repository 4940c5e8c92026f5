package main

import (
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-chat/core"
	"github.com/koscakluka/ema-chat/core/llms"
	"github.com/koscakluka/ema-chat/internal/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation (default)",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
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
	go monitor.Run(ctx)

	responder, err := newResponder(cfg, monitor)
	if err != nil {
		return err
	}

	store, err := openPrefs(cfg)
	if err != nil {
		logger.Warn("language preference will not be saved", "error", err)
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithResponder(responder),
		orchestration.WithConnectivity(monitor),
		orchestration.WithRetryPolicy(cfg.Retry),
		orchestration.WithLanguage(cfg.Speech.Language),
		orchestration.WithModel(llms.Model(cfg.Model)),
		orchestration.WithSessionID(cfg.SessionID),
		orchestration.WithResponseTimeout(cfg.LLM.ResponseTimeout),
	}
	if store != nil {
		opts = append(opts, orchestration.WithLanguageStore(store))
	}
	recognizer, closeCapture := newRecognizer(cfg, logger)
	defer closeCapture()
	if recognizer != nil {
		opts = append(opts, orchestration.WithSpeechToTextClient(recognizer))
	}

	orchestrator := orchestration.NewOrchestrator(opts...)
	defer orchestrator.Close()
	go func() {
		if err := orchestrator.Run(ctx); err != nil {
			logger.Error("orchestrator stopped", "error", err)
		}
	}()

	logger.Info("chat started", "provider", cfg.Provider, "model", orchestrator.Model(), "language", orchestrator.Language())

	title := fmt.Sprintf("ema-chat · %s · %s", orchestrator.Model().DisplayName(), orchestrator.Language())
	program := tea.NewProgram(tui.New(orchestrator, title), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
