package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/koscakluka/ema-chat/core/audio"
	"github.com/koscakluka/ema-chat/core/audio/miniaudio"
	"github.com/koscakluka/ema-chat/core/audio/portaudio"
	"github.com/koscakluka/ema-chat/core/connectivity"
	"github.com/koscakluka/ema-chat/core/llms/completions"
	"github.com/koscakluka/ema-chat/core/llms/groq"
	"github.com/koscakluka/ema-chat/core/llms/ionet"
	"github.com/koscakluka/ema-chat/core/llms/openai"
	"github.com/koscakluka/ema-chat/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-chat/internal/config"
	"github.com/koscakluka/ema-chat/internal/prefs"
)

func loadConfig() (*config.Config, error) {
	return config.Load(
		config.WithViper(flags),
		config.WithConfigFile(cfgFile),
		config.WithEnvFile(envFile),
	)
}

// setupLogging sends logs to a file so they do not tear up the terminal UI.
func setupLogging(cfg *config.Config) (*log.Logger, func(), error) {
	path := cfg.LogFile
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to locate log directory: %w", err)
		}
		path = filepath.Join(dir, config.AppName+".log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.NewWithOptions(file, log.Options{
		ReportTimestamp: true,
		Prefix:          config.AppName,
	})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}
	slog.SetDefault(slog.New(logger))

	return logger, func() { _ = file.Close() }, nil
}

func newResponder(cfg *config.Config, checker connectivity.Checker) (*completions.Client, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	opts := []completions.Option{
		completions.WithConnectivity(checker),
		completions.WithTemperature(cfg.LLM.Temperature),
		completions.WithSystemPrompt(cfg.LLM.SystemPrompt),
		completions.WithStreaming(cfg.LLM.Streaming),
		completions.WithIdleTimeout(cfg.LLM.IdleTimeout),
		completions.WithRetryPolicy(cfg.Retry),
	}
	if cfg.LLM.Endpoint != "" {
		opts = append(opts, completions.WithEndpoint(cfg.LLM.Endpoint))
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(apiKey, opts...), nil
	case config.ProviderGroq:
		return groq.NewClient(apiKey, opts...), nil
	default:
		return ionet.NewClient(apiKey, opts...), nil
	}
}

type closableCapture interface {
	audio.Capture
	Close()
}

func newCapture(cfg *config.Config) (closableCapture, error) {
	switch cfg.Speech.Audio {
	case config.AudioPortaudio:
		return portaudio.NewClient(portaudio.DefaultFramesPerBuffer)
	default:
		return miniaudio.NewClient(miniaudio.WithSampleRate(cfg.Speech.SampleRate))
	}
}

// newRecognizer returns nil when speech recognition cannot be set up, which
// leaves the session text only.
func newRecognizer(cfg *config.Config, logger *log.Logger) (*deepgram.TranscriptionClient, func()) {
	if cfg.Speech.DeepgramAPIKey == "" {
		logger.Info("speech recognition disabled, DEEPGRAM_API_KEY is not set")
		return nil, func() {}
	}

	capture, err := newCapture(cfg)
	if err != nil {
		logger.Warn("speech recognition disabled, no microphone", "backend", cfg.Speech.Audio, "error", err)
		return nil, func() {}
	}

	recognizer := deepgram.NewTranscriptionClient(cfg.Speech.DeepgramAPIKey, capture,
		deepgram.WithModel(cfg.Speech.Model),
		deepgram.WithListenURL(cfg.Speech.ListenURL),
	)
	return recognizer, capture.Close
}

func newMonitor(cfg *config.Config) *connectivity.Monitor {
	return connectivity.NewMonitor(
		connectivity.WithCheckURL(cfg.Connectivity.CheckURL),
		connectivity.WithCheckInterval(cfg.Connectivity.CheckInterval),
		connectivity.WithCheckTimeout(cfg.Connectivity.CheckTimeout),
	)
}

func openPrefs(cfg *config.Config) (*prefs.Store, error) {
	path := cfg.PrefsFile
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate preferences directory: %w", err)
		}
		path = filepath.Join(dir, prefs.FileName)
	}
	return prefs.Open(path)
}
