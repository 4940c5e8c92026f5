package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flags   = viper.New()
	cfgFile string
	envFile string
)

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSchemaCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./config.yaml or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File to load environment variables from")
	rootCmd.PersistentFlags().String("provider", "", "Chat completions provider: ionet, openai or groq")
	rootCmd.PersistentFlags().String("model", "", "Model to prompt")
	rootCmd.PersistentFlags().String("session", "", "Server-side chat session to thread prompts into")
	rootCmd.PersistentFlags().String("language", "", "Speech recognition language, as a BCP 47 tag")
	rootCmd.PersistentFlags().String("audio", "", "Audio capture backend: miniaudio or portaudio")
	rootCmd.PersistentFlags().String("log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	for key, flag := range map[string]string{
		"provider":        "provider",
		"model":           "model",
		"session_id":      "session",
		"speech.language": "language",
		"speech.audio":    "audio",
		"log_file":        "log-file",
		"log_level":       "log-level",
	} {
		if err := flags.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:           "ema-chat",
	Short:         "Talk or type to a language model from the terminal",
	Long:          `ema-chat streams chat completions into a terminal conversation and turns microphone speech into prompts.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runChat,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
