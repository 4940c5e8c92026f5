package main

import (
	"fmt"

	"github.com/koscakluka/ema-chat/core/llms"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models that can be selected",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, model := range llms.SupportedModels() {
			marker := " "
			if model == llms.DefaultModel {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-14s %s\n", marker, model, model.DisplayName())
		}
	},
}
