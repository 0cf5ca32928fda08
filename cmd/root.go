package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"chainlog/logx"
)

var rootCmd = &cobra.Command{
	Use:   "chainlog",
	Short: "chainlog tamper-evident chat history CLI",
	Long:  "Command line interface for inspecting and exercising chainlog chains, the peer-replicated hash-chained message log.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
