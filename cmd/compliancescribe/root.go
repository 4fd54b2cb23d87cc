package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for ComplianceScribe.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compliancescribe",
		Short: "PII compliance scanner for call recordings",
		Long: `ComplianceScribe transcribes call recordings with speaker diarization and
entity detection, lists the PII risks found in each call and exports a
redacted transcript.

The API key is read from --api-key, the ELEVENLABS_API_KEY environment
variable, or a .env file in the current directory.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
