package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	cfgDir   string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "paperload",
	Short: "Range mission and aircraft participation records",
	Long: `PaperLoad records range missions and the aircraft that flew them into a
daily working file, and exports the RAMPOD rosters and per-mission Half Sheets.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config-dir", ".", "directory holding paperload.cfg.json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// commandName accepts "aircraft:add", "AIRCRAFT ADD" or ":AIRCRAFT:ADD:".
func commandName(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", ":")
	s = strings.Trim(s, ":")
	return ":" + s + ":"
}

func writeResult(w io.Writer, v any) error {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// consoleNotifier reports workflow warnings on stderr.
type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) RowCounts(missions, aircraft int) {}
func (n consoleNotifier) SortieLock(locked bool)           {}
func (n consoleNotifier) Warn(message string) {
	fmt.Fprintln(n.w, "warning:", message)
}
