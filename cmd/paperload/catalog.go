package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/nellis-lmt/paperload/internal/catalog"
	"github.com/spf13/cobra"
)

// catalogCmd prints the reference lists aircraft are validated against.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List units, callsigns, aircraft types and pod stations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCatalog(cmd.OutOrStdout())
	},
}

func printCatalog(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "UNIT\tCALLSIGNS")
	for _, u := range catalog.Units {
		fmt.Fprintf(tw, "%s\t%s\n", u.Name, strings.Join(u.Callsigns, " "))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "TYPE\tLOW ACTIVITY ONLY\tSTATIONS")
	for _, t := range catalog.Types(true) {
		lowOnly := "N"
		if !slices.Contains(catalog.HighActivityTypes, t) {
			lowOnly = "Y"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t, lowOnly, strings.Join(catalog.Stations(t), " "))
	}
	return tw.Flush()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "PaperLoad")
		fmt.Fprintf(out, "Version:    %s\n", CurrentVersion)
		fmt.Fprintf(out, "Built:      %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}
