package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nellis-lmt/paperload/internal/util"
	"github.com/spf13/cobra"
)

// runCmd dispatches a single command against today's working file.
var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run one operator command",
	Example: `  paperload run aircraft:add 0800 2024-05-01 0800 1000 P123 2 M,2,3 3 N "16 WPS" SNAKE F-16 2A AF88 1200 50001 GT
  paperload run mission:submit
  paperload run export:halfsheet 1 JD`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(consoleNotifier{w: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Dispatch(commandName(args[0]), args[1:])
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), res)
	},
}

// shellCmd reads commands line by line until EOF or "quit".
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Read operator commands from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(consoleNotifier{w: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		return shell(a, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func shell(a *app, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
		case "quit", "exit":
			return nil
		case "help":
			for _, c := range a.events.Commands() {
				fmt.Fprintf(out, "%-24s %s\n", c, a.events.UsageOf(c))
			}
		default:
			fields, err := util.SplitArgs(line)
			if err != nil || len(fields) == 0 {
				fmt.Fprintln(errOut, "error:", err)
				break
			}
			res, err := a.Dispatch(commandName(fields[0]), fields[1:])
			if err != nil {
				fmt.Fprintln(errOut, "error:", err)
				break
			}
			if err := writeResult(out, res); err != nil {
				return err
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(shellCmd)
}
