package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nellis-lmt/paperload/internal/util"
)

// parseIntFromFloat parses a string that may be an integer ("2") or a whole
// float ("2.0") into int.
func parseIntFromFloat(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a whole number", s)
	}
	return int(f), nil
}

// parseFlag reads a yes/no argument. Blank is false.
func parseFlag(s string) (bool, error) {
	switch strings.ToUpper(s) {
	case "", "N", "NO":
		return false, nil
	case "Y", "YES":
		return true, nil
	}
	return strconv.ParseBool(s)
}

// Parser provides pure []string -> model struct conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// clean normalizes every raw argument in place.
func clean(data []string) {
	for i, v := range data {
		data[i] = util.CleanArg(v)
	}
}

func expectArgs(kind string, data []string, n int) error {
	if len(data) != n {
		return fmt.Errorf("%s: expected %d args, got %d", kind, n, len(data))
	}
	return nil
}

// ParseNumber parses a mission or player number argument.
func (p *Parser) ParseNumber(kind, arg string) (int, error) {
	n, err := parseIntFromFloat(util.CleanArg(arg))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s %q", kind, arg)
	}
	return n, nil
}
