// Command mistql evaluates a query against JSON input read from a literal
// string, a file, or standard input, and writes the JSON result to standard
// output or a file (spec.md §6's "CLI surface").
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/tidwall/pretty"

	"github.com/mistql/mistql-go"
	"github.com/mistql/mistql-go/pkg/gardenwall"
	"github.com/mistql/mistql-go/pkg/types"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	flags := pflag.NewFlagSet("mistql", pflag.ContinueOnError)
	data := flags.StringP("data", "d", "", "literal JSON input")
	file := flags.StringP("file", "f", "", "path to a JSON input file")
	output := flags.StringP("output", "o", "", "write result to this path instead of stdout")
	prettyFlag := flags.BoolP("pretty", "p", false, "indent output by two spaces")
	version := flags.BoolP("version", "v", false, "print version and exit")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Fprintln(stdout, mistql.Version())
		return 0
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mistql [flags] <query>")
		return 2
	}
	query := flags.Arg(0)

	if *data != "" && *file != "" {
		fmt.Fprintln(os.Stderr, "mistql: --data and --file are mutually exclusive")
		return 2
	}

	raw, err := readInput(*data, *file, stdin)
	if err != nil {
		logger.Error("reading input", "error", err)
		return 1
	}

	if os.Getenv("MISTQL_DEBUG_TRACE") != "" {
		expr, err := mistql.Parse(query)
		if err != nil {
			logger.Error("parse failed", "error", err)
			return exitCode(err)
		}
		fmt.Fprintln(os.Stderr, expr.AST().String())
	}

	inputValue, err := gardenwall.DecodeJSON(raw)
	if err != nil {
		logger.Error("decoding input JSON", "error", err)
		return 1
	}

	expr, err := mistql.Parse(query)
	if err != nil {
		logger.Error("parse failed", "error", err)
		return exitCode(err)
	}

	result, err := mistql.Evaluate(expr, inputValue, nil)
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		return exitCode(err)
	}

	resultValue, err := gardenwall.Decode(result)
	if err != nil {
		logger.Error("encoding result", "error", err)
		return 1
	}

	out, err := gardenwall.EncodeJSON(resultValue)
	if err != nil {
		logger.Error("encoding result", "error", err)
		return 1
	}
	if *prettyFlag {
		out = pretty.PrettyOptions(out, &pretty.Options{Indent: "  "})
	}

	if err := writeOutput(*output, out, stdout); err != nil {
		logger.Error("writing output", "error", err)
		return 1
	}
	return 0
}

func readInput(data, file string, stdin io.Reader) ([]byte, error) {
	switch {
	case data != "":
		return []byte(data), nil
	case file != "":
		return os.ReadFile(file)
	default:
		return io.ReadAll(stdin)
	}
}

func writeOutput(path string, out []byte, stdout io.Writer) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, string(out))
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}

// exitCode maps a query error's taxonomy (§7) onto a distinct non-zero
// process exit status, so a caller scripting against this CLI can tell
// syntax errors apart from runtime failures without parsing stderr.
func exitCode(err error) int {
	var mqErr *types.Error
	if !errors.As(err, &mqErr) {
		return 1
	}
	switch mqErr.Kind {
	case types.ErrSyntax:
		return 3
	case types.ErrReference, types.ErrType, types.ErrRuntime:
		return 4
	default:
		return 1
	}
}
