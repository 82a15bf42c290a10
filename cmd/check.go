package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gnolang/tgrep/internal/query"
)

var checkCmd = &cobra.Command{
	Use:   "check <expression>",
	Short: "Compile a query and print it back in canonical form",
	Long: `Parses and compiles the expression without searching anything. A valid query
is printed as a normalized s-expression; an invalid one is reported with its
position.
Example) tgrep check "(or (= Unix) (within 5 command line))"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCheck(os.Stdout, args[0]); err != nil {
			os.Exit(1)
		}
	},
}

var (
	errorStyle = color.New(color.FgRed, color.Bold)
	caretStyle = color.New(color.FgHiBlue, color.Bold)
)

func runCheck(w io.Writer, expr string) error {
	pred, err := query.Compile(expr)
	if err != nil {
		fmt.Fprint(w, describeQueryError(expr, err))
		return err
	}
	fmt.Fprintln(w, pred.String())
	return nil
}

// describeQueryError renders err with a caret under the offending token.
func describeQueryError(expr string, err error) string {
	var b strings.Builder
	b.WriteString(errorStyle.Sprint("error: "))
	b.WriteString(err.Error())
	b.WriteString("\n")

	var qerr *query.Error
	if !errors.As(err, &qerr) {
		return b.String()
	}

	pos := qerr.Position
	if pos < 0 {
		pos = len(expr)
	}
	width := max(len(qerr.Token), 1)
	b.WriteString("  " + expr + "\n")
	b.WriteString("  " + strings.Repeat(" ", pos))
	b.WriteString(caretStyle.Sprint(strings.Repeat("^", width)))
	b.WriteString("\n")
	return b.String()
}
