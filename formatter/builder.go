package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/gnolang/tgrep/internal/match"
)

// output styles
const (
	StyleDefault = "default"
	StyleCompact = "compact"
)

var (
	matchStyle   = color.New(color.FgRed, color.Bold)
	tokenStyle   = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	contextStyle = color.New(color.FgWhite)
)

// recordFormatter is implemented by every output style.
type recordFormatter interface {
	RecordTemplate() string
}

// getRecordFormatter returns the formatter for style. Unknown styles fall
// back to the default one.
func getRecordFormatter(style string) recordFormatter {
	switch style {
	case StyleCompact:
		return &CompactFormatter{}
	default:
		return &SnippetFormatter{}
	}
}

// GenerateFormattedMatches renders records for a terminal, one block per
// record, in the given style.
func GenerateFormattedMatches(records []match.Record, style string) string {
	formatter := getRecordFormatter(style)
	tmpl := template.Must(template.New("record").Funcs(funcMap).Parse(formatter.RecordTemplate()))

	var builder strings.Builder
	for _, record := range records {
		builder.WriteString(buildRecord(record, tmpl))
	}
	return builder.String()
}

/***** Record Formatter Builder *****/

type RecordData struct {
	Source        string
	Page          int
	Offset        int
	MatchedToken  string
	ContextBefore string
	ContextAfter  string
	Padding       string
}

var funcMap = template.FuncMap{
	"header":    header,
	"snippet":   snippet,
	"underline": underline,
	"location":  location,
	"context":   contextStyle.Sprint,
	"token":     tokenStyle.Sprint,
}

func buildRecord(record match.Record, tmpl *template.Template) string {
	data := RecordData{
		Source:        record.Source,
		Page:          record.Position.Page,
		Offset:        record.Position.Offset,
		MatchedToken:  record.MatchedToken,
		ContextBefore: record.ContextBefore,
		ContextAfter:  record.ContextAfter,
		Padding:       "  ",
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting match: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(token string, source string, page int, offset int) string {
	endString := matchStyle.Sprint("match: ")
	endString += tokenStyle.Sprintf("%s\n", token)
	endString += lineStyle.Sprint(" --> ")
	endString += location(source, page, offset)
	return endString
}

func location(source string, page int, offset int) string {
	return fileStyle.Sprintf("%s:%d:%d", source, page, offset)
}

func snippet(before string, token string, after string, padding string) string {
	endString := lineStyle.Sprintf("%s|\n", padding)
	endString += lineStyle.Sprintf("%s| ", padding)
	if before != "" {
		endString += contextStyle.Sprint(before) + " "
	}
	endString += tokenStyle.Sprint(token)
	if after != "" {
		endString += " " + contextStyle.Sprint(after)
	}
	return endString
}

func underline(before string, token string, padding string) string {
	endString := lineStyle.Sprintf("%s| ", padding)
	if before != "" {
		endString += strings.Repeat(" ", visualWidth(before)+1)
	}
	endString += matchStyle.Sprintf("%s\n", strings.Repeat("^", max(visualWidth(token), 1)))
	return endString
}

// visualWidth counts runes; tokens never contain tabs or newlines.
func visualWidth(s string) int {
	return utf8.RuneCountInString(s)
}
