package formatter

// SnippetFormatter prints the matched token inside its context with an
// underline below it.
type SnippetFormatter struct{}

func (f *SnippetFormatter) RecordTemplate() string {
	return `{{header .MatchedToken .Source .Page .Offset}}
{{snippet .ContextBefore .MatchedToken .ContextAfter .Padding}}
{{underline .ContextBefore .MatchedToken .Padding}}
`
}

// CompactFormatter prints one line per match, grep style.
type CompactFormatter struct{}

func (f *CompactFormatter) RecordTemplate() string {
	return `{{location .Source .Page .Offset}}: {{if .ContextBefore}}{{context .ContextBefore}} {{end}}{{token .MatchedToken}}{{if .ContextAfter}} {{context .ContextAfter}}{{end}}
`
}
