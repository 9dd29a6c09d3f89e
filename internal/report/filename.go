package report

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultExportName = "technical-report"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	pathSeparator = regexp.MustCompile(`[/\\]`)
)

// ExportFilename derives the download name for a report. The topic is
// trimmed, path separators and whitespace runs become hyphens and the result
// is lower-cased, so " AI " gives "ai" rather than "-ai-".
func ExportFilename(topic, ext string) string {
	name := strings.TrimSpace(topic)
	if name == "" {
		name = DefaultExportName
	}
	name = pathSeparator.ReplaceAllString(name, "-")
	name = whitespaceRun.ReplaceAllString(name, "-")
	name = cases.Lower(language.Und).String(name)
	return name + "." + strings.TrimPrefix(ext, ".")
}
