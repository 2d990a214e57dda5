package docgen

import (
	"regexp"
	"strings"
)

var latexReplacer = strings.NewReplacer(
	"#", `\#`,
	"$", `\$`,
	"%", `\%`,
	"&", `\&`,
	"~", `\~{ }`,
	"_", `\_`,
	"^", `\^{ }`,
	`\`, `$\backslash$`,
	"{", `$\{$`,
	"}", `$\}$`,
	`"`, `\texttt{"}`,
	"|", `$|$`,
	"<", `$<$`,
	">", `$>$`,
)

var (
	controlCharRE = regexp.MustCompile("[\x00-\x1f]")
	fieldRE       = regexp.MustCompile(`@@(RAW:)?([A-Za-z0-9_]+)@@`)
)

// TextToLaTeX converts text into a form suitable for LaTeX input.
func TextToLaTeX(text string) string {
	return latexReplacer.Replace(controlCharRE.ReplaceAllString(text, " "))
}

// Fields are the values substituted into a template.
type Fields map[string]string

// Substitute replaces @@name@@ in template with the LaTeX-escaped field
// and @@RAW:name@@ with the field unchanged. Fields named in raw are never
// escaped. Unknown fields become empty.
func Substitute(template string, fields Fields, raw ...string) string {
	return fieldRE.ReplaceAllStringFunc(template, func(m string) string {
		sub := fieldRE.FindStringSubmatch(m)
		v := fields[sub[2]]
		if sub[1] != "" {
			return v
		}
		for _, r := range raw {
			if r == sub[2] {
				return v
			}
		}
		return TextToLaTeX(v)
	})
}

func boolField(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
