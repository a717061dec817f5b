package utils

import (
	"regexp"
	"strings"
)

var (
	ocrArtifacts = strings.NewReplacer(
		"|", "",
		"!", "1",
		"l", "1",
	)
	equalsRun = regexp.MustCompile(`[ \t]*=+[ \t]*`)
)

// NormalizeOCRText repairs common recognition confusions before amounts are
// searched. The result is lossy: every lowercase "l" becomes "1".
func NormalizeOCRText(text string) string {
	if text == "" {
		return ""
	}

	t := ocrArtifacts.Replace(text)
	t = strings.ReplaceAll(t, "$=", " ")
	t = equalsRun.ReplaceAllStringFunc(t, func(m string) string {
		return " " + strings.Trim(m, " \t") + " "
	})
	return t
}
