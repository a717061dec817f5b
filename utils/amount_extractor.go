package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Aashish23092/pdf-reconciliation/dto"
)

// SelectionPolicy decides which surviving candidate becomes the document total.
type SelectionPolicy string

const (
	// PolicyLargest assumes the grand total is the largest figure printed.
	PolicyLargest SelectionPolicy = "largest"
	// PolicyLast takes the last qualifying figure in reading order.
	PolicyLast SelectionPolicy = "last"
)

// ExtractorOptions tunes the amount heuristics.
type ExtractorOptions struct {
	SensitiveKeywords []string        `yaml:"sensitive_keywords"`
	IgnoredValues     []float64       `yaml:"ignored_values"`
	MinAmount         float64         `yaml:"min_amount"`
	Policy            SelectionPolicy `yaml:"policy"`
	AnchorRules       bool            `yaml:"anchor_rules"`
}

func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		SensitiveKeywords: []string{
			"NOTA FISCAL",
			"NOTA DE DEBITO",
			"DANFE",
			"NFS-E",
			"MULTA",
			"PENALIDADE",
			"AUTO DE INFRACAO",
		},
		IgnoredValues: []float64{2024, 2025, 2026, 2027},
		MinAmount:     50,
		Policy:        PolicyLargest,
		AnchorRules:   true,
	}
}

const moneyPattern = `\d{1,3}(?:\.\d{3})*,\d{2}`

var (
	moneyRegex = regexp.MustCompile(moneyPattern)

	// The normalizer turns lowercase "l" into "1", so keywords tolerate both.
	anchorTotalEquals = regexp.MustCompile(`(?is)TOTA[L1].*?=\s*(?:R\$\s*)?(` + moneyPattern + `|\d+,\d{2})`)
	anchorNetTotal    = regexp.MustCompile(`(?is)(?:VA[L1]OR\s+TOTA[L1]|[L1][IÍ1]QUIDO|TOTA[L1]\s+A\s+PAGAR).*?(` + moneyPattern + `|\d+,\d{2})`)
)

type anchorRule struct {
	re        *regexp.Regexp
	rationale dto.Rationale
}

var anchorRules = []anchorRule{
	{re: anchorTotalEquals, rationale: dto.RationaleAnchorTotalEquals},
	{re: anchorNetTotal, rationale: dto.RationaleAnchorNetTotal},
}

// AmountExtractor picks a single monetary total out of noisy document text.
type AmountExtractor struct {
	opts     ExtractorOptions
	keywords []string
}

func NewAmountExtractor(opts ExtractorOptions) *AmountExtractor {
	if opts.Policy == "" {
		opts.Policy = PolicyLargest
	}
	keywords := make([]string, 0, len(opts.SensitiveKeywords))
	for _, k := range opts.SensitiveKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, foldKeyword(k))
		}
	}
	return &AmountExtractor{opts: opts, keywords: keywords}
}

// Extract returns the selected amount and the rule that chose it.
func (e *AmountExtractor) Extract(text string) dto.ExtractionResult {
	notFound := dto.ExtractionResult{Rationale: dto.RationaleNotIdentified}
	if strings.TrimSpace(text) == "" {
		return notFound
	}

	clean := NormalizeOCRText(text)
	sensitive := e.isSensitiveNormalized(clean)

	if e.opts.AnchorRules {
		for _, rule := range anchorRules {
			m := rule.re.FindStringSubmatch(clean)
			if len(m) < 2 {
				continue
			}
			if v := ParseAmount(m[1]); v > 0 {
				return dto.ExtractionResult{Amount: v, Rationale: rule.rationale}
			}
		}
	}

	candidates := e.Candidates(clean)
	var accepted []float64
	for _, v := range candidates {
		if sensitive {
			if v > 0 {
				accepted = append(accepted, v)
			}
			continue
		}
		if v > e.opts.MinAmount {
			accepted = append(accepted, v)
		}
	}
	if len(accepted) == 0 {
		return notFound
	}

	rationale := dto.RationaleThresholdSelection
	if sensitive {
		rationale = dto.RationaleSensitiveSelection
	}
	return dto.ExtractionResult{Amount: e.selectAmount(accepted), Rationale: rationale}
}

// Candidates lists every monetary figure in already normalized text, minus
// the ignored calendar-year values.
func (e *AmountExtractor) Candidates(normalized string) []float64 {
	var out []float64
	for _, raw := range moneyRegex.FindAllString(normalized, -1) {
		v := ParseAmount(raw)
		if e.ignored(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// IsSensitive reports whether text carries an official-document keyword.
func (e *AmountExtractor) IsSensitive(text string) bool {
	return e.isSensitiveNormalized(NormalizeOCRText(text))
}

func (e *AmountExtractor) isSensitiveNormalized(normalized string) bool {
	haystack := foldKeyword(normalized)
	for _, k := range e.keywords {
		if strings.Contains(haystack, k) {
			return true
		}
	}
	return false
}

func (e *AmountExtractor) ignored(v float64) bool {
	for _, y := range e.opts.IgnoredValues {
		if v == y {
			return true
		}
	}
	return false
}

func (e *AmountExtractor) selectAmount(values []float64) float64 {
	if e.opts.Policy == PolicyLast {
		return values[len(values)-1]
	}
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// foldKeyword uppercases, strips accents and reads "1" as "L".
func foldKeyword(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ToUpper(s)
	return strings.ReplaceAll(s, "1", "L")
}
