// Package resolver classifies a scraped document's provenance into bibliographic
// attributes using a declarative (host, path) rule table.
package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// Classification is the partial metadata derived from a referrer and label.
type Classification struct {
	Metadata gazette.Metadata
	Volume   VolumePolicy
	// Rule names the matched table entry, for logging.
	Rule string
}

// Resolver looks up classification rules and parses label fields.
type Resolver struct {
	rules    []Rule
	patterns map[string]HostPatterns
}

// New returns a Resolver over the built-in rule table.
func New() *Resolver {
	return NewWithRules(defaultRules, defaultPatterns)
}

// NewWithRules builds a Resolver over a custom table.
func NewWithRules(rules []Rule, patterns map[string]HostPatterns) *Resolver {
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		r.Host = normalizeHost(r.Host)
		normalized[i] = r
	}
	pats := make(map[string]HostPatterns, len(patterns))
	for host, p := range patterns {
		pats[normalizeHost(host)] = p
	}
	return &Resolver{rules: normalized, patterns: pats}
}

// Classify resolves the referrer's listing page and parses the label.
func (r *Resolver) Classify(referrer, label string) (Classification, error) {
	label = strings.TrimSpace(label)
	u, err := url.Parse(strings.TrimSpace(referrer))
	if err != nil {
		return Classification{}, fmt.Errorf("%w: parse referrer %q: %v", gazette.ErrUnrecognizedSource, referrer, err)
	}
	host := normalizeHost(u.Hostname())
	rule, ok := r.lookup(host, u.Path)
	if !ok {
		return Classification{}, fmt.Errorf("%w: no rule for host %q path %q", gazette.ErrUnrecognizedSource, host, u.Path)
	}

	cls := Classification{
		Metadata: gazette.Metadata{
			PublicationTitle:    rule.Title,
			PublicationSubtitle: rule.Subtitle,
			SpecialIssue:        rule.SpecialIssue,
			JurisdictionCode:    rule.Jurisdiction,
		},
		Volume: rule.Volume,
		Rule:   rule.Host + rule.Path,
	}

	if len(rule.Variants) > 0 {
		variant, ok := matchVariant(rule.Variants, label)
		if !ok {
			return Classification{}, fmt.Errorf("%w: label %q matches no variant of %s", gazette.ErrUnrecognizedSource, label, cls.Rule)
		}
		applyVariant(&cls, variant)
	}

	patterns, ok := r.patterns[host]
	if !ok || patterns.Issue == nil {
		return Classification{}, fmt.Errorf("%w: no label patterns for host %q", gazette.ErrUnrecognizedSource, host)
	}
	issue, ok := parseInt(patterns.Issue, label)
	if !ok {
		return Classification{}, fmt.Errorf("%w: no issue number in label %q", gazette.ErrExtraction, label)
	}
	cls.Metadata.IssueNumber = issue
	if part, ok := parseInt(patterns.Part, label); ok {
		cls.Metadata.PartNumber = gazette.IntPtr(part)
	}
	cls.Metadata.LanguageEdition = parseLanguage(patterns.Language, label)
	return cls, nil
}

func (r *Resolver) lookup(host, path string) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Host == host && !rule.PathPrefix && rule.Path == path {
			return rule, true
		}
	}
	for _, rule := range r.rules {
		if rule.Host == host && rule.PathPrefix && strings.HasPrefix(path, rule.Path) {
			return rule, true
		}
	}
	return Rule{}, false
}

func matchVariant(variants []Variant, label string) (Variant, bool) {
	for _, v := range variants {
		for _, token := range v.Tokens {
			if strings.Contains(label, token) {
				return v, true
			}
		}
	}
	return Variant{}, false
}

func applyVariant(cls *Classification, v Variant) {
	if v.Title != "" {
		cls.Metadata.PublicationTitle = v.Title
	}
	if v.Subtitle != "" {
		cls.Metadata.PublicationSubtitle = v.Subtitle
	}
	if v.Jurisdiction != "" {
		cls.Metadata.JurisdictionCode = v.Jurisdiction
	}
	if v.Volume != "" {
		cls.Volume = v.Volume
	}
	cls.Rule += "#" + v.Name
}

func parseInt(re *regexp.Regexp, s string) (int, bool) {
	if re == nil {
		return 0, false
	}
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseLanguage(re *regexp.Regexp, label string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(label)
	if len(m) < 2 {
		return ""
	}
	return languageCodes[strings.ToLower(m[1])]
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
