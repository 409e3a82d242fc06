// Package moderation scans user-generated content for
// platform-circumvention signals: attempts to move payment or
// conversation off the marketplace, including obfuscated contact
// details written to evade literal matching.
package moderation

import (
	"regexp"
	"strings"
)

// Severity classifies how serious a verdict is.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Tags distinguishing pattern matches from vocabulary matches in a
// verdict's term list, so severity stays recomputable from the terms.
const (
	phoneTag = "phone:"
	emailTag = "email:"
)

// Verdict is the pure output of a scan. Severity is derived from Terms
// and never stored independently.
type Verdict struct {
	Flagged  bool     `json:"is_flagged"`
	Terms    []string `json:"flagged_terms,omitempty"`
	Severity Severity `json:"severity"`
}

// circumventionPhrases are the strong signals: payment rails and
// off-platform channels. Any of these alongside concrete contact info
// is treated as an attempt to take a transaction off the platform.
var circumventionPhrases = []string{
	"venmo",
	"paypal",
	"zelle",
	"cash app",
	"cashapp",
	"western union",
	"wire transfer",
	"bank transfer",
	"pay outside",
	"pay off platform",
	"pay me directly",
	"pay directly",
	"pay in cash",
	"cash only",
	"avoid fees",
	"avoid the fee",
	"skip the fee",
	"off the books",
	"whatsapp",
	"telegram",
	"wechat",
	"signal me",
}

// solicitationPhrases are the mild signals: asking to be contacted
// without naming a channel or payment rail. Alone they flag but stay
// minor.
var solicitationPhrases = []string{
	"text me",
	"call me",
	"email me",
	"dm me",
	"direct message",
	"message me directly",
	"contact me directly",
	"reach me at",
	"my number",
	"my cell",
	"my email",
}

var (
	// "word at word dot word" and the bracketed/parenthesized variants,
	// spaced or not.
	obfuscatedEmailPattern = regexp.MustCompile(
		`(?i)[a-z0-9._%+-]{2,}\s*(?:@|\(\s*at\s*\)|\[\s*at\s*\]|\sat\s)\s*[a-z0-9-]{2,}\s*(?:\.|\(\s*dot\s*\)|\[\s*dot\s*\]|\sdot\s)\s*[a-z]{2,}`)

	// Phone numbers with common separators and an optional country code.
	phonePattern = regexp.MustCompile(
		`(?:\+?\d{1,3}[-. ])?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`)
)

var circumventionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(circumventionPhrases))
	for _, p := range circumventionPhrases {
		set[p] = struct{}{}
	}
	return set
}()

// Scan is a pure function over a text blob. It unions vocabulary
// matches, obfuscated-email matches, and phone matches into one ordered
// term list and derives severity from it. It has no side effects and is
// safe for concurrent use.
func Scan(text string) Verdict {
	lower := strings.ToLower(text)

	var terms []string
	seen := make(map[string]struct{})
	add := func(term string) {
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	for _, phrase := range circumventionPhrases {
		if strings.Contains(lower, phrase) {
			add(phrase)
		}
	}
	for _, phrase := range solicitationPhrases {
		if strings.Contains(lower, phrase) {
			add(phrase)
		}
	}
	for _, match := range obfuscatedEmailPattern.FindAllString(text, -1) {
		add(emailTag + strings.ToLower(strings.TrimSpace(match)))
	}
	for _, match := range phonePattern.FindAllString(text, -1) {
		add(phoneTag + strings.TrimSpace(match))
	}

	return Verdict{
		Flagged:  len(terms) > 0,
		Terms:    terms,
		Severity: SeverityFor(terms),
	}
}

// SeverityFor recomputes severity from a term list.
//
// Order matters: no matches is an unflagged LOW; a circumvention phrase
// combined with concrete contact info (phone or obfuscated email) is
// HIGH; either signal alone, or three or more distinct terms, is
// MEDIUM; solicitation phrases alone stay LOW.
func SeverityFor(terms []string) Severity {
	if len(terms) == 0 {
		return SeverityLow
	}

	hasCircumvention := false
	hasContactInfo := false
	for _, term := range terms {
		switch {
		case strings.HasPrefix(term, phoneTag), strings.HasPrefix(term, emailTag):
			hasContactInfo = true
		default:
			if _, ok := circumventionSet[term]; ok {
				hasCircumvention = true
			}
		}
	}

	switch {
	case hasCircumvention && hasContactInfo:
		return SeverityHigh
	case hasCircumvention || hasContactInfo || len(terms) >= 3:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
