package fixes

import (
	"context"
	"fmt"
	"strings"
)

// Issue is a single accessibility finding to remediate.
type Issue struct {
	// Code is the machine-readable finding identifier, e.g.
	// "img-missing-alt" or "low-contrast".
	Code string `json:"code"`

	// Selector locates the offending element on the page.
	Selector string `json:"selector,omitempty"`

	// Snippet is the offending markup, when the scanner captured it.
	Snippet string `json:"snippet,omitempty"`

	// Description is the human-readable finding text.
	Description string `json:"description,omitempty"`
}

// Fix is a generated remediation for one issue.
type Fix struct {
	IssueCode   string `json:"issue_code"`
	Remediation string `json:"remediation"`
	Replacement string `json:"replacement,omitempty"`

	// Source names what produced the fix: "openai" or "rules".
	Source string `json:"source"`
}

// Generator produces remediations for scan findings.
type Generator interface {
	Generate(ctx context.Context, issues []Issue) ([]Fix, error)
}

// ruleTable maps finding codes to canned remediations. It backs the
// rule generator and the provider fallback.
var ruleTable = map[string]string{
	"img-missing-alt":      "Add an alt attribute describing the image content. Decorative images should use alt=\"\".",
	"low-contrast":         "Increase the contrast ratio between text and background to at least 4.5:1 (3:1 for large text).",
	"missing-label":        "Associate a <label> element with the form control via its id, or add an aria-label attribute.",
	"missing-lang":         "Declare the page language on the root element, e.g. <html lang=\"en\">.",
	"empty-link":           "Give the link discernible text, or an aria-label when the link is icon-only.",
	"empty-button":         "Give the button discernible text, or an aria-label when the button is icon-only.",
	"duplicate-id":         "Make element id values unique within the page; assistive technology resolves ids to a single element.",
	"heading-order":        "Restructure headings so levels descend without skipping, e.g. h1 then h2 then h3.",
	"missing-title":        "Add a <title> element inside <head> that describes the page.",
	"no-keyboard-access":   "Make the control reachable and operable with the keyboard; use a native element or add tabindex=\"0\" and key handlers.",
	"aria-invalid-role":    "Replace the role value with one defined by WAI-ARIA, or remove the role attribute.",
	"table-missing-header": "Mark header cells with <th> and associate them to data cells with the scope attribute.",
}

const genericRemediation = "Review the element against the relevant WCAG 2.1 success criterion and correct the markup."

// RuleGenerator answers from the static rule table. It never fails.
type RuleGenerator struct{}

// NewRuleGenerator creates the deterministic generator.
func NewRuleGenerator() *RuleGenerator {
	return &RuleGenerator{}
}

// Generate returns one fix per issue, in order.
func (g *RuleGenerator) Generate(_ context.Context, issues []Issue) ([]Fix, error) {
	fts := make([]Fix, 0, len(issues))
	for _, issue := range issues {
		remediation, ok := ruleTable[normalizeCode(issue.Code)]
		if !ok {
			remediation = genericRemediation
		}
		fts = append(fts, Fix{
			IssueCode:   issue.Code,
			Remediation: remediation,
			Source:      "rules",
		})
	}
	return fts, nil
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func describeIssue(issue Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- code: %s", issue.Code)
	if issue.Selector != "" {
		fmt.Fprintf(&b, "\n  selector: %s", issue.Selector)
	}
	if issue.Snippet != "" {
		fmt.Fprintf(&b, "\n  snippet: %s", issue.Snippet)
	}
	if issue.Description != "" {
		fmt.Fprintf(&b, "\n  description: %s", issue.Description)
	}
	return b.String()
}
