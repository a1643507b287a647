// Package redact scrubs secrets and personal data from transcripts before
// they leave the process as an export.
package redact

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sonnes/granth/core"
)

// Config controls which rules the Redactor applies.
type Config struct {
	Secrets    bool
	PII        bool
	ExtraRules []Rule
	Allowlist  []string // regex patterns whose matches are left alone
}

// ParseRuleSets builds a Config from rule set names ("secrets", "pii").
func ParseRuleSets(names []string) (Config, error) {
	var cfg Config
	for _, n := range names {
		switch strings.TrimSpace(n) {
		case "secrets":
			cfg.Secrets = true
		case "pii":
			cfg.PII = true
		default:
			return Config{}, fmt.Errorf("unknown redaction rule set %q", n)
		}
	}
	return cfg, nil
}

// Redactor replaces rule matches in turn text and citations.
type Redactor struct {
	rules     []Rule
	allowlist []*regexp.Regexp
}

// New creates a Redactor from the given config.
func New(cfg Config) *Redactor {
	var rules []Rule
	if cfg.Secrets {
		rules = append(rules, SecretRules()...)
	}
	if cfg.PII {
		rules = append(rules, PIIRules()...)
	}
	rules = append(rules, cfg.ExtraRules...)

	allowlist := make([]*regexp.Regexp, 0, len(cfg.Allowlist))
	for _, pattern := range cfg.Allowlist {
		if re, err := regexp.Compile(pattern); err == nil {
			allowlist = append(allowlist, re)
		}
	}

	return &Redactor{rules: rules, allowlist: allowlist}
}

// Empty reports whether the redactor has no rules.
func (r *Redactor) Empty() bool {
	return len(r.rules) == 0
}

// Transform implements core.Transformer.
func (r *Redactor) Transform(s *core.Session) error {
	if r.Empty() {
		return nil
	}
	s.RewriteText(r.String)
	return nil
}

// String applies all rules to s. Overlapping matches resolve to the earliest
// start, then the longest match. Allowlisted values are skipped.
func (r *Redactor) String(s string) string {
	if len(s) == 0 {
		return s
	}

	type replacement struct {
		start int
		end   int
		text  string
	}

	var reps []replacement
	for _, rule := range r.rules {
		for _, m := range rule.Detect(s) {
			if r.isAllowed(m.Value) {
				continue
			}
			reps = append(reps, replacement{start: m.Start, end: m.End, text: rule.Replacement(m)})
		}
	}
	if len(reps) == 0 {
		return s
	}

	sort.Slice(reps, func(i, j int) bool {
		if reps[i].start != reps[j].start {
			return reps[i].start < reps[j].start
		}
		return reps[i].end > reps[j].end
	})

	var b strings.Builder
	pos := 0
	for _, rep := range reps {
		if rep.start < pos {
			continue
		}
		b.WriteString(s[pos:rep.start])
		b.WriteString(rep.text)
		pos = rep.end
	}
	b.WriteString(s[pos:])
	return b.String()
}

func (r *Redactor) isAllowed(value string) bool {
	for _, re := range r.allowlist {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
