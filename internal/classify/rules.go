// Package classify resolves vendor strings to account labels with ordered
// keyword rules. First match wins; an override rule set is consulted before
// the built-in defaults.
package classify

import (
	"strings"

	"github.com/insightdelivered/reconciliation-bot/internal/models"
)

// Rule maps a lowercase keyword to an account label.
type Rule struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Account string `yaml:"account" json:"account"`
}

// RuleSet is an ordered list of rules. Order is priority.
type RuleSet []Rule

// Match returns the account of the first rule whose keyword occurs anywhere
// in lowerVendor. Matching is a plain substring test, not a word match.
func (rs RuleSet) Match(lowerVendor string) (string, bool) {
	for _, r := range rs {
		if r.Keyword != "" && strings.Contains(lowerVendor, r.Keyword) {
			return r.Account, true
		}
	}
	return "", false
}

// DefaultRules returns the built-in rule set in declaration order.
func DefaultRules() RuleSet {
	return RuleSet{
		{Keyword: "amazon", Account: "Office Supplies"},
		{Keyword: "starbucks", Account: "Meals"},
		{Keyword: "uber", Account: "Travel"},
		{Keyword: "lyft", Account: "Travel"},
		{Keyword: "doordash", Account: "Meals"},
		{Keyword: "stripe", Account: "Sales Income"},
		{Keyword: "paypal", Account: "Sales Income"},
		{Keyword: "interest", Account: "Interest Income"},
	}
}

// Classifier holds an optional override set and the default set. It is
// read-only after construction and safe for concurrent use.
type Classifier struct {
	overrides RuleSet
	defaults  RuleSet
}

// New builds a classifier over the built-in defaults. overrides may be nil.
func New(overrides RuleSet) *Classifier {
	return NewWithDefaults(overrides, DefaultRules())
}

// NewWithDefaults builds a classifier with a caller-supplied default set.
// Both sets are copied.
func NewWithDefaults(overrides, defaults RuleSet) *Classifier {
	return &Classifier{
		overrides: append(RuleSet(nil), overrides...),
		defaults:  append(RuleSet(nil), defaults...),
	}
}

// Classify returns the account for vendor, or models.Uncategorized.
func (c *Classifier) Classify(vendor string) string {
	v := strings.ToLower(vendor)
	if acct, ok := c.overrides.Match(v); ok {
		return acct
	}
	if acct, ok := c.defaults.Match(v); ok {
		return acct
	}
	return models.Uncategorized
}

// Rules returns copies of the override and default sets, in evaluation order.
func (c *Classifier) Rules() (overrides, defaults RuleSet) {
	return append(RuleSet(nil), c.overrides...), append(RuleSet(nil), c.defaults...)
}
