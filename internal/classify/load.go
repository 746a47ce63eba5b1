package classify

import (
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/reconciliation-bot/internal/models"
	"github.com/insightdelivered/reconciliation-bot/internal/table"
)

const coaSource = "COA"

// LoadOverrides reads a chart-of-accounts rule table. YAML files (.yaml,
// .yml) hold a sequence of {keyword, account}; anything else is read as a
// CSV or XLSX table with keyword and account columns.
func LoadOverrides(name string, r io.Reader) (RuleSet, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return readYAML(r)
	default:
		t, err := table.Read(name, r)
		if err != nil {
			return nil, models.EngineError(coaSource, "could not read rules", err)
		}
		return FromTable(t)
	}
}

// FromTable builds rules from a table with keyword and account columns
// (case-insensitive). Rows with a blank keyword are skipped.
func FromTable(t *table.Table) (RuleSet, error) {
	kw, acct := t.Index("keyword"), t.Index("account")
	if kw < 0 || acct < 0 {
		return nil, models.SchemaError(coaSource, "COA must have columns: keyword, account")
	}
	var rules RuleSet
	for _, row := range t.Rows {
		rule, ok := normalize(table.Cell(row, kw), table.Cell(row, acct))
		if ok {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func readYAML(r io.Reader) (RuleSet, error) {
	var raw []map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, models.EngineError(coaSource, "could not parse YAML rules", err)
	}

	var rules RuleSet
	for i, entry := range raw {
		fields := make(map[string]string, len(entry))
		for k, v := range entry {
			fields[table.NormalizeHeader(k)] = v
		}
		kw, hasKW := fields["keyword"]
		acct, hasAcct := fields["account"]
		if !hasKW || !hasAcct {
			return nil, models.SchemaError(coaSource, "COA must have columns: keyword, account (entry %d)", i+1)
		}
		if rule, ok := normalize(kw, acct); ok {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func normalize(keyword, account string) (Rule, bool) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return Rule{}, false
	}
	return Rule{Keyword: kw, Account: strings.TrimSpace(account)}, true
}
