package coins

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping binds free-text keywords to an exchange symbol.
type Mapping struct {
	Keywords []string `yaml:"keywords"`
	Symbol   string   `yaml:"symbol"`
}

// Table resolves market questions/slugs to exchange symbols with
// deterministic first-match-wins semantics over an ordered mapping list.
type Table struct {
	mappings []Mapping
}

// DefaultTable covers the majors traded on hourly UP/DOWN markets.
func DefaultTable() *Table {
	return NewTable([]Mapping{
		{Keywords: []string{"bitcoin", "btc"}, Symbol: "BTCUSDT"},
		{Keywords: []string{"ethereum", "eth"}, Symbol: "ETHUSDT"},
		{Keywords: []string{"solana", "sol"}, Symbol: "SOLUSDT"},
		{Keywords: []string{"ripple", "xrp"}, Symbol: "XRPUSDT"},
		{Keywords: []string{"dogecoin", "doge"}, Symbol: "DOGEUSDT"},
	})
}

func NewTable(mappings []Mapping) *Table {
	out := make([]Mapping, 0, len(mappings))
	for _, m := range mappings {
		symbol := strings.ToUpper(strings.TrimSpace(m.Symbol))
		if symbol == "" {
			continue
		}
		keywords := make([]string, 0, len(m.Keywords))
		for _, kw := range m.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			continue
		}
		out = append(out, Mapping{Keywords: keywords, Symbol: symbol})
	}
	return &Table{mappings: out}
}

// LoadTable reads an ordered mapping list from a YAML file.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading symbol table: %w", err)
	}
	var mappings []Mapping
	if err := yaml.Unmarshal(raw, &mappings); err != nil {
		return nil, fmt.Errorf("parsing symbol table: %w", err)
	}
	table := NewTable(mappings)
	if len(table.mappings) == 0 {
		return nil, fmt.Errorf("symbol table %s has no usable mappings", path)
	}
	return table, nil
}

// Resolve scans the mapping list in order and returns the symbol of the
// first mapping whose keyword occurs in the text. Empty string when no
// keyword matches.
func (t *Table) Resolve(text string) string {
	if t == nil {
		return ""
	}
	text = strings.ToLower(text)
	for _, m := range t.mappings {
		for _, kw := range m.Keywords {
			if strings.Contains(text, kw) {
				return m.Symbol
			}
		}
	}
	return ""
}

// Len reports how many mappings the table holds.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.mappings)
}
