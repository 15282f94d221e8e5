// Package accounts serves the chart of accounts: lookup by reference,
// free-text search and aggregation of ledger lines by account-number prefix.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	interfaces "github.com/sheikh-saqib/double-entry-balancer/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"gopkg.in/yaml.v3"
)

var ErrAccountNotFound = errors.New("account not found")

const defaultSearchLimit = 20

// chartFile is the YAML layout of a chart of accounts.
type chartFile struct {
	Accounts []models.Account `yaml:"accounts"`
}

// Directory is an in-memory chart of accounts. It is read-only after
// construction and safe for concurrent use.
type Directory struct {
	accounts []models.Account // sorted by number
	byRef    map[string]models.Account
	names    []string
}

func NewDirectory(accounts []models.Account) (*Directory, error) {
	d := &Directory{byRef: make(map[string]models.Account, len(accounts))}

	for _, a := range accounts {
		a.Ref = strings.TrimSpace(a.Ref)
		a.Number = strings.TrimSpace(a.Number)
		a.Name = strings.TrimSpace(a.Name)
		if a.Ref == "" {
			a.Ref = a.Number
		}
		if a.Ref == "" {
			return nil, fmt.Errorf("account %q has neither ref nor number", a.Name)
		}
		if _, dup := d.byRef[a.Ref]; dup {
			return nil, fmt.Errorf("duplicate account ref %q", a.Ref)
		}
		d.byRef[a.Ref] = a
		d.accounts = append(d.accounts, a)
	}

	sort.SliceStable(d.accounts, func(i, j int) bool {
		return d.accounts[i].Number < d.accounts[j].Number
	})
	d.names = make([]string, len(d.accounts))
	for i, a := range d.accounts {
		d.names[i] = a.Name
	}
	return d, nil
}

// ParseChart reads a YAML chart of accounts.
func ParseChart(data []byte) (*Directory, error) {
	var chart chartFile
	if err := yaml.Unmarshal(data, &chart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chart of accounts: %w", err)
	}
	return NewDirectory(chart.Accounts)
}

func LoadChart(path string) (*Directory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart of accounts %s: %w", path, err)
	}
	return ParseChart(b)
}

func (d *Directory) Len() int {
	return len(d.accounts)
}

func (d *Directory) Lookup(ctx context.Context, ref string) (models.Account, error) {
	a, ok := d.byRef[strings.TrimSpace(ref)]
	if !ok {
		return models.Account{}, fmt.Errorf("%q: %w", ref, ErrAccountNotFound)
	}
	return a, nil
}

// Search returns accounts whose number starts with query, followed by
// accounts whose name fuzzily matches it, best matches first. An empty query
// lists the chart in number order.
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]models.Account, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query = strings.TrimSpace(query)

	if query == "" {
		return d.take(d.accounts, limit), nil
	}

	var out []models.Account
	seen := make(map[string]bool)
	for _, a := range d.accounts {
		if strings.HasPrefix(a.Number, query) || strings.HasPrefix(strings.ReplaceAll(a.Number, "-", ""), query) {
			out = append(out, a)
			seen[a.Ref] = true
		}
	}

	ranks := fuzzy.RankFindFold(query, d.names)
	sort.Stable(ranks)
	for _, r := range ranks {
		a := d.accounts[r.OriginalIndex]
		if seen[a.Ref] {
			continue
		}
		out = append(out, a)
		seen[a.Ref] = true
	}

	return d.take(out, limit), nil
}

func (d *Directory) take(accounts []models.Account, limit int) []models.Account {
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	out := make([]models.Account, len(accounts))
	copy(out, accounts)
	return out
}

var _ interfaces.AccountDirectory = (*Directory)(nil)
