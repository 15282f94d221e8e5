package models

// Account is an entry of the chart of accounts.
type Account struct {
	Ref    string `json:"ref" yaml:"ref"`
	Number string `json:"number" yaml:"number"` // e.g. "402-01"; prefixes group reports
	Name   string `json:"name" yaml:"name"`
}
