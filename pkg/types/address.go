package types

import "strings"

// AddressSnapshot is the delivery address copied onto an order at placement
// time. It is a value, not a reference: later edits to the purchaser's saved
// addresses must not change historical orders.
type AddressSnapshot struct {
	Label      string `json:"label,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone,omitempty"`
}

// IsZero reports whether the snapshot carries no address at all.
func (a AddressSnapshot) IsZero() bool {
	return strings.TrimSpace(a.Line1) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.PostalCode) == ""
}
