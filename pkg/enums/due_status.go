package enums

import "fmt"

// DueStatus tracks a vendor settlement obligation.
type DueStatus string

const (
	DueStatusPending   DueStatus = "pending"
	DueStatusPartial   DueStatus = "partial"
	DueStatusPaid      DueStatus = "paid"
	DueStatusCancelled DueStatus = "cancelled"
)

var validDueStatuses = []DueStatus{
	DueStatusPending,
	DueStatusPartial,
	DueStatusPaid,
	DueStatusCancelled,
}

// String implements fmt.Stringer.
func (d DueStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DueStatus.
func (d DueStatus) IsValid() bool {
	for _, candidate := range validDueStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDueStatus converts raw input into a DueStatus.
func ParseDueStatus(value string) (DueStatus, error) {
	for _, candidate := range validDueStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid due status %q", value)
}
