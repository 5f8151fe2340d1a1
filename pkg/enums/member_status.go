package enums

import "fmt"

// MemberStatus tracks a group member's payment progress.
type MemberStatus string

const (
	MemberStatusJoined      MemberStatus = "joined"
	MemberStatusPaidDeposit MemberStatus = "paid_deposit"
	MemberStatusPaidFull    MemberStatus = "paid_full"
	MemberStatusRefunded    MemberStatus = "refunded"
	MemberStatusCancelled   MemberStatus = "cancelled"
)

var validMemberStatuses = []MemberStatus{
	MemberStatusJoined,
	MemberStatusPaidDeposit,
	MemberStatusPaidFull,
	MemberStatusRefunded,
	MemberStatusCancelled,
}

// String implements fmt.Stringer.
func (m MemberStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberStatus.
func (m MemberStatus) IsValid() bool {
	for _, candidate := range validMemberStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberStatus converts raw input into a MemberStatus.
func ParseMemberStatus(value string) (MemberStatus, error) {
	for _, candidate := range validMemberStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member status %q", value)
}
