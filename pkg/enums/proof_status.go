package enums

// ProofStatus tracks a single payment-proof submission.
type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "pending"
	ProofStatusVerified ProofStatus = "verified"
	ProofStatusRejected ProofStatus = "rejected"
)

// String implements fmt.Stringer.
func (p ProofStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProofStatus.
func (p ProofStatus) IsValid() bool {
	switch p {
	case ProofStatusPending, ProofStatusVerified, ProofStatusRejected:
		return true
	}
	return false
}
