package enums

import "fmt"

// CampaignStatus tracks the lifecycle of a group-buy campaign.
type CampaignStatus string

const (
	CampaignStatusPending CampaignStatus = "pending"
	CampaignStatusSuccess CampaignStatus = "success"
	CampaignStatusFailed  CampaignStatus = "failed"
	CampaignStatusExpired CampaignStatus = "expired"
)

var validCampaignStatuses = []CampaignStatus{
	CampaignStatusPending,
	CampaignStatusSuccess,
	CampaignStatusFailed,
	CampaignStatusExpired,
}

// String implements fmt.Stringer.
func (c CampaignStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CampaignStatus.
func (c CampaignStatus) IsValid() bool {
	for _, candidate := range validCampaignStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the campaign can never accept another join.
func (c CampaignStatus) IsTerminal() bool {
	switch c {
	case CampaignStatusSuccess, CampaignStatusFailed, CampaignStatusExpired:
		return true
	}
	return false
}

// ParseCampaignStatus converts raw input into a CampaignStatus.
func ParseCampaignStatus(value string) (CampaignStatus, error) {
	for _, candidate := range validCampaignStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign status %q", value)
}
