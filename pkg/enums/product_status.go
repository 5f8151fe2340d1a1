package enums

import "fmt"

// ProductStatus controls storefront visibility. Products are soft-deleted by
// flipping to inactive so historical orders keep a readable snapshot.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	return p == ProductStatusActive || p == ProductStatusInactive
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	switch ProductStatus(value) {
	case ProductStatusActive:
		return ProductStatusActive, nil
	case ProductStatusInactive:
		return ProductStatusInactive, nil
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
