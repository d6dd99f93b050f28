package enums

import "fmt"

// CustomerRole separates shop customers from back-office staff.
type CustomerRole string

const (
	CustomerRoleClient CustomerRole = "client"
	CustomerRoleAdmin  CustomerRole = "admin"
)

var validCustomerRoles = []CustomerRole{
	CustomerRoleClient,
	CustomerRoleAdmin,
}

// String implements fmt.Stringer.
func (r CustomerRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known CustomerRole.
func (r CustomerRole) IsValid() bool {
	for _, candidate := range validCustomerRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseCustomerRole converts raw input into a CustomerRole.
func ParseCustomerRole(value string) (CustomerRole, error) {
	for _, candidate := range validCustomerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer role %q", value)
}

// CustomerStatus gates price visibility and ordering.
type CustomerStatus string

const (
	CustomerStatusPending CustomerStatus = "pending"
	CustomerStatusActive  CustomerStatus = "active"
)

var validCustomerStatuses = []CustomerStatus{
	CustomerStatusPending,
	CustomerStatusActive,
}

// String implements fmt.Stringer.
func (s CustomerStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CustomerStatus.
func (s CustomerStatus) IsValid() bool {
	for _, candidate := range validCustomerStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCustomerStatus converts raw input into a CustomerStatus.
func ParseCustomerStatus(value string) (CustomerStatus, error) {
	for _, candidate := range validCustomerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer status %q", value)
}

// ClientType is the commercial tier assigned at approval.
type ClientType string

const (
	ClientTypeTier1 ClientType = "tip1"
	ClientTypeTier2 ClientType = "tip2"
	ClientTypeTier3 ClientType = "tip3"
)

var validClientTypes = []ClientType{
	ClientTypeTier1,
	ClientTypeTier2,
	ClientTypeTier3,
}

// String implements fmt.Stringer.
func (c ClientType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClientType.
func (c ClientType) IsValid() bool {
	for _, candidate := range validClientTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClientType converts raw input into a ClientType.
func ParseClientType(value string) (ClientType, error) {
	for _, candidate := range validClientTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid client type %q", value)
}

// AcquisitionChannel records how the customer found the shop.
type AcquisitionChannel string

const (
	ChannelInternet        AcquisitionChannel = "internet"
	ChannelFoundByUs       AcquisitionChannel = "gasit_de_mine"
	ChannelBreederReferral AcquisitionChannel = "recomandare_crescator"
	ChannelOtherBreeder    AcquisitionChannel = "alt_crescator"
)

var validAcquisitionChannels = []AcquisitionChannel{
	ChannelInternet,
	ChannelFoundByUs,
	ChannelBreederReferral,
	ChannelOtherBreeder,
}

// String implements fmt.Stringer.
func (c AcquisitionChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known AcquisitionChannel.
func (c AcquisitionChannel) IsValid() bool {
	for _, candidate := range validAcquisitionChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseAcquisitionChannel converts raw input into an AcquisitionChannel.
func ParseAcquisitionChannel(value string) (AcquisitionChannel, error) {
	for _, candidate := range validAcquisitionChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid acquisition channel %q", value)
}
