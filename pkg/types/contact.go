package types

import "time"

// Contact is the delivery profile a customer completes before ordering.
type Contact struct {
	FullName    string     `json:"fullName"`
	Address     string     `json:"address"`
	County      string     `json:"county"`
	City        string     `json:"city"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
