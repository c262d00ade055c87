package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Address is the shipping snapshot stored as jsonb on orders and users.
type Address struct {
	Line1      string `json:"line1" validate:"required,notblank,max=200"`
	City       string `json:"city" validate:"required,notblank,max=100"`
	State      string `json:"state" validate:"required,notblank,max=100"`
	PostalCode string `json:"postalCode" validate:"required,notblank,max=20"`
}

// Validate reports the first missing component.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.State) == "" {
		return fmt.Errorf("address: missing state")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("address: missing postalCode")
	}
	return nil
}

// Normalized trims every component.
func (a Address) Normalized() Address {
	return Address{
		Line1:      strings.TrimSpace(a.Line1),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
	}
}

// Value marshals Address into its jsonb representation.
func (a Address) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes a jsonb payload into Address.
func (a *Address) Scan(src any) error {
	if a == nil {
		return errors.New("address: scan into nil receiver")
	}
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Address{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("address: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(raw, a)
}
