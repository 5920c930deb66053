package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Price is a fixed-point amount with two decimal places, stored in cents.
// It renders as a decimal string ("5.00") and is stored as NUMERIC(5,2).
type Price int64

// MaxPrice is the largest amount NUMERIC(5,2) can hold.
const MaxPrice Price = 99999

var ErrInvalidPrice = errors.New("a valid number is required")

// ParsePrice parses "5", "5.5" or "5.00". At most two decimal places are
// accepted; negative values are rejected.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidPrice
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: no more than 2 decimal places", ErrInvalidPrice)
	}
	if strings.Trim(whole+frac, "0123456789") != "" {
		return 0, ErrInvalidPrice
	}
	frac += strings.Repeat("0", 2-len(frac))

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, ErrInvalidPrice
	}
	if w > (1<<62)/100 {
		return 0, ErrInvalidPrice
	}
	return Price(w*100 + f), nil
}

func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return ErrInvalidPrice
		}
	}
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnmarshalParam lets gin bind form and query values into a Price.
func (p *Price) UnmarshalParam(param string) error {
	v, err := ParsePrice(param)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Price) Value() (driver.Value, error) {
	return p.String(), nil
}

func (p *Price) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return p.UnmarshalParam(v)
	case []byte:
		return p.UnmarshalParam(string(v))
	case float64:
		return p.UnmarshalParam(strconv.FormatFloat(v, 'f', 2, 64))
	case int64:
		*p = Price(v * 100)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Price", src)
	}
}
