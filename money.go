package ucp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a monetary amount in minor units (cents). Arithmetic on carts and
// settlements is exact integer arithmetic; floats only ever appear at the
// JSON boundary.
type Money int64

// ParseMoney parses a decimal amount string such as "9.99" or "100".
// At most two fraction digits are accepted and negative amounts are rejected;
// anything else is a data fault.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	if hasFrac && (frac == "" || len(frac) > 2) {
		return 0, fmt.Errorf("malformed amount %q: expected at most two fraction digits", s)
	}
	major, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q: %w", s, err)
	}
	// Amounts come from merchant responses, so a syntactically valid number can
	// still be too large to hold in minor units. Wrapping would flip the sign.
	if major > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	var minor uint64
	if hasFrac {
		minor, err = strconv.ParseUint(frac, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("malformed amount %q: %w", s, err)
		}
		if len(frac) == 1 {
			minor *= 10
		}
	}
	return Money(major*100 + minor), nil
}

// String renders the amount in major units with two fraction digits, e.g. "19.98".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// CanonicalBytes is the encoding of the amount that gets signed during the
// handshake: the base-10 ASCII representation of the minor-unit integer.
// 19.98 signs as "1998". This is fixed by the protocol; do not localize or
// reformat it.
func (m Money) CanonicalBytes() []byte {
	return []byte(strconv.FormatInt(int64(m), 10))
}

// Mul scales the amount by a quantity. ok is false when the product does not
// fit in an int64 (or either operand is negative); callers treat that as a
// data fault.
func (m Money) Mul(qty int) (total Money, ok bool) {
	if m < 0 || qty < 0 {
		return 0, false
	}
	if qty > 0 && int64(m) > math.MaxInt64/int64(qty) {
		return 0, false
	}
	return m * Money(qty), true
}

// MarshalJSON emits a plain JSON number in major units (19.98), keeping the
// wire format merchants already speak.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (or a quoted decimal string) and parses
// it with the same strict rules as ParseMoney.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
