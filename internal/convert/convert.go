// Package convert translates between Go values and the Pfeiffer RS-485
// payload datatypes (boolean_old, u_integer, u_real, u_expo_new, string).
package convert

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatBool renders a boolean_old payload: "111111" or "000000".
func FormatBool(v bool) string {
	if v {
		return "111111"
	}
	return "000000"
}

// ParseBool reads a boolean_old payload.
func ParseBool(s string) (bool, error) {
	switch s {
	case "111111":
		return true, nil
	case "000000":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean_old payload %q", s)
}

// FormatBoolNew renders a boolean_new payload: "1" or "0".
func FormatBoolNew(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// ParseBoolNew reads a boolean_new payload.
func ParseBoolNew(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean_new payload %q", s)
}

// FormatUint renders a u_integer payload, six zero-padded digits.
func FormatUint(v int) (string, error) {
	if v < 0 || v > 999999 {
		return "", fmt.Errorf("u_integer value %d outside range 0-999999", v)
	}
	return fmt.Sprintf("%06d", v), nil
}

// ParseUint reads a u_integer payload.
func ParseUint(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid u_integer payload %q: %w", s, err)
	}
	return v, nil
}

// FormatShort renders a u_short_int payload, three zero-padded digits.
func FormatShort(v int) (string, error) {
	if v < 0 || v > 999 {
		return "", fmt.Errorf("u_short_int value %d outside range 0-999", v)
	}
	return fmt.Sprintf("%03d", v), nil
}

// ParseShort reads a u_short_int payload.
func ParseShort(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid u_short_int payload %q: %w", s, err)
	}
	return v, nil
}

// FormatUReal renders a u_real payload: the value times 100 as six digits.
func FormatUReal(v float64) string {
	return fmt.Sprintf("%06d", int(math.Round(v*100)))
}

// ParseUReal reads a u_real payload.
func ParseUReal(s string) (float64, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid u_real payload %q: %w", s, err)
	}
	return float64(v) / 100, nil
}

// FormatExpo renders a u_expo_new payload: four mantissa digits followed by
// the decimal exponent offset by 20. Zero maps to "100000" (1.0e-20), the
// smallest representable reading.
func FormatExpo(v float64) string {
	if v == 0 {
		return "100000"
	}

	exp := int(math.Floor(math.Log10(math.Abs(v))))
	mant := int(math.Round(v / math.Pow(10, float64(exp)) * 1000))
	if mant >= 10000 {
		mant = 1000
		exp++
	}

	pexp := exp + 20
	if pexp < 0 {
		pexp = 0
	}
	if pexp > 99 {
		pexp = 99
	}
	return fmt.Sprintf("%04d%02d", mant, pexp)
}

// ParseExpo reads a u_expo_new payload.
func ParseExpo(s string) (float64, error) {
	if len(s) != 6 {
		return 0, fmt.Errorf("invalid u_expo_new payload %q", s)
	}
	mant, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0, fmt.Errorf("invalid u_expo_new mantissa %q: %w", s, err)
	}
	exp, err := strconv.Atoi(s[4:6])
	if err != nil {
		return 0, fmt.Errorf("invalid u_expo_new exponent %q: %w", s, err)
	}
	return float64(mant) / 1000 * math.Pow(10, float64(exp-20)), nil
}

// FormatString renders a six character string payload, space padded and
// truncated, keeping printable ASCII only.
func FormatString(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= 32 && c <= 127 {
			b.WriteRune(c)
		}
	}
	out := b.String()
	if len(out) > 6 {
		return out[:6]
	}
	return out + strings.Repeat(" ", 6-len(out))
}

// ParseString reads a string payload, dropping trailing padding.
func ParseString(s string) string {
	return strings.TrimRight(s, " ")
}
