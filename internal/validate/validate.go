package validate

import (
	"regexp"
	"strings"
)

var (
	rePhone = regexp.MustCompile(`^09[0-9]{9}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Phone normalizes an Iranian mobile number (accepts 9..., +989..., 09...)
// and reports whether the result is valid.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+98")
	s = strings.TrimPrefix(s, "98")
	if strings.HasPrefix(s, "9") && len(s) == 10 {
		s = "0" + s
	}
	return s, rePhone.MatchString(s)
}

// ID validates a simple resource identifier (product/order/checkout ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Count clamps a requested quantity to the per-line maximum. Values
// below 1 pass through for the services to reject.
func Count(n int) int {
	if n > 50 {
		return 50
	}
	return n
}

// Method validates a submission method name.
func Method(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 4 || len(s) > 60 {
		return "", false
	}
	return s, true
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 64
}
