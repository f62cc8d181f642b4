// Package phone turns free-form phone input into a canonical +<country code><number> string.
package phone

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/biter777/countries"
)

const (
	minDigits = 8
	maxDigits = 15
)

var (
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrInvalidCountry = errors.New("invalid country code")
	ErrPhoneLength    = fmt.Errorf("%w: must be %d-%d digits long after country code", ErrInvalidPhone, minDigits, maxDigits)
)

// Normalizer strips data-entry artifacts and prefixes the default country code.
// Prefixes are matched longest first so "00233" wins over "0233" and "233".
type Normalizer struct {
	countryCode string
	prefixes    []string
}

func New(countryCode string, prefixes []string) (*Normalizer, error) {
	cc := digits(countryCode)
	if cc == "" || len(cc) > 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCountry, countryCode)
	}
	if len(prefixes) == 0 {
		prefixes = RedundantPrefixes(cc)
	}
	list := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = digits(p); p != "" {
			list = append(list, p)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return len(list[i]) > len(list[j])
	})
	return &Normalizer{
		countryCode: cc,
		prefixes:    list,
	}, nil
}

// typoPrefixes are known mistypings of a calling code seen in real input.
var typoPrefixes = map[string][]string{
	"233": {"2633"},
}

// RedundantPrefixes lists the usual ways a country code ends up duplicated in user input.
func RedundantPrefixes(countryCode string) []string {
	prefixes := []string{
		"000" + countryCode,
		"00" + countryCode,
		"0" + countryCode,
		countryCode,
	}
	return append(prefixes, typoPrefixes[countryCode]...)
}

// Normalize is a shortcut for New(countryCode, nil).Normalize(raw).
func Normalize(raw, countryCode string) (string, error) {
	n, err := New(countryCode, nil)
	if err != nil {
		return "", err
	}
	return n.Normalize(raw)
}

func (n *Normalizer) CountryCode() string {
	return n.countryCode
}

func (n *Normalizer) Normalize(raw string) (string, error) {
	number := digits(raw)
	if number == "" {
		return "", ErrInvalidPhone
	}

	for _, prefix := range n.prefixes {
		if strings.HasPrefix(number, prefix) {
			number = number[len(prefix):]
			break
		}
	}
	number = strings.TrimPrefix(number, "0")

	count := len(n.countryCode) + len(number)
	if count < minDigits || count > maxDigits {
		return "", fmt.Errorf("%w, got %d", ErrPhoneLength, count)
	}
	return "+" + n.countryCode + number, nil
}

// CallingCode resolves an ISO country (name, alpha-2 or alpha-3) to its calling code without "+".
func CallingCode(country string) (string, error) {
	code := countries.ByName(country)
	if code == countries.Unknown {
		return "", fmt.Errorf("%w: unknown country %q", ErrInvalidCountry, country)
	}
	callCodes := code.CallCodes()
	if len(callCodes) == 0 {
		return "", fmt.Errorf("%w: no calling code for %q", ErrInvalidCountry, country)
	}
	return strconv.Itoa(int(callCodes[0])), nil
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
