// Package payment holds the input masks and validation of the simulated
// premium checkout. No card data leaves the process except to the upgrade
// endpoint, and no charge is ever made.
package payment

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrCardNumber = errors.New("Please enter a valid card number.")
	ErrCardName   = errors.New("Please enter the cardholder name.")
	ErrExpiry     = errors.New("Please enter a valid expiry date (MM/YY).")
	ErrCVV        = errors.New("Please enter a valid CVV.")
)

var (
	nonDigit   = regexp.MustCompile(`\D`)
	cardDigits = regexp.MustCompile(`\d{4,16}`)
)

func digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// FormatCardNumber keeps up to 16 digits and groups them in fours.
// Fewer than four digits are returned as typed.
func FormatCardNumber(value string) string {
	v := digits(value)
	match := cardDigits.FindString(v)
	if match == "" {
		return v
	}

	parts := make([]string, 0, 4)
	for i := 0; i < len(match); i += 4 {
		end := i + 4
		if end > len(match) {
			end = len(match)
		}
		parts = append(parts, match[i:end])
	}
	return strings.Join(parts, " ")
}

// FormatExpiry masks input as MM/YY once two digits are present.
func FormatExpiry(value string) string {
	v := digits(value)
	if len(v) < 2 {
		return v
	}
	rest := v[2:]
	if len(rest) > 2 {
		rest = rest[:2]
	}
	return v[:2] + "/" + rest
}

// SanitizeCVV keeps digits and caps the result at three of them.
func SanitizeCVV(value string) string {
	v := digits(value)
	if len(v) > 3 {
		v = v[:3]
	}
	return v
}

// Luhn reports whether number passes the mod-10 checksum. Non-digits are
// ignored.
func Luhn(number string) bool {
	v := digits(number)
	if v == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(v) - 1; i >= 0; i-- {
		d := int(v[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidateExpiry accepts MM/YY. A card is valid through the last day of
// its expiry month.
func ValidateExpiry(mmYY string, now time.Time) error {
	if len(mmYY) != 5 || mmYY[2] != '/' {
		return ErrExpiry
	}
	if digits(mmYY[:2]) != mmYY[:2] || digits(mmYY[3:]) != mmYY[3:] {
		return ErrExpiry
	}
	month, err := strconv.Atoi(mmYY[:2])
	if err != nil || month < 1 || month > 12 {
		return ErrExpiry
	}
	year, err := strconv.Atoi(mmYY[3:])
	if err != nil {
		return ErrExpiry
	}

	// First instant of the month after expiry.
	end := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, now.Location())
	if !now.Before(end) {
		return ErrExpiry
	}
	return nil
}

// Card is the premium checkout form.
type Card struct {
	Number string
	Name   string
	Expiry string
	CVV    string
}

// Validate checks the fields in form order and returns the first failure.
func (c Card) Validate(now time.Time) error {
	number := digits(c.Number)
	if len(number) < 16 || !Luhn(number) {
		return ErrCardNumber
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrCardName
	}
	if err := ValidateExpiry(c.Expiry, now); err != nil {
		return err
	}
	if len(c.CVV) != 3 || digits(c.CVV) != c.CVV {
		return ErrCVV
	}
	return nil
}

// Last4 is what may be logged or echoed back about a card.
func (c Card) Last4() string {
	number := digits(c.Number)
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}
