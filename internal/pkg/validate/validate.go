package validate

import (
	"net/url"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func LengthBetween(value string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	return n >= min && (max <= 0 || n <= max)
}

func MaxLength(value string, max int) bool {
	return utf8.RuneCountInString(value) <= max
}

func Alnum(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// HTTPURL accepts absolute http and https URLs with a host.
func HTTPURL(value string) bool {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Errors collects field level messages. A non-empty Errors is an error.
type Errors map[string]string

func (e Errors) Add(field, message string) {
	if _, exists := e[field]; exists {
		return
	}
	e[field] = message
}

func (e Errors) Check(ok bool, field, message string) {
	if !ok {
		e.Add(field, message)
	}
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
