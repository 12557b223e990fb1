package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Characters never accepted in an address or a domain name.
const (
	invalidEmailChars  = `~!#$%^&*()\/ `
	invalidDomainChars = `~!#$%^&*()+\/ `
)

var (
	emailRegex  = regexp.MustCompile(`(?i)^[\w\-][\w\-.]*@[\w\-][\w\-.]+[a-z]{2,15}$`)
	domainRegex = regexp.MustCompile(`(?i)^[\w\-][\w\-.]*\.[a-z]{2,15}$`)
)

// IsEmail reports whether s is an acceptable mailbox or alias address.
func IsEmail(s string) bool {
	if strings.ContainsAny(s, invalidEmailChars) ||
		!strings.Contains(s, ".") ||
		strings.Count(s, "@") != 1 {
		return false
	}
	return emailRegex.MatchString(s)
}

// IsDomain reports whether s is an acceptable domain name.
func IsDomain(s string) bool {
	if strings.ContainsAny(s, invalidDomainChars) || !strings.Contains(s, ".") {
		return false
	}
	return domainRegex.MatchString(s)
}

// IsStrictIP reports whether s is a dotted quad whose octets all lie strictly
// between 0 and 255. Both 0 and 255 are rejected.
func IsStrictIP(s string) bool {
	fields := strings.Split(s, ".")
	if len(fields) != 4 {
		return false
	}

	for _, f := range fields {
		if f == "" || strings.IndexFunc(f, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return false
		}
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 || n >= 255 {
			return false
		}
	}
	return true
}

// ParseEmailDomain splits a valid address into its local part and domain.
func ParseEmailDomain(address string) (localPart, domain string, err error) {
	if !IsEmail(address) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidEmail, address)
	}
	localPart, domain, _ = strings.Cut(address, "@")
	return localPart, domain, nil
}
