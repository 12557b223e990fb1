// Package maildir derives the on-disk maildir location of a mailbox.
//
// The layout is a durability contract with the mail storage engine:
//
//	<domain>/<u0>/<u1>/<u2>/<username>-<YYYY.MM.DD.HH.MM.SS>/
//
// where u0..u2 are the first three characters of the local part. Short local
// parts repeat their last character to fill the three levels.
package maildir

import (
	"fmt"
	"strings"
	"time"

	"mailapi/backend/internal/domain"
)

const timestampLayout = "-2006.01.02.15.04.05"

// Options controls how Path lays out the directory.
type Options struct {
	Hashed          bool             // spread mailboxes over three directory levels
	PrependDomain   bool             // start the path with the domain name
	AppendTimestamp bool             // suffix the username with the creation time
	Now             func() time.Time // clock used for the timestamp, time.Now when nil
}

// DefaultOptions returns the layout used for new mailboxes.
func DefaultOptions() Options {
	return Options{
		Hashed:          true,
		PrependDomain:   true,
		AppendTimestamp: true,
	}
}

// Path returns the maildir path for address, relative to the storage node and
// lower-cased. It fails with domain.ErrInvalidEmail for malformed addresses.
func Path(address string, opts Options) (string, error) {
	if !domain.IsEmail(address) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidEmail, address)
	}

	username, domainName, _ := strings.Cut(address, "@")

	timestamp := ""
	if opts.AppendTimestamp {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		timestamp = now().Format(timestampLayout)
	}

	var store string
	if opts.Hashed {
		u := []rune(username)
		var a, b, c rune
		switch {
		case len(u) >= 3:
			a, b, c = u[0], u[1], u[2]
		case len(u) == 2:
			a, b, c = u[0], u[1], u[1]
		default:
			a, b, c = u[0], u[0], u[0]
		}
		store = fmt.Sprintf("%c/%c/%c/%s%s/", a, b, c, username, timestamp)
	} else {
		store = username + timestamp + "/"
	}

	if opts.PrependDomain {
		store = domainName + "/" + store
	}

	return strings.ToLower(store), nil
}
