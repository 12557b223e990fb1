package domain

import "errors"

// Error kinds returned by the repositories. Callers match them with errors.Is;
// the services wrap them with the offending key.
var (
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrInvalidDomain = errors.New("invalid domain name")

	ErrDomainExists  = errors.New("domain already exists")
	ErrMailboxExists = errors.New("mailbox already exists")
	ErrAliasExists   = errors.New("alias already exists")

	ErrNoSuchDomain  = errors.New("domain does not exist")
	ErrNoSuchMailbox = errors.New("mailbox does not exist")

	ErrNotInitialized = errors.New("database connection is not initialized")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidEmail, "invalid_email"},
	{ErrInvalidDomain, "invalid_domain"},
	{ErrDomainExists, "domain_exists"},
	{ErrMailboxExists, "mailbox_exists"},
	{ErrAliasExists, "alias_exists"},
	{ErrNoSuchDomain, "no_such_domain"},
	{ErrNoSuchMailbox, "no_such_mailbox"},
	{ErrNotInitialized, "not_initialized"},
}

// ErrorKind returns a short label for err: "ok" for nil, the kind name for
// one of the errors above, "internal" for anything else.
func ErrorKind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
