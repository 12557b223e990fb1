package maildir

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailapi/backend/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2024, time.March, 5, 7, 8, 9, 0, time.Local)
}

func withClock(opts Options) Options {
	opts.Now = fixedClock
	return opts
}

func TestPath_Hashed(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		expected string
	}{
		{"long local part", "testuser@testdomain.lan", "testdomain.lan/t/e/s/testuser-2024.03.05.07.08.09/"},
		{"three chars", "abc@example.com", "example.com/a/b/c/abc-2024.03.05.07.08.09/"},
		{"two chars repeat the second", "ab@example.com", "example.com/a/b/b/ab-2024.03.05.07.08.09/"},
		{"one char repeats three times", "a@example.com", "example.com/a/a/a/a-2024.03.05.07.08.09/"},
		{"lower-cased", "John.Doe@Example.COM", "example.com/j/o/h/john.doe-2024.03.05.07.08.09/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := Path(tt.address, withClock(DefaultOptions()))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
		})
	}
}

func TestPath_Options(t *testing.T) {
	path, err := Path("user@example.com", withClock(Options{}))
	require.NoError(t, err)
	assert.Equal(t, "user/", path)

	path, err = Path("user@example.com", withClock(Options{AppendTimestamp: true}))
	require.NoError(t, err)
	assert.Equal(t, "user-2024.03.05.07.08.09/", path)

	path, err = Path("user@example.com", withClock(Options{PrependDomain: true}))
	require.NoError(t, err)
	assert.Equal(t, "example.com/user/", path)

	path, err = Path("user@example.com", withClock(Options{Hashed: true}))
	require.NoError(t, err)
	assert.Equal(t, "u/s/e/user/", path)
}

func TestPath_DefaultClock(t *testing.T) {
	path, err := Path("ab@example.com", DefaultOptions())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^example\.com/a/b/b/ab-\d{4}\.\d{2}\.\d{2}\.\d{2}\.\d{2}\.\d{2}/$`), path)
}

func TestPath_InvalidEmail(t *testing.T) {
	_, err := Path("not an address", DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}
