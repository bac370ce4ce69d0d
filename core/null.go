package core

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// NullString is valid only when s is non-empty.
func NullString(s string) null.String { return null.NewString(s, s != "") }

// NullInt is valid only when n is non-zero.
func NullInt(n int) null.Int { return null.NewInt(n, n != 0) }

// NullTime is valid only when t is non-zero.
func NullTime(t time.Time) null.Time { return null.NewTime(t, !t.IsZero()) }
