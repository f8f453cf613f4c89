package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/unicode/norm"
)

// notFound maps pgx.ErrNoRows onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// TruncateText NFC-normalizes s and cuts it to at most max characters.
// Empty results become nil.
func TruncateText(s *string, max int) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(norm.NFC.String(*s))
	if v == "" {
		return nil
	}
	if r := []rune(v); len(r) > max {
		v = strings.TrimSpace(string(r[:max]))
	}
	return &v
}

// ClampProgress bounds p to 0..100.
func ClampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
