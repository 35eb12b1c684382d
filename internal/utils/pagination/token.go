// Package pagination implements the opaque cursor tokens used by list
// endpoints. A token encodes the sort-key values of the last item on a page
// so the next query can resume strictly after it.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// EncodeToken creates a base64 token from the given cursor fields.
func EncodeToken(fields ...string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeToken parses a token back into its cursor fields and verifies the
// expected field count.
func DecodeToken(token string, wantFields int) ([]string, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token (base64 decode): %w", err)
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != wantFields {
		return nil, fmt.Errorf("invalid pagination token: expected %d fields, got %d", wantFields, len(parts))
	}
	return parts, nil
}

// FormatTime renders a cursor timestamp field.
func FormatTime(t time.Time) string {
	return t.Format(timeFormat)
}

// ParseTime parses a cursor timestamp field.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pagination token (time parse): %w", err)
	}
	return t, nil
}
