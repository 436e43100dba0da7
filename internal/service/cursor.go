package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const cursorSeparator = "|"

// encodeCursor builds an opaque page token from the last order's creation time and id.
func encodeCursor(createdAt time.Time, id string) string {
	raw := strconv.FormatInt(createdAt.UTC().UnixMicro(), 10) + cursorSeparator + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor parses a page token produced by encodeCursor.
func decodeCursor(token string) (time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("base64: %w", err)
	}
	parts := strings.SplitN(string(b), cursorSeparator, 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("invalid cursor format")
	}
	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parse time: %w", err)
	}
	return time.UnixMicro(micros).UTC(), parts[1], nil
}
