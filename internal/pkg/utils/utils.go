package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
)

// GenerateUUID generates a UUID v4 string.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateOrderNumber returns a unique, human-readable order number.
// ULIDs sort roughly by creation time but nothing should rely on that.
func GenerateOrderNumber() string {
	return "ORD-" + ulid.Make().String()
}

// GenerateTransactionID builds the merchant transaction id sent to the gateway.
func GenerateTransactionID(orderNumber string, now time.Time) string {
	return fmt.Sprintf("TRANS_%s_%d", orderNumber, now.Unix())
}

// RandomHex generates a random hex string of n bytes.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '-'
		}
		return r
	}, s)
	return strings.Trim(slugInvalid.ReplaceAllString(s, "-"), "-")
}

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from user-supplied free text.
func SanitizeText(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// FileExt returns the lowercased extension of name including the dot, or "".
func FileExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i:])
}
