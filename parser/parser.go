package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/aluiziolira/go-tse-id/models"
)

// IdentifierPrefix is the literal prefix of every certificate identifier.
const IdentifierPrefix = "BSI-K-TR"

// MinCells is the number of table cells a row needs to yield a record.
const MinCells = 4

var identifierPattern = regexp.MustCompile(regexp.QuoteMeta(IdentifierPrefix) + `-(\d+)-(\d+)`)

// ParseIdentifier extracts the numeric id and year from a certificate
// identifier such as "BSI-K-TR-0781-2025". Leading zeros are kept.
func ParseIdentifier(identifier string) (id, year string, ok bool) {
	m := identifierPattern.FindStringSubmatch(identifier)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// isSpace is unicode.IsSpace extended with U+FEFF.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// NormalizeWhitespace collapses whitespace runs to one space and trims the result.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.FieldsFunc(text, isSpace), " ")
}

// Trim removes leading and trailing whitespace, including byte order marks.
func Trim(text string) string {
	return strings.TrimFunc(text, isSpace)
}

// RecordFromCells builds a record from the raw text of a table row.
// It reports false for short rows and for rows without a valid identifier.
func RecordFromCells(cells []string) (models.Record, bool) {
	if len(cells) < MinCells {
		return models.Record{}, false
	}

	identifier := Trim(cells[0])
	if identifier == "" {
		return models.Record{}, false
	}
	id, year, ok := ParseIdentifier(identifier)
	if !ok {
		return models.Record{}, false
	}

	return models.Record{
		ID:           id,
		Year:         year,
		Content:      NormalizeWhitespace(cells[1]),
		Manufacturer: Trim(cells[2]),
		DateIssuance: Trim(cells[3]),
	}, true
}

// ValidateRecord ensures a record stored under key is consistent.
func ValidateRecord(key string, r *models.Record) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if Trim(r.ID) == "" {
		return fmt.Errorf("record %q missing id", key)
	}
	if Trim(r.Year) == "" {
		return fmt.Errorf("record %q missing year", key)
	}
	if r.Key() != key {
		return fmt.Errorf("record key %q does not match %q", key, r.Key())
	}
	return nil
}
