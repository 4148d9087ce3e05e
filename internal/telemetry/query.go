package telemetry

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// QueryBuilder assembles InfluxQL statements for the sensor measurement
// series. Device keys and timestamps are validated and escaped before they
// reach the query text; raw string concatenation of caller input is never
// allowed through.
type QueryBuilder struct {
	measurement string
	countField  string
}

// NewQueryBuilder constructs a builder for the given measurement and the
// field used for sample counting.
func NewQueryBuilder(measurement, countField string) *QueryBuilder {
	return &QueryBuilder{measurement: measurement, countField: countField}
}

// DailyCounts returns a statement counting samples per calendar day over
// [from, to) for any of the given device keys. The key match is
// case-insensitive: the store may hold the key in any letter case, so the
// predicate matches the stored form plus its lower- and upper-case variants.
func (b *QueryBuilder) DailyCounts(deviceKeys []string, from, to time.Time) (string, error) {
	predicate, err := keyPredicate(deviceKeys)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		`SELECT COUNT(%s) AS "count" FROM %s WHERE %s AND time >= '%s' AND time < '%s' GROUP BY time(1d) fill(null)`,
		quoteIdent(b.countField),
		quoteIdent(b.measurement),
		predicate,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	), nil
}

// RawSamples returns a statement selecting the given fields (or all fields)
// for a single device over [from, to).
func (b *QueryBuilder) RawSamples(deviceKey string, fields []string, from, to time.Time) (string, error) {
	predicate, err := keyPredicate([]string{deviceKey})
	if err != nil {
		return "", err
	}

	projection := "*"
	if len(fields) > 0 {
		quoted := make([]string, 0, len(fields))
		for _, f := range fields {
			if err := validateIdent(f); err != nil {
				return "", err
			}
			quoted = append(quoted, quoteIdent(f))
		}
		projection = strings.Join(quoted, ",")
	}

	return fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s AND time >= '%s' AND time < '%s'`,
		projection,
		quoteIdent(b.measurement),
		predicate,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	), nil
}

func keyPredicate(deviceKeys []string) (string, error) {
	if len(deviceKeys) == 0 {
		return "", ErrNoDeviceKeys
	}

	seen := make(map[string]struct{})
	var clauses []string
	for _, key := range deviceKeys {
		key = strings.TrimSpace(key)
		if err := validateKey(key); err != nil {
			return "", err
		}
		for _, variant := range []string{key, strings.ToLower(key), strings.ToUpper(key)} {
			if _, dup := seen[variant]; dup {
				continue
			}
			seen[variant] = struct{}{}
			clauses = append(clauses, fmt.Sprintf(`"key" = '%s'`, escapeString(variant)))
		}
	}

	return "(" + strings.Join(clauses, " OR ") + ")", nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrInvalidDeviceKey
	}
	for _, r := range key {
		if r > unicode.MaxASCII || unicode.IsControl(r) {
			return ErrInvalidDeviceKey
		}
	}
	return nil
}

func validateIdent(ident string) error {
	if strings.TrimSpace(ident) == "" {
		return ErrInvalidField
	}
	for _, r := range ident {
		if r > unicode.MaxASCII || unicode.IsControl(r) {
			return ErrInvalidField
		}
	}
	return nil
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `\"`) + `"`
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
