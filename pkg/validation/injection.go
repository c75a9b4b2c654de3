package validation

import (
	"sort"

	libinjection "github.com/corazawaf/libinjection-go"
)

// Injection kinds reported by CheckText.
const (
	KindXSS  = "xss"
	KindSQLi = "sqli"
)

// InjectionCheckResult describes a suspicious free-text field.
type InjectionCheckResult struct {
	Field       string
	Kind        string
	Fingerprint string // libinjection fingerprint, SQLi only
}

// CheckText runs libinjection over one field. It returns nil for clean text.
// XSS is checked first: request text ends up rendered in the web client.
func CheckText(field, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}
	if libinjection.IsXSS(value) {
		return &InjectionCheckResult{Field: field, Kind: KindXSS}
	}
	if isSQLi, fingerprint := libinjection.IsSQLi(value); isSQLi {
		return &InjectionCheckResult{Field: field, Kind: KindSQLi, Fingerprint: string(fingerprint)}
	}
	return nil
}

// CheckFields runs CheckText over every field, in field-name order.
func CheckFields(fields map[string]string) []*InjectionCheckResult {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []*InjectionCheckResult
	for _, name := range names {
		if r := CheckText(name, fields[name]); r != nil {
			results = append(results, r)
		}
	}
	return results
}

// Blocking returns the results that must reject the request. Only XSS
// blocks: request text is never interpolated into SQL, so SQLi hits are
// audited but let through.
func Blocking(results []*InjectionCheckResult) []*InjectionCheckResult {
	var out []*InjectionCheckResult
	for _, r := range results {
		if r.Kind == KindXSS {
			out = append(out, r)
		}
	}
	return out
}
