package handler

import (
	"fmt"
	"strings"
)

// fieldRule is one entry of a declarative validation schema: the field
// name as it appears in request bodies, its trimmed value, whether it is
// required and an optional length bound.  Rules are evaluated before any
// store call so invalid drafts never reach the catalog.
type fieldRule struct {
	field    string
	value    string
	required bool
	maxLen   int
}

// checkFields evaluates a rule list and returns per-field error messages
// keyed by field name, suitable for the 422 response body.  An empty map
// means the input passed.
func checkFields(rules []fieldRule) map[string][]string {
	errs := map[string][]string{}
	for _, r := range rules {
		v := strings.TrimSpace(r.value)
		if r.required && v == "" {
			errs[r.field] = append(errs[r.field], "the "+r.field+" field is required")
			continue
		}
		if r.maxLen > 0 && len([]rune(v)) > r.maxLen {
			errs[r.field] = append(errs[r.field], fmt.Sprintf("the %s may not be greater than %d characters", r.field, r.maxLen))
		}
	}
	return errs
}

// validEmail performs the minimal structural check used at registration.
// Real deliverability is not verified anywhere in the app.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}
