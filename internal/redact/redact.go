// Package redact renders personal data safe for logs.
package redact

import "strings"

// Email keeps the first two characters of the local part and the domain.
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***"
	}
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}
	return local + "@" + domain
}
