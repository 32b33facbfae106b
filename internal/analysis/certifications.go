package analysis

import (
	"regexp"
	"strings"
)

var certificationRe = regexp.MustCompile(`(?:Acquired|Obtained|Earned|Certificate|Certified|Course).*?\.`)

// ExtractCertifications returns every sentence fragment starting at a
// certification keyword and ending at the next period, in document order.
// Fragments mentioning JavaScript are dropped so they never credit Java.
func ExtractCertifications(text string) []string {
	certs := make([]string, 0)
	for _, m := range certificationRe.FindAllString(text, -1) {
		if strings.Contains(strings.ToLower(m), "javascript") {
			continue
		}
		certs = append(certs, m)
	}
	return certs
}
