package process

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeDiagnostic decodes stderr for display. A leading byte order mark is
// dropped and invalid sequences become U+FFFD. Stdout is never decoded: it
// is spliced into the document byte for byte.
func decodeDiagnostic(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
