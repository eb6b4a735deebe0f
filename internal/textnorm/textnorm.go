package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Format standardizes extracted document text before chunking: Unicode NFC
// normalization, removal of everything outside the printable ASCII range, and
// whitespace collapsed to single spaces with the ends trimmed.
func Format(text string) string {
	normalized := norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(normalized))
	for i := 0; i < len(normalized); i++ {
		if c := normalized[i]; c >= 0x20 && c <= 0x7E {
			b.WriteByte(c)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
