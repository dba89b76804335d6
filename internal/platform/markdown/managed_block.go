package markdown

import "strings"

// Block delimits a generated region of a note so that regeneration keeps the
// text the user wrote around it.
type Block struct {
	Start string
	End   string
}

// Replace swaps the region between the markers for generated, or appends a new
// region when the markers are missing or out of order.
func (b Block) Replace(body, generated string) string {
	start := strings.Index(body, b.Start)
	end := strings.Index(body, b.End)
	block := b.Start + "\n" + generated + "\n" + b.End

	if start >= 0 && end > start {
		end += len(b.End)
		return body[:start] + block + body[end:]
	}

	if strings.TrimSpace(body) == "" {
		return block + "\n"
	}
	if strings.HasSuffix(body, "\n") {
		return body + "\n" + block + "\n"
	}
	return body + "\n\n" + block + "\n"
}
