package bot

// quoteSeparator sits between a quoted parent message and the new text.
const quoteSeparator = "\n---\n"

// FlattenQuote assembles the stored content for a message that references
// a prior one: the referenced text, the separator, then the new text,
// all verbatim. One level only -- chains of quotes are not followed.
func FlattenQuote(quoted, body string) string {
	return quoted + quoteSeparator + body
}
