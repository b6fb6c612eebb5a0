package domain

// Metadata keys used on GraphState.Metadata.
const (
	// KeyFormatVersion records the snapshot format a document was written with.
	KeyFormatVersion = "format_version"

	// KeyEncrypted holds the base64 ciphertext of an encrypted document envelope.
	KeyEncrypted = "__encrypted__"

	// KeyRedacted lists, comma separated, the data keys masked before persistence.
	KeyRedacted = "__redacted__"
)

// FormatVersion is the current snapshot format.
const FormatVersion = "1"
