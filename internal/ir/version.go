package ir

// Version constants for the identity scheme and the importer.
const (
	// SchemeVersion names the canonical URI scheme. Changing infixes, the
	// canonical prefix or key domains requires a new version.
	SchemeVersion = "tracegraph/uri/v1"

	// ImporterVersion is the tracegraph importer version.
	ImporterVersion = "0.1.0"
)
