package constants

// StorageOutcome records what the storage stage did with a document.
type StorageOutcome string

const (
	OutcomeStored       StorageOutcome = "STORED"       // new row written
	OutcomeDeduplicated StorageOutcome = "DEDUPLICATED" // content hash already known
	OutcomeSkipped      StorageOutcome = "SKIPPED"      // missing path or classification
)

// UnknownFilenamePart fills filename fragments that cannot be derived.
const UnknownFilenamePart = "unknown"
