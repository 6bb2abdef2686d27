package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	InputError      = 4
	PersistError    = 5
	// PartialSuccess means the batch completed but some codes are missing.
	PartialSuccess = 6
)
