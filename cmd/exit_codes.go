package cmd

// Exit codes of the nandfs binary. Everything except Success also
// prints a message to stderr.
const (
	// Success is the same as EXIT_SUCCESS in C.
	Success = iota

	// BadArgs means the command line arguments made no sense.
	BadArgs

	// BadPassword means the repository could not be unlocked.
	BadPassword

	// UnknownError is everything we failed to categorize.
	UnknownError
)
