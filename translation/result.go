package translation

// Result is the outcome of a lookup. Value always holds something displayable: the
// translation, or the key itself when the lookup missed or failed.
type Result struct {
	Value string
	// Found is set when the key already had a translation.
	Found bool
	// Inserted is set when the key was written to the resource file as its own placeholder.
	Inserted bool
	// Err carries the failure that made the lookup fall back to the key.
	Err error
}

func (r Result) String() string {
	return r.Value
}

// Entry is a single translation.
type Entry struct {
	Key   string
	Value string
}
