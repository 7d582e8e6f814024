package drain

// StopReason says why a drain loop ended.
type StopReason int

const (
	// StopEmpty means the list had no more elements.
	StopEmpty StopReason = iota
	// StopEpochChanged means a newer token was minted for the key.
	StopEpochChanged
	// StopCanceled means the context ended between elements.
	StopCanceled
)

func (r StopReason) String() string {
	switch r {
	case StopEmpty:
		return "empty"
	case StopEpochChanged:
		return "epoch_changed"
	case StopCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result summarises one drain.
type Result struct {
	Processed int
	Failed    int
	Stopped   StopReason
}
