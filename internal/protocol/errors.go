package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Resolution layer.
	ErrLocationNotFound = "E_LOCATION_NOT_FOUND"
	ErrAmbiguousDest    = "E_AMBIGUOUS_DEST"

	// Transfer layer.
	ErrNoMatchOrFull     = "E_NO_MATCH_OR_FULL"
	ErrCapabilityMissing = "E_CAPABILITY_MISSING"
	ErrTransferFailed    = "E_TRANSFER_FAILED"

	// Directory layer.
	ErrDirectoryUnavailable = "E_DIRECTORY_UNAVAILABLE"

	ErrNodeNotFound = "E_NODE_NOT_FOUND"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:      {},
	ErrLocationNotFound:     {},
	ErrAmbiguousDest:        {},
	ErrNoMatchOrFull:        {},
	ErrCapabilityMissing:    {},
	ErrTransferFailed:       {},
	ErrDirectoryUnavailable: {},
	ErrNodeNotFound:         {},
	ErrInternal:             {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
