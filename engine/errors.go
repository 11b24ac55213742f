package engine

import "errors"

var (
	ErrNilEngine            = errors.New("nil engine")
	ErrChainClosed          = errors.New("chain is closed")
	ErrInstantiation        = errors.New("instantiation error")
	ErrAllocation           = errors.New("allocation error")
	ErrMemoryWrite          = errors.New("memory write error")
	ErrMemoryRead           = errors.New("memory read error")
	ErrGuestTrap            = errors.New("guest trapped")
	ErrEncoding             = errors.New("encoding error")
	ErrDecoding             = errors.New("decoding error")
	ErrUnknownTransformKind = errors.New("unknown transform kind")
	ErrInvalidConfig        = errors.New("invalid module config")
)

// isGuestFault reports whether err was caused by the guest misbehaving, as
// opposed to a host side condition.
func isGuestFault(err error) bool {
	return errors.Is(err, ErrAllocation) ||
		errors.Is(err, ErrMemoryWrite) ||
		errors.Is(err, ErrMemoryRead) ||
		errors.Is(err, ErrGuestTrap) ||
		errors.Is(err, ErrDecoding)
}
