// Package dataplane defines the records and batches exchanged with
// SmartModules and their versioned wire encoding.
//
// Every message is encoded in protobuf wire format. A version selects which
// fields are written and read: fields introduced after the version are
// neither encoded nor decoded, so a guest built against an older version
// never sees them.
package dataplane

import "fmt"

const (
	// DefaultVersion is used when a module does not configure one.
	DefaultVersion int16 = 17

	// MinVersion and MaxVersion bound the supported versions.
	MinVersion int16 = 11
	MaxVersion int16 = 22

	// VersionParams is the first version carrying batch params in Input.
	VersionParams int16 = 16

	// VersionTimestamps is the first version carrying the base timestamp and
	// record headers.
	VersionTimestamps int16 = 21
)

// CheckVersion returns ErrUnsupportedVersion when version is out of range.
func CheckVersion(version int16) error {
	if version < MinVersion || version > MaxVersion {
		return fmt.Errorf("dataplane: version %d not in [%d, %d]: %w", version, MinVersion, MaxVersion, ErrUnsupportedVersion)
	}
	return nil
}

// Encoder is implemented by values that can be written to a guest.
type Encoder interface {
	Encode(version int16) ([]byte, error)
}

// Decoder is implemented by values that can be read back from a guest.
// Decode may retain references to data.
type Decoder interface {
	Decode(data []byte, version int16) error
}
