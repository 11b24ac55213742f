package engine

import "fmt"

// InitStatus is the status a guest init export reports with a negative
// return code.
type InitStatus int32

const (
	InitStatusUnknownError   InitStatus = -1
	InitStatusParamError     InitStatus = -2
	InitStatusInitError      InitStatus = -3
	InitStatusDecodingInput  InitStatus = -10
	InitStatusEncodingOutput InitStatus = -11
)

// InitStatusFromCode maps a negative return code to its status. Unknown
// codes map to InitStatusUnknownError.
func InitStatusFromCode(code int32) InitStatus {
	switch s := InitStatus(code); s {
	case InitStatusParamError, InitStatusInitError, InitStatusDecodingInput, InitStatusEncodingOutput:
		return s
	default:
		return InitStatusUnknownError
	}
}

func (s InitStatus) String() string {
	switch s {
	case InitStatusUnknownError:
		return "UnknownError"
	case InitStatusParamError:
		return "ParamError"
	case InitStatusInitError:
		return "InitError"
	case InitStatusDecodingInput:
		return "DecodingInput"
	case InitStatusEncodingOutput:
		return "EncodingOutput"
	default:
		return fmt.Sprintf("InitStatus(%d)", int32(s))
	}
}

// Error lets a status be used as an errors.Is target.
func (s InitStatus) Error() string {
	return "init status " + s.String()
}

// TransformStatus is the status a guest transform export reports with a
// negative return code.
type TransformStatus int32

const (
	TransformStatusUnknownError         TransformStatus = -1
	TransformStatusDecodingBaseInput    TransformStatus = -11
	TransformStatusDecodingRecords      TransformStatus = -22
	TransformStatusEncodingOutput       TransformStatus = -33
	TransformStatusParseError           TransformStatus = -44
	TransformStatusUndefinedRightRecord TransformStatus = -55
)

// TransformStatusFromCode maps a negative return code to its status. Unknown
// codes map to TransformStatusUnknownError.
func TransformStatusFromCode(code int32) TransformStatus {
	switch s := TransformStatus(code); s {
	case TransformStatusDecodingBaseInput, TransformStatusDecodingRecords, TransformStatusEncodingOutput,
		TransformStatusParseError, TransformStatusUndefinedRightRecord:
		return s
	default:
		return TransformStatusUnknownError
	}
}

func (s TransformStatus) String() string {
	switch s {
	case TransformStatusUnknownError:
		return "UnknownError"
	case TransformStatusDecodingBaseInput:
		return "DecodingBaseInput"
	case TransformStatusDecodingRecords:
		return "DecodingRecords"
	case TransformStatusEncodingOutput:
		return "EncodingOutput"
	case TransformStatusParseError:
		return "ParseError"
	case TransformStatusUndefinedRightRecord:
		return "UndefinedRightRecord"
	default:
		return fmt.Sprintf("TransformStatus(%d)", int32(s))
	}
}

// Error lets a status be used as an errors.Is target.
func (s TransformStatus) Error() string {
	return "transform status " + s.String()
}

// InitError is returned when a guest's init export fails.
type InitError struct {
	Stage  string
	Status InitStatus
	// Message is the error the guest announced, if any.
	Message string
}

func (e *InitError) Error() string {
	msg := fmt.Sprintf("%s: init failed: %s", e.Stage, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is matches an InitStatus target with the same value.
func (e *InitError) Is(target error) bool {
	s, ok := target.(InitStatus)
	return ok && s == e.Status
}

// TransformError is the error carried in an output when a guest transform
// returns a negative code.
type TransformError struct {
	Stage     string
	Transform string
	Status    TransformStatus
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s: %s failed: %s", e.Stage, e.Transform, e.Status)
}

// Is matches a TransformStatus target with the same value.
func (e *TransformError) Is(target error) bool {
	s, ok := target.(TransformStatus)
	return ok && s == e.Status
}
