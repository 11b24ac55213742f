package smartmodule

import (
	"errors"
	"fmt"

	"github.com/otelwasm/smartengine/dataplane"
)

// Params are the key/value pairs a module is configured with.
type Params map[string]string

// Get returns the value of key.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Require returns the value of key or a *ParamError when it is missing.
func (p Params) Require(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", &ParamError{Key: key}
	}
	return v, nil
}

// ParamError reports a missing or invalid param. An init function returning
// it makes the init export report a param error instead of an init error.
type ParamError struct {
	Key    string
	Reason string
}

func (e *ParamError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing param %q", e.Key)
	}
	return fmt.Sprintf("invalid param %q: %s", e.Key, e.Reason)
}

// InitFunc configures the module from its params.
type InitFunc func(params Params) error

// Init decodes the encoded InitInput in data and runs fn with its params.
// A failure other than a *ParamError is announced as an InitOutput.
func Init(data []byte, version int16, fn InitFunc) ([]byte, int32) {
	var in dataplane.InitInput
	if err := in.Decode(data, version); err != nil {
		return nil, InitStatusDecodingInput
	}
	if fn == nil {
		return nil, StatusOK
	}

	params := Params(in.Params)
	if params == nil {
		params = Params{}
	}
	err := fn(params)
	if err == nil {
		return nil, StatusOK
	}

	var paramErr *ParamError
	if errors.As(err, &paramErr) {
		return nil, InitStatusParamError
	}
	b, encErr := dataplane.InitOutput{Error: err.Error()}.Encode(version)
	if encErr != nil {
		return nil, InitStatusEncodingOutput
	}
	return b, InitStatusInitError
}
