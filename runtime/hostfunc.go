package runtime

import "context"

// Caller is the guest module on whose behalf a host function runs.
type Caller interface {
	// Memory returns the caller's exported memory, or nil.
	Memory() Memory
}

// GoFunction is a runtime-agnostic host function. Parameters are read from
// stack and results are written back to it, in declaration order.
type GoFunction func(ctx context.Context, caller Caller, stack []uint64)

// HostFunctionDefinition defines a host function with its signature and implementation
type HostFunctionDefinition struct {
	FunctionName string
	ParamTypes   []ValueType
	ResultTypes  []ValueType
	Function     GoFunction
}

// HostModule represents a collection of host functions that can be instantiated in any runtime
type HostModule struct {
	Name      string
	Functions []HostFunctionDefinition
}

// NewHostModule creates a new host module with the given name
func NewHostModule(name string) *HostModule {
	return &HostModule{
		Name:      name,
		Functions: make([]HostFunctionDefinition, 0),
	}
}

// AddFunction adds a host function to the module
func (hm *HostModule) AddFunction(name string, paramTypes, resultTypes []ValueType, fn GoFunction) *HostModule {
	hm.Functions = append(hm.Functions, HostFunctionDefinition{
		FunctionName: name,
		ParamTypes:   paramTypes,
		ResultTypes:  resultTypes,
		Function:     fn,
	})
	return hm
}
