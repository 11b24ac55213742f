package wazero

import "github.com/otelwasm/smartengine/runtime"

func init() {
	runtime.Register(RuntimeType, newWazeroRuntime)
}
