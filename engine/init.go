package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/dataplane"
	"github.com/otelwasm/smartengine/runtime"
)

const initExport = "init"

type initState int

const (
	initUninitialized initState = iota
	initInitialized
)

// smartModuleInit is the optional init export of a stage.
type smartModuleInit struct {
	fn    runtime.FunctionInstance
	state initState
}

// tryInstantiateInit returns nil when the guest does not export init.
func tryInstantiateInit(ic *instanceContext) *smartModuleInit {
	fn := ic.exportedFunction(initExport)
	if fn == nil {
		return nil
	}
	return &smartModuleInit{fn: fn}
}

// initialize runs init once with the stage params. A nil receiver stands for
// a guest without init and succeeds without a call.
func (i *smartModuleInit) initialize(ctx context.Context, e *Engine, ic *instanceContext) error {
	if i == nil || i.state == initInitialized {
		return nil
	}

	triple, err := ic.writeInput(ctx, e, dataplane.InitInput{Params: ic.params})
	if err != nil {
		return err
	}
	code, err := ic.call(ctx, e, i.fn, initExport, triple)
	i.state = initInitialized
	if err != nil {
		return err
	}
	if code >= 0 {
		ic.logger.Debug("init succeeded", zap.Int32("code", code))
		return nil
	}

	initErr := &InitError{Stage: ic.name, Status: InitStatusFromCode(code)}
	if initErr.Status == InitStatusInitError {
		var out dataplane.InitOutput
		if ok, err := ic.readOutput(&out); err != nil {
			ic.logger.Warn("reading init error", zap.Error(err))
		} else if ok {
			initErr.Message = out.Error
		}
	}
	ic.logger.Warn("init failed", zap.Int32("code", code), zap.Stringer("status", initErr.Status), zap.String("message", initErr.Message))
	return initErr
}
