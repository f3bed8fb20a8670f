package custom

import (
	"context"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	loggerpkg "github.com/minhyannv/toolchat-go/pkg/logger"
	"github.com/minhyannv/toolchat-go/pkg/tools"
)

// maxCalculatorSteps bounds expression evaluation.
const maxCalculatorSteps = 100_000

// InvalidEquation is the failure message for expressions that do not evaluate.
const InvalidEquation = "Invalid equation"

// calculator evaluates equation as a Starlark expression. Starlark has no
// I/O builtins, so the model cannot reach the host through it.
func (t *Toolset) calculator(ctx context.Context, args calculatorArgs) tools.Result {
	equation := strings.TrimSpace(args.Equation)
	if equation == "" {
		return tools.Failure(InvalidEquation)
	}

	thread := &starlark.Thread{Name: "calculator"}
	thread.SetMaxExecutionSteps(maxCalculatorSteps)
	stop := context.AfterFunc(ctx, func() { thread.Cancel("context canceled") })
	defer stop()

	value, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "equation", equation, nil)
	if err != nil {
		loggerpkg.Debugf(t.verbose, t.logger, "[verbose] calculator: %q failed: %v", equation, err)
		return tools.Failure(InvalidEquation)
	}
	return tools.Success(equation + " = " + value.String())
}
