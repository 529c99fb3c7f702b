package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/ports"
)

// pythonBootstrap execs the step's code body with `inputs` bound in its
// namespace and reads back whatever the body assigned to `output`.
const pythonBootstrap = `
import json, sys
inputs = json.loads(sys.stdin.read())
ns = {"inputs": inputs}
with open(sys.argv[1]) as f:
    src = f.read()
exec(compile(src, "code_node", "exec"), ns)
sys.stdout.write(json.dumps(ns.get("output")))
`

// jsBootstrap is node's equivalent: the body may reference `inputs` and
// should assign its result to `output`.
const jsBootstrap = `
const fs = require("fs");
const inputs = JSON.parse(fs.readFileSync(0, "utf8"));
const src = fs.readFileSync(process.argv[2], "utf8");
const sandbox = { inputs, output: undefined };
(function () {
  const inputs = sandbox.inputs;
  eval(src);
  sandbox.output = typeof output !== "undefined" ? output : undefined;
}).call(sandbox);
process.stdout.write(JSON.stringify(sandbox.output));
`

// LocalCodeRunner is the CLI's default ports.CodeRunner: it shells out to a
// local interpreter binary. It is NOT a sandbox — no seccomp, no container,
// no resource limits beyond the step's own timeout — and exists so the CLI
// has something to run against during development; a production deployment
// should register a real sandboxed runner in its place.
type LocalCodeRunner struct {
	interpreter string
}

// NewLocalCodeRunner returns a runner that invokes the named interpreter
// binary (e.g. "python3", "node") on $PATH.
func NewLocalCodeRunner(interpreter string) *LocalCodeRunner {
	return &LocalCodeRunner{interpreter: interpreter}
}

func (r *LocalCodeRunner) RunCode(ctx context.Context, language, body string, inputs map[string]model.Value, timeoutMs int, env map[string]string) (ports.CodeResult, error) {
	if timeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()
	}

	bootstrap, bodyFile, err := stageCodeBody(language, body)
	if err != nil {
		return ports.CodeResult{}, err
	}
	defer os.Remove(bodyFile)

	rawInputs := make(map[string]any, len(inputs))
	for k, v := range inputs {
		rawInputs[k] = v.ToAny()
	}
	stdin, err := json.Marshal(rawInputs)
	if err != nil {
		return ports.CodeResult{}, fmt.Errorf("marshalling code node inputs: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.interpreter, bootstrapArgs(language, bootstrap, bodyFile)...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return ports.CodeResult{TimedOut: true, Stderr: stderr.String()}, nil
	}
	if runErr != nil {
		return ports.CodeResult{Success: false, Error: runErr.Error(), Stderr: stderr.String()}, nil
	}

	var raw any
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return ports.CodeResult{Success: false, Error: fmt.Sprintf("parsing code node output: %v", err), Stderr: stderr.String()}, nil
	}
	return ports.CodeResult{Success: true, Output: model.FromAny(raw)}, nil
}

func stageCodeBody(language, body string) (bootstrap string, bodyFile string, err error) {
	f, err := os.CreateTemp("", "pipeflow-code-*")
	if err != nil {
		return "", "", fmt.Errorf("staging code body: %w", err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", "", fmt.Errorf("writing code body: %w", err)
	}
	f.Close()

	switch language {
	case "python":
		return pythonBootstrap, f.Name(), nil
	case "js":
		return jsBootstrap, f.Name(), nil
	default:
		os.Remove(f.Name())
		return "", "", fmt.Errorf("unsupported code node language %q", language)
	}
}

func bootstrapArgs(language, bootstrap, bodyFile string) []string {
	switch language {
	case "python":
		return []string{"-c", bootstrap, bodyFile}
	default:
		return []string{"-e", bootstrap, "--", bodyFile}
	}
}
