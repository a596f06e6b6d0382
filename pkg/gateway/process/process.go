// Package process calls foreign routines by running their source file under
// an interpreter, one child process per invocation.
//
// The child receives the routine name in POLYTREE_FUNCTION and the JSON
// encoded argument array in POLYTREE_ARGS, and answers on stdout with one of
//
//	{"result": <any JSON value>}
//	{"error": "message", "kind": "resolution" | "invocation"}
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/ignitionstack/polytree/pkg/gateway"
	"github.com/ignitionstack/polytree/pkg/logging"
)

// Environment variables understood by child processes
const (
	EnvFunction = "POLYTREE_FUNCTION"
	EnvArgs     = "POLYTREE_ARGS"
)

// waitDelay bounds how long a cancelled child's grandchildren may keep the
// output pipes open
const waitDelay = 2 * time.Second

// Error kinds a child may report
const (
	KindResolution = "resolution"
	KindInvocation = "invocation"
)

// DefaultInterpreters maps common language identifiers to commands.
func DefaultInterpreters() map[string][]string {
	return map[string][]string{
		"js":     {"node"},
		"python": {"python3"},
		"sh":     {"sh"},
	}
}

type loadedSource struct {
	language string
	path     string
	command  []string
}

// envelope is the reply a child writes to stdout
type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	Kind   string          `json:"kind"`
}

// Gateway is the subprocess adapter.
type Gateway struct {
	mu           sync.RWMutex
	interpreters map[string][]string
	sources      []loadedSource
	logger       logging.Logger
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates an adapter. interpreters maps a language to the command line
// that runs a source file of that language; the file path is appended.
func New(interpreters map[string][]string, logger logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	interp := make(map[string][]string, len(interpreters))
	for lang, cmd := range interpreters {
		interp[lang] = append([]string(nil), cmd...)
	}
	return &Gateway{
		interpreters: interp,
		logger:       logger,
	}
}

// Load implements gateway.Loader. It checks that the interpreter exists and
// the source file is readable; nothing runs until the first Invoke.
func (g *Gateway) Load(_ context.Context, language, source string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	command, ok := g.interpreters[language]
	if !ok || len(command) == 0 {
		return perrors.LoadFailure(language, source, fmt.Errorf("no interpreter configured for %s", language))
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return perrors.LoadFailure(language, source, fmt.Errorf("interpreter %q not found: %w", command[0], err))
	}

	path, err := filepath.Abs(source)
	if err != nil {
		return perrors.LoadFailure(language, source, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return perrors.LoadFailure(language, source, err)
	}
	if info.IsDir() {
		return perrors.LoadFailure(language, source, fmt.Errorf("%s is a directory", path))
	}

	for _, s := range g.sources {
		if s.path == path && s.language == language {
			return nil
		}
	}
	g.sources = append(g.sources, loadedSource{language: language, path: path, command: command})
	g.logger.Debugf("Registered %s source %s", language, path)
	return nil
}

// Invoke implements gateway.Invoker. Sources are tried in load order until
// one does not answer with a resolution failure.
func (g *Gateway) Invoke(ctx context.Context, function string, args ...any) (any, error) {
	g.mu.RLock()
	sources := append([]loadedSource(nil), g.sources...)
	g.mu.RUnlock()

	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, perrors.MarshalFailure(function, err)
	}

	for _, src := range sources {
		result, err := g.run(ctx, src, function, payload)
		if perrors.Is(err, perrors.CodeResolutionFailure) {
			continue
		}
		return result, err
	}
	return nil, perrors.ResolutionFailure(function)
}

func (g *Gateway) run(ctx context.Context, src loadedSource, function string, payload []byte) (any, error) {
	argv := append(append([]string(nil), src.command[1:]...), src.path)
	cmd := exec.CommandContext(ctx, src.command[0], argv...)
	cmd.Dir = filepath.Dir(src.path)
	cmd.WaitDelay = waitDelay
	cmd.Env = append(cmd.Environ(),
		EnvFunction+"="+function,
		EnvArgs+"="+string(payload),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.logger.Debugf("Running %s %s for %s", src.command[0], src.path, function)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, perrors.InvocationFailure(function, ctx.Err())
		}
		return nil, perrors.InvocationFailure(function,
			fmt.Errorf("%s exited: %w: %s", filepath.Base(src.path), err, strings.TrimSpace(stderr.String())))
	}

	return decodeEnvelope(function, stdout.Bytes())
}

func decodeEnvelope(function string, out []byte) (any, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(out)))
	if err := dec.Decode(&env); err != nil {
		return nil, perrors.MarshalFailure(function, fmt.Errorf("invalid reply %q: %w", truncate(out, 120), err))
	}

	if env.Error != "" || env.Kind != "" {
		msg := env.Error
		if msg == "" {
			msg = "foreign routine reported an error"
		}
		if env.Kind == KindResolution {
			return nil, perrors.ResolutionFailure(function).WithCause(fmt.Errorf("%s", msg))
		}
		return nil, perrors.InvocationFailure(function, fmt.Errorf("%s", msg))
	}

	if len(env.Result) == 0 {
		return nil, perrors.MarshalFailure(function, fmt.Errorf("reply has neither result nor error"))
	}

	var value any
	if err := json.Unmarshal(env.Result, &value); err != nil {
		return nil, perrors.MarshalFailure(function, err)
	}
	return value, nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close implements gateway.Gateway. Children never outlive a call, so
// there is nothing to release beyond the source list.
func (g *Gateway) Close(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sources = nil
	return nil
}
