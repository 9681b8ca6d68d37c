// Package uci drives a UCI chess engine such as Stockfish over its
// standard input and output.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/board"
	"github.com/discochess/gamereview/internal/engine"
	"github.com/discochess/gamereview/internal/eval"
	"github.com/discochess/gamereview/internal/fen"
	"github.com/discochess/gamereview/internal/stats"
)

// Compile-time check that Engine implements engine.Engine.
var _ engine.Engine = (*Engine)(nil)

// Defaults used when options are not given.
const (
	DefaultThreads = 4
	DefaultHashMB  = 1024
)

// Engine is a UCI engine subprocess. It is restarted on the next batch
// after a process failure.
type Engine struct {
	path    string
	threads int
	hashMB  int
	logger  *zap.Logger
	stats   stats.Collector
	start   func() (*process, error)

	proc     *process
	identity engine.Identity
	multiPV  int
	closed   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreads sets the Threads option.
func WithThreads(n int) Option {
	return func(e *Engine) { e.threads = n }
}

// WithHashMB sets the Hash option in megabytes.
func WithHashMB(mb int) Option {
	return func(e *Engine) { e.hashMB = mb }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(e *Engine) { e.stats = c }
}

// New starts the engine at path and completes the UCI handshake.
func New(path string, opts ...Option) (*Engine, error) {
	canon, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}
	return newEngine(canon, func() (*process, error) { return startProcess(canon) }, opts...)
}

func newEngine(path string, start func() (*process, error), opts ...Option) (*Engine, error) {
	e := &Engine{
		path:    path,
		threads: DefaultThreads,
		hashMB:  DefaultHashMB,
		logger:  zap.NewNop(),
		stats:   stats.NewNoop(),
		start:   start,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.restart(); err != nil {
		return nil, err
	}
	e.logger.Info("engine started",
		zap.String("path", e.identity.Path),
		zap.String("name", e.identity.Name),
		zap.String("version", e.identity.Version),
		zap.Int("threads", e.threads),
		zap.Int("hashMB", e.hashMB),
	)
	return e, nil
}

// Identity returns the engine's identity.
func (e *Engine) Identity() engine.Identity {
	return e.identity
}

// EvaluateBatch evaluates fens in order.
func (e *Engine) EvaluateBatch(ctx context.Context, fens []string, p eval.Params, progress func()) (map[string]eval.Set, error) {
	if e.closed {
		return nil, engine.ErrClosed
	}
	results := make(map[string]eval.Set, len(fens))
	if len(fens) == 0 {
		return results, nil
	}
	if e.proc == nil {
		e.logger.Warn("engine not running, restarting")
		if err := e.restart(); err != nil {
			return results, err
		}
	}
	if err := e.configure(p.MultiPV); err != nil {
		return results, e.fail(err)
	}

	for _, f := range fens {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("batch interrupted", zap.Int("done", len(results)), zap.Int("total", len(fens)))
			return results, err
		}

		set, err := e.evaluate(f, p)
		if err != nil {
			if errors.Is(err, board.ErrInvalidPosition) {
				e.logger.Warn("skipping invalid position", zap.String("fen", f), zap.Error(err))
				results[f] = nil
				if progress != nil {
					progress()
				}
				continue
			}
			e.stats.IncCounter(stats.MetricEngineFailures, 1)
			e.logger.Error("engine failed, aborting batch", zap.String("fen", f), zap.Error(err))
			return results, e.fail(err)
		}
		results[f] = set
		if progress != nil {
			progress()
		}
	}
	return results, nil
}

// Close stops the engine process.
func (e *Engine) Close() error {
	if e.closed {
		return engine.ErrClosed
	}
	e.closed = true
	if e.proc == nil {
		return nil
	}
	err := e.proc.stop()
	e.proc = nil
	return err
}

// evaluate searches a single position.
func (e *Engine) evaluate(f string, p eval.Params) (eval.Set, error) {
	pos, err := board.Decode(f)
	if err != nil {
		return nil, err
	}
	if board.StatusOf(pos) != board.Ongoing {
		return eval.Set{}, nil
	}
	side := board.Side(pos)

	start := time.Now()
	if err := e.proc.send("position fen " + fen.Full(f)); err != nil {
		return nil, err
	}
	if err := e.proc.send(fmt.Sprintf("go depth %d", p.Depth)); err != nil {
		return nil, err
	}

	infos := make(map[int]info)
	for {
		line, err := e.proc.readLine()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, "bestmove") {
			fields := strings.Fields(line)
			if len(fields) < 2 || fields[1] == "(none)" {
				return eval.Set{}, nil
			}
			break
		}
		if in, ok := parseInfo(line); ok {
			infos[in.multiPV] = in
		}
	}
	e.stats.ObserveHistogram(stats.MetricEngineSeconds, time.Since(start).Seconds())

	return buildSet(infos, side), nil
}

// configure applies MultiPV when it changes.
func (e *Engine) configure(multiPV int) error {
	if multiPV < 1 {
		multiPV = 1
	}
	if multiPV == e.multiPV {
		return nil
	}
	if err := e.proc.send(fmt.Sprintf("setoption name MultiPV value %d", multiPV)); err != nil {
		return err
	}
	if err := e.proc.sync(); err != nil {
		return err
	}
	e.multiPV = multiPV
	return nil
}

// restart starts a fresh process and performs the handshake.
func (e *Engine) restart() error {
	proc, err := e.start()
	if err != nil {
		return fmt.Errorf("%w: starting %s: %v", engine.ErrEngine, e.path, err)
	}

	name, err := proc.handshake()
	if err != nil {
		proc.stop()
		return fmt.Errorf("%w: handshake: %v", engine.ErrEngine, err)
	}
	for _, opt := range []string{
		fmt.Sprintf("setoption name Threads value %d", e.threads),
		fmt.Sprintf("setoption name Hash value %d", e.hashMB),
	} {
		if err := proc.send(opt); err != nil {
			proc.stop()
			return fmt.Errorf("%w: configuring: %v", engine.ErrEngine, err)
		}
	}
	if err := proc.sync(); err != nil {
		proc.stop()
		return fmt.Errorf("%w: configuring: %v", engine.ErrEngine, err)
	}

	e.proc = proc
	e.multiPV = 0
	e.identity = engine.Identity{
		Path:    e.path,
		Name:    name,
		Version: majorVersion(name),
	}
	return nil
}

// fail tears down the process so the next batch restarts it.
func (e *Engine) fail(err error) error {
	if e.proc != nil {
		e.proc.stop()
		e.proc = nil
	}
	if errors.Is(err, engine.ErrEngine) {
		return err
	}
	return fmt.Errorf("%w: %v", engine.ErrEngine, err)
}

var versionPattern = regexp.MustCompile(`(\d+)`)

// majorVersion extracts the first number from an engine name.
func majorVersion(name string) string {
	if m := versionPattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return engine.UnknownVersion
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving engine path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, nil
}

// info is the last reported search result for one MultiPV slot.
type info struct {
	multiPV int
	cp      *int
	mate    *int
	pv      []string
}

// parseInfo parses an "info ... score ... pv ..." line. Bound scores and
// lines without a PV are ignored.
func parseInfo(line string) (info, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return info{}, false
	}
	in := info{multiPV: 1}
	hasScore := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					in.multiPV = n
				}
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				return info{}, false
			}
			n, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return info{}, false
			}
			switch fields[i+1] {
			case "cp":
				in.cp = &n
			case "mate":
				in.mate = &n
			default:
				return info{}, false
			}
			hasScore = true
			i += 2
			if i+1 < len(fields) && (fields[i+1] == "lowerbound" || fields[i+1] == "upperbound") {
				return info{}, false
			}
		case "pv":
			in.pv = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	if !hasScore || len(in.pv) == 0 {
		return info{}, false
	}
	return in, true
}

// buildSet orders the slots and converts scores from the side to move to
// White's point of view.
func buildSet(infos map[int]info, side string) eval.Set {
	set := eval.Set{}
	for k := 1; ; k++ {
		in, ok := infos[k]
		if !ok {
			break
		}
		line := eval.Line{Move: in.pv[0], PV: in.pv}
		if in.cp != nil {
			cp := *in.cp
			if side == "b" {
				cp = -cp
			}
			line.Centipawns = &cp
		}
		if in.mate != nil {
			m := *in.mate
			if side == "b" {
				m = -m
			}
			line.Mate = &m
		}
		set = append(set, line)
	}
	return set
}

// process is one running engine connected through pipes.
type process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	writer  *bufio.Writer
	scanner *bufio.Scanner
}

func startProcess(path string) (*process, error) {
	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := newProcess(stdin, stdout)
	p.cmd = cmd
	return p, nil
}

func newProcess(stdin io.WriteCloser, stdout io.Reader) *process {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &process{
		stdin:   stdin,
		writer:  bufio.NewWriter(stdin),
		scanner: scanner,
	}
}

func (p *process) send(cmd string) error {
	if _, err := p.writer.WriteString(cmd + "\n"); err != nil {
		return err
	}
	return p.writer.Flush()
}

func (p *process) readLine() (string, error) {
	if p.scanner.Scan() {
		return strings.TrimSpace(p.scanner.Text()), nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}

// waitFor reads until a line starting with prefix.
func (p *process) waitFor(prefix string) (string, error) {
	for {
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, prefix) {
			return line, nil
		}
	}
}

// handshake runs "uci" and returns the reported engine name.
func (p *process) handshake() (string, error) {
	if err := p.send("uci"); err != nil {
		return "", err
	}
	var name string
	for {
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, "id name ") {
			name = strings.TrimSpace(strings.TrimPrefix(line, "id name "))
		}
		if line == "uciok" {
			return name, nil
		}
	}
}

// sync waits for the engine to acknowledge pending commands.
func (p *process) sync() error {
	if err := p.send("isready"); err != nil {
		return err
	}
	_, err := p.waitFor("readyok")
	return err
}

func (p *process) stop() error {
	p.send("quit")
	p.stdin.Close()
	if p.cmd == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case <-done:
		return nil
	case <-time.After(2 * time.Second):
		p.cmd.Process.Kill()
		<-done
		return nil
	}
}
