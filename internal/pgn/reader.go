package pgn

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/discochess/gamereview/internal/board"
)

// Reader streams games from a PGN collection. Malformed games are logged
// and skipped.
type Reader struct {
	scanner *bufio.Scanner
	logger  *zap.Logger

	pending   strings.Builder
	hasMoves  bool
	inComment bool
	offset    int
	done      bool
}

// NewReader creates a Reader. If logger is nil, a no-op logger is used.
func NewReader(r io.Reader, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)
	return &Reader{scanner: scanner, logger: logger}
}

// Next returns the next game, or io.EOF when the input is exhausted.
func (r *Reader) Next() (*Game, error) {
	for {
		text, ok, err := r.nextBlock()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, io.EOF
		}
		game, err := Parse(text)
		if err != nil {
			r.logger.Warn("skipping malformed game",
				zap.Int("line", r.offset),
				zap.Error(err),
			)
			continue
		}
		return game, nil
	}
}

// nextBlock returns the raw text of the next game. A tag pair line that
// follows movetext starts a new game; lines inside an open comment never
// do.
func (r *Reader) nextBlock() (string, bool, error) {
	if r.done {
		return "", false, nil
	}
	for r.scanner.Scan() {
		r.offset++
		line := r.scanner.Text()
		isTag := !r.inComment && tagLine.MatchString(line)

		if isTag && r.hasMoves {
			block := r.pending.String()
			r.pending.Reset()
			r.hasMoves = false
			r.pending.WriteString(line)
			r.pending.WriteString("\n")
			return block, true, nil
		}
		if !isTag && strings.TrimSpace(line) != "" {
			r.hasMoves = true
		}
		r.inComment = commentOpen(line, r.inComment)
		r.pending.WriteString(line)
		r.pending.WriteString("\n")
	}
	if err := r.scanner.Err(); err != nil {
		return "", false, fmt.Errorf("reading PGN: %w", err)
	}
	r.done = true
	block := r.pending.String()
	r.pending.Reset()
	if strings.TrimSpace(block) == "" {
		return "", false, nil
	}
	return block, true, nil
}

// commentOpen reports whether a brace comment is still open after line,
// given whether one was open before it.
func commentOpen(line string, open bool) bool {
	if !open && tagLine.MatchString(line) {
		return false
	}
	for _, c := range line {
		switch {
		case c == '{':
			open = true
		case c == '}':
			open = false
		case c == ';' && !open:
			return false
		}
	}
	return open
}

// joinCommentLines folds the continuation lines of a wrapped comment onto
// the line where the comment opened. The decoder drops every line starting
// with '[' as a tag pair, which would cut "[%clk ...]" out of a comment.
func joinCommentLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	open := false
	for _, line := range lines {
		if open && len(out) > 0 {
			out[len(out)-1] += " " + strings.TrimSpace(line)
		} else {
			out = append(out, line)
		}
		open = commentOpen(line, open)
	}
	return strings.Join(out, "\n")
}

// splitIntro removes the comments that precede the first move and returns
// them joined. The decoder cannot attach a comment to a missing move.
func splitIntro(text string) (rest, intro string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" || tagLine.MatchString(line) {
			continue
		}
		var parts []string
		for strings.HasPrefix(t, "{") {
			end := strings.IndexByte(t, '}')
			if end < 0 {
				break
			}
			if c := strings.TrimSpace(t[1:end]); c != "" {
				parts = append(parts, c)
			}
			t = strings.TrimSpace(t[end+1:])
		}
		lines[i] = t
		return strings.Join(lines, "\n"), strings.Join(parts, " ")
	}
	return text, ""
}

// Parse decodes a single PGN game. Input the decoder cannot handle is
// returned as an error, never a panic.
func Parse(text string) (g *Game, err error) {
	defer func() {
		if p := recover(); p != nil {
			g, err = nil, fmt.Errorf("parsing game: decoder panic: %v", p)
		}
	}()

	text, intro := splitIntro(joinCommentLines(text))
	opt, err := chess.PGN(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing game: %w", err)
	}
	cg := chess.NewGame(opt)

	g = &Game{Intro: intro}
	for _, tp := range cg.TagPairs() {
		g.Tags = append(g.Tags, Tag{Key: tp.Key, Value: tp.Value})
	}

	positions := cg.Positions()
	moves := cg.Moves()
	if len(positions) != len(moves)+1 {
		return nil, fmt.Errorf("parsing game: %d positions for %d moves", len(positions), len(moves))
	}
	comments := cg.Comments()

	g.Start = board.Key(positions[0])
	g.Moves = make([]Move, len(moves))
	for i, m := range moves {
		before, after := positions[i], positions[i+1]
		mv := Move{
			Index:       i,
			Side:        board.Side(before),
			Number:      moveNumber(before),
			UCI:         m.String(),
			SAN:         chess.AlgebraicNotation{}.Encode(before, m),
			Before:      board.Key(before),
			After:       board.Key(after),
			AfterStatus: board.StatusOf(after),
		}
		if i < len(comments) {
			mv.Comment = strings.TrimSpace(strings.Join(comments[i], " "))
		}
		g.Moves[i] = mv
	}

	g.Result = g.Tag("Result")
	if g.Result == "" {
		g.Result = string(cg.Outcome())
	}
	return g, nil
}

// moveNumber reads the full move counter from a position.
func moveNumber(pos *chess.Position) int {
	parts := strings.Fields(pos.String())
	if len(parts) < 6 {
		return 1
	}
	n, err := strconv.Atoi(parts[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

var tagLine = regexp.MustCompile(`^\s*\[(\w+)\s+"((?:[^"\\]|\\.)*)"\s*\]`)

// ProcessedIDs scans the headers of an existing PGN collection and
// returns the identifiers of the games it contains.
func ProcessedIDs(r io.Reader) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)

	headers := make(map[string]string)
	inMoves := false
	flush := func() {
		if id := GameID(headers); id != "" {
			ids[id] = struct{}{}
		}
		headers = make(map[string]string)
	}

	for scanner.Scan() {
		line := scanner.Text()
		m := tagLine.FindStringSubmatch(line)
		if m == nil {
			if strings.TrimSpace(line) != "" {
				inMoves = true
			}
			continue
		}
		if inMoves {
			flush()
			inMoves = false
		}
		headers[m[1]] = unescape(m[2])
	}
	if err := scanner.Err(); err != nil {
		return ids, fmt.Errorf("scanning PGN headers: %w", err)
	}
	if len(headers) > 0 {
		flush()
	}
	return ids, nil
}

func unescape(s string) string {
	return strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(s)
}
