package pgn

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Writer renders games as PGN.
type Writer struct {
	w       *bufio.Writer
	columns int
	started bool
}

// NewWriter creates a Writer wrapping movetext at columns characters
// (0 disables wrapping). Set appending when w already holds games so the
// first game is separated from them.
func NewWriter(w io.Writer, columns int, appending bool) *Writer {
	return &Writer{
		w:       bufio.NewWriter(w),
		columns: columns,
		started: appending,
	}
}

// WriteGame writes g with the comments in annotations, keyed by move
// index. Comments from the source game are replaced by the annotation for
// the same move; moves without an annotation keep their original comment.
// extra headers override or extend the game's headers.
func (w *Writer) WriteGame(g *Game, annotations map[int]string, extra []Tag) error {
	if w.started {
		if _, err := w.w.WriteString("\n"); err != nil {
			return fmt.Errorf("writing separator: %w", err)
		}
	}
	w.started = true

	for _, t := range mergeTags(g.Tags, extra) {
		if _, err := fmt.Fprintf(w.w, "[%s \"%s\"]\n", t.Key, escape(t.Value)); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	if err := w.writeMovetext(g, annotations); err != nil {
		return fmt.Errorf("writing movetext: %w", err)
	}
	return w.w.Flush()
}

func (w *Writer) writeMovetext(g *Game, annotations map[int]string) error {
	tokens := commentTokens(g.Intro)
	needNumber := true
	for _, m := range g.Moves {
		if m.Side == "w" {
			tokens = append(tokens, strconv.Itoa(m.Number)+".")
		} else if needNumber {
			tokens = append(tokens, strconv.Itoa(m.Number)+"...")
		}
		tokens = append(tokens, m.SAN)
		needNumber = false

		comment, ok := annotations[m.Index]
		if !ok {
			comment = m.Comment
		}
		if words := commentTokens(comment); len(words) > 0 {
			tokens = append(tokens, words...)
			needNumber = true
		}
	}
	result := g.Result
	if result == "" {
		result = "*"
	}
	tokens = append(tokens, result)

	lineLen := 0
	for i, tok := range tokens {
		if i > 0 {
			if w.columns > 0 && lineLen+1+len(tok) > w.columns {
				if _, err := w.w.WriteString("\n"); err != nil {
					return err
				}
				lineLen = 0
			} else {
				if _, err := w.w.WriteString(" "); err != nil {
					return err
				}
				lineLen++
			}
		}
		if _, err := w.w.WriteString(tok); err != nil {
			return err
		}
		lineLen += len(tok)
	}
	_, err := w.w.WriteString("\n")
	return err
}

// commentTokens splits a comment into braced words for wrapping. A word
// opening with '[' is kept on the line of the word before it, since PGN
// readers take any line starting with '[' for a tag pair.
func commentTokens(comment string) []string {
	comment = strings.NewReplacer("{", "", "}", "").Replace(comment)
	words := strings.Fields(comment)
	if len(words) == 0 {
		return nil
	}
	out := make([]string, 1, len(words)+2)
	out[0] = "{"
	for _, word := range words {
		if strings.HasPrefix(word, "[") {
			out[len(out)-1] += " " + word
			continue
		}
		out = append(out, word)
	}
	return append(out, "}")
}

func mergeTags(base, extra []Tag) []Tag {
	out := make([]Tag, len(base), len(base)+len(extra))
	copy(out, base)
	for _, e := range extra {
		replaced := false
		for i := range out {
			if out[i].Key == e.Key {
				out[i].Value = e.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
