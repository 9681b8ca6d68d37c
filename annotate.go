package gamereview

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	clockTag = regexp.MustCompile(`\[%clk\s+[\d:.]+\]`)

	// ownTags match everything a previous run may have written.
	ownTags = []*regexp.Regexp{
		regexp.MustCompile(`\[%eval\s+[^\]]+\]`),
		regexp.MustCompile(`\[Analyse\s+[^\]]+\]`),
		regexp.MustCompile(`(?i)\{(Best|Good|OK|Dubious|Inaccuracy|Mistake|Blunder|Brilliant|Great|Unavailable)[^}]*\}`),
	}

	// ownLabel matches a leading classification written without braces.
	ownLabel = regexp.MustCompile(`^(Best|Good|OK|Dubious|Inaccuracy|Mistake|Blunder !!!|Brilliant ✨|Great Move !|Unavailable)(\s*\(([^)]*)\))?`)
)

// SplitComment separates a source comment into the user's own text and
// its clock tag, dropping any analysis a previous run added.
func SplitComment(comment string) (user, clock string) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", ""
	}

	clock = clockTag.FindString(comment)
	if clock != "" {
		comment = strings.Replace(comment, clock, "", 1)
	}

	analysed := false
	for _, re := range ownTags {
		if re.MatchString(comment) {
			analysed = true
			comment = re.ReplaceAllString(comment, "")
		}
	}
	comment = strings.TrimSpace(comment)
	if analysed {
		comment = strings.TrimSpace(ownLabel.ReplaceAllString(comment, ""))
	}

	comment = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(comment, "{"), "}"))
	return strings.Join(strings.Fields(comment), " "), clock
}

// Annotator renders move comments.
type Annotator struct {
	engineName string
}

// NewAnnotator creates an Annotator that credits engineName, e.g. "SF16".
func NewAnnotator(engineName string) *Annotator {
	if engineName == "" {
		engineName = "Engine"
	}
	return &Annotator{engineName: engineName}
}

// Comment renders the comment for one move. Parts appear in the order
// classification, eval tag, clock, engine lines, user comment. Empty
// parts are omitted.
func (a *Annotator) Comment(ac AnnotationContext) string {
	var parts []string
	if ac.Classification != nil {
		parts = append(parts, ac.Classification.Text)
	}
	parts = append(parts, ac.EvalTag, ac.Clock, a.analyseTag(ac), ac.UserComment)

	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func (a *Annotator) analyseTag(ac AnnotationContext) string {
	if len(ac.Lines) == 0 {
		return ""
	}
	best := ac.Lines[0]

	var b strings.Builder
	fmt.Fprintf(&b, "[Analyse %s@%dd%dpv: Best: %s (%s)", a.engineName, ac.Depth, ac.MultiPV, best.SAN, best.Eval)
	if len(best.PV) > 0 {
		b.WriteString(" PV: ")
		b.WriteString(strings.Join(best.PV, " "))
	}
	if ac.MultiPV > 1 && len(ac.Lines) > 1 {
		b.WriteString("; Top:")
		for i, l := range ac.Lines {
			fmt.Fprintf(&b, " %d.%s(%s)", i+1, l.SAN, l.Eval)
		}
	}
	b.WriteString("]")
	return b.String()
}
