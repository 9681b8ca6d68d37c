package gamereview

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Accuracy constants, from the Lichess formula A*exp(B*acpl)+C.
const (
	accuracyA = 103.1668
	accuracyB = -0.004354
	accuracyC = -3.1668
)

// ReportColumns are the CSV report columns in order.
var ReportColumns = []string{
	"GameID", "AnalyzedPlayer", "PlayerColor", "AccuracyPercent",
	"AverageCPL", "TotalMoves",
	"Brilliant", "Great", "Best", "Good", "OK", "Dubious",
	"Inaccuracy", "Mistake", "Blunder",
	"EngineTop1MatchPercent", "EngineTopNMatchPercent",
	"Event", "Site", "Date", "Round", "White", "Black", "Result",
	"WhiteACPL", "BlackACPL",
}

// countColumns maps count columns to the simplified labels they tally.
var countColumns = map[string]string{
	"Brilliant":  LabelBrilliant,
	"Great":      LabelGreat,
	"Best":       LabelBest,
	"Good":       "Good",
	"OK":         "OK",
	"Dubious":    "Dubious",
	"Inaccuracy": "Inaccuracy",
	"Mistake":    "Mistake",
	"Blunder":    "Blunder !!!",
}

// Accuracy converts an average CPL into a percentage in [0, 100].
func Accuracy(acpl float64) float64 {
	if acpl < 0 {
		acpl = 0
	}
	return clamp(accuracyA*math.Exp(accuracyB*acpl)+accuracyC, 0, 100)
}

// WriteReport writes one CSV row per summary. Summaries without moves
// are left out. It returns the number of rows written.
func WriteReport(w io.Writer, summaries []*GameSummary) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportColumns); err != nil {
		return 0, fmt.Errorf("writing report header: %w", err)
	}

	rows := 0
	for _, s := range summaries {
		if s == nil || s.Moves() == 0 {
			continue
		}
		if err := cw.Write(reportRow(s)); err != nil {
			return rows, fmt.Errorf("writing report row for %s: %w", s.GameID, err)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("writing report: %w", err)
	}
	return rows, nil
}

func reportRow(s *GameSummary) []string {
	moves := float64(s.Moves())
	acpl := s.ACPL()
	values := map[string]string{
		"GameID":                 s.GameID,
		"AnalyzedPlayer":         s.Player,
		"PlayerColor":            s.Color,
		"AccuracyPercent":        strconv.FormatFloat(Accuracy(acpl), 'f', 1, 64),
		"AverageCPL":             strconv.FormatFloat(acpl, 'f', 1, 64),
		"TotalMoves":             strconv.Itoa(s.Moves()),
		"EngineTop1MatchPercent": strconv.FormatFloat(float64(s.Top1)/moves*100, 'f', 1, 64),
		"EngineTopNMatchPercent": strconv.FormatFloat(float64(s.TopN)/moves*100, 'f', 1, 64),
	}
	for col, label := range countColumns {
		values[col] = strconv.Itoa(s.Counts[label])
	}

	row := make([]string, len(ReportColumns))
	for i, col := range ReportColumns {
		if v, ok := values[col]; ok {
			row[i] = v
			continue
		}
		row[i] = s.Headers[col]
	}
	return row
}
