package filters

import "fmt"

// StrategyKind tags which FilterStrategy variant is active.
type StrategyKind int

const (
	KindBasic StrategyKind = iota
	KindMinSum
	KindEntropy
	KindBigrams
	KindBigEnt
	KindBrute
	KindPredefined
)

// FilterStrategy selects how each scanline's filter byte is chosen. Go has
// no enum payloads, so this is a flat struct with only the field(s)
// relevant to Kind populated, mirroring how errors.go models PngError.
type FilterStrategy struct {
	Kind       StrategyKind
	Basic      RowFilter   // KindBasic
	NumLines   int         // KindBrute
	Level      int         // KindBrute
	Predefined []RowFilter // KindPredefined
}

func BasicStrategy(f RowFilter) FilterStrategy { return FilterStrategy{Kind: KindBasic, Basic: f} }

var (
	StrategyNone    = BasicStrategy(None)
	StrategySub     = BasicStrategy(Sub)
	StrategyUp      = BasicStrategy(Up)
	StrategyAverage = BasicStrategy(Average)
	StrategyPaeth   = BasicStrategy(Paeth)
	StrategyMinSum  = FilterStrategy{Kind: KindMinSum}
	StrategyEntropy = FilterStrategy{Kind: KindEntropy}
	StrategyBigrams = FilterStrategy{Kind: KindBigrams}
	StrategyBigEnt  = FilterStrategy{Kind: KindBigEnt}
)

func BruteStrategy(numLines, level int) FilterStrategy {
	return FilterStrategy{Kind: KindBrute, NumLines: numLines, Level: level}
}

func PredefinedStrategy(fs []RowFilter) FilterStrategy {
	cp := make([]RowFilter, len(fs))
	copy(cp, fs)
	return FilterStrategy{Kind: KindPredefined, Predefined: cp}
}

func (s FilterStrategy) String() string {
	switch s.Kind {
	case KindBasic:
		return s.Basic.String()
	case KindMinSum:
		return "MinSum"
	case KindEntropy:
		return "Entropy"
	case KindBigrams:
		return "Bigrams"
	case KindBigEnt:
		return "BigEnt"
	case KindBrute:
		return "Brute"
	case KindPredefined:
		return "Predefined"
	default:
		return fmt.Sprintf("FilterStrategy(%d)", s.Kind)
	}
}

// Key is a canonical comparable string, used for the evaluator's
// total-order tie-break ("filter ASC") via Candidate ordering in
// internal/evaluate.
func (s FilterStrategy) Key() string {
	switch s.Kind {
	case KindBasic:
		return fmt.Sprintf("basic:%d", s.Basic)
	case KindBrute:
		return fmt.Sprintf("brute:%d:%d", s.NumLines, s.Level)
	case KindPredefined:
		return fmt.Sprintf("predefined:%v", s.Predefined)
	default:
		return fmt.Sprintf("kind:%d", s.Kind)
	}
}

// Less gives the "filter ASC" ordering used by the candidate total
// order; strategies are ordered first by Kind, then by their payload.
func (s FilterStrategy) Less(o FilterStrategy) bool {
	if s.Kind != o.Kind {
		return s.Kind < o.Kind
	}
	switch s.Kind {
	case KindBasic:
		return s.Basic < o.Basic
	case KindBrute:
		if s.NumLines != o.NumLines {
			return s.NumLines < o.NumLines
		}
		return s.Level < o.Level
	default:
		return s.Key() < o.Key()
	}
}
