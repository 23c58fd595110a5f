package bloombudget

import "github.com/andymattick/eduagents/pkg/bloomtax"

// HintParts are the four optional elements a per-slot prompt hint block may
// include, selected by the (demand tier, hint mode) pair (spec §4.3's 3x3
// table).
type HintParts struct {
	Label           bool
	Verbs           bool
	ExampleStarter  bool
	StructureNote   bool
	VerbCount       int // 0 (all <= 3 verbs) or 1 (full verb list)
}

// verbosityTable is the per-slot verbosity 3x3 table: rows are demand tier
// (low/apply/high), columns are hint mode (MINIMAL/STANDARD/FULL).
var verbosityTable = map[bloomtax.Tier]map[HintMode]HintParts{
	bloomtax.TierLow: {
		HintMinimal:  {Label: true, VerbCount: 0},
		HintStandard: {Label: true, Verbs: true, VerbCount: 0},
		HintFull:     {Label: true, Verbs: true, ExampleStarter: true, StructureNote: true, VerbCount: 1},
	},
	bloomtax.TierApply: {
		HintMinimal:  {Label: true, Verbs: true, VerbCount: 0},
		HintStandard: {Label: true, Verbs: true, ExampleStarter: true, VerbCount: 0},
		HintFull:     {Label: true, Verbs: true, ExampleStarter: true, StructureNote: true, VerbCount: 1},
	},
	bloomtax.TierHigh: {
		HintMinimal:  {Label: true, Verbs: true, VerbCount: 0},
		HintStandard: {Label: true, Verbs: true, ExampleStarter: true, StructureNote: true, VerbCount: 0},
		HintFull:     {Label: true, Verbs: true, ExampleStarter: true, StructureNote: true, VerbCount: 1},
	},
}

// PartsFor returns the hint parts to render for a slot at the given Bloom
// level and run-wide hint mode.
func PartsFor(level bloomtax.Level, mode HintMode) HintParts {
	tier := bloomtax.TierOf(level)
	row, ok := verbosityTable[tier]
	if !ok {
		return HintParts{Label: true}
	}
	parts, ok := row[mode]
	if !ok {
		return HintParts{Label: true}
	}
	return parts
}
