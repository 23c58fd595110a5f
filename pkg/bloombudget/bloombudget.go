// Package bloombudget implements the Bloom Hint Budget (C3, spec §4.3): a
// deterministic controller that scores six risk signals into a hint
// verbosity mode, and carries a small amount of state across runs (the
// next-run drift boost flag, the previous run's rewrite count). The
// process-wide state is guarded by a mutex the same way the teacher's
// SubAgentRunner guards its execution bookkeeping
// (pkg/agent/orchestrator/runner.go) — here there is exactly one process,
// so a package-level mutex-guarded struct is sufficient (spec §5).
package bloombudget

import (
	"sync"

	"github.com/andymattick/eduagents/pkg/bloomtax"
)

// HintMode is the three-level verbosity the Writer's per-slot prompt hints
// are budgeted at.
type HintMode string

const (
	HintMinimal  HintMode = "MINIMAL"
	HintStandard HintMode = "STANDARD"
	HintFull     HintMode = "FULL"
)

// Input carries everything runBloomHintBudget needs to score a run.
type Input struct {
	DepthCeiling     bloomtax.Level
	PreviousDriftRate float64
	StudentLevel     string // "honors" or "ap" raise rigor risk
	SlotCount        int
	TimeMinutes      int
	TrustScore       int // 0-10, caller-supplied; defaults to 5 (neutral) when omitted/zero
}

// Result is runBloomHintBudget's output.
type Result struct {
	HintMode  HintMode
	RiskScore int
	Trace     []string
}

// state is the process-wide one-shot carryover described in spec §5: the
// next-run drift boost flag and the previous run's rewrite count. Writes
// happen only at run end (set) and run start (read+clear); a mutex is
// cheap insurance even though the orchestrator is cooperatively scheduled.
type state struct {
	mu                   sync.Mutex
	nextRunHintBoost     bool
	lastRunRewriteCount  int
	lastBloomAlignment   []AlignmentSnapshot
}

// AlignmentSnapshot is the minimal per-slot record the budget module keeps
// from the Writer's BloomAlignmentLog for post-run inspection.
type AlignmentSnapshot struct {
	SlotID   string
	Aligned  bool
	Direction string
}

var global state

// ConsumeHintBoost reads and clears the one-shot next-run hint boost flag.
// Call once at the start of a run, before scoring.
func ConsumeHintBoost() bool {
	global.mu.Lock()
	defer global.mu.Unlock()
	boost := global.nextRunHintBoost
	global.nextRunHintBoost = false
	return boost
}

// PreviousRewriteCount returns the rewrite count recorded by the previous
// run (0 if no run has completed yet).
func PreviousRewriteCount() int {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.lastRunRewriteCount
}

// RecordRunEnd stores this run's rewrite count for the next run's
// rewrite-instability override, and snapshots the bloom alignment log.
func RecordRunEnd(rewriteCount int, alignment []AlignmentSnapshot) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.lastRunRewriteCount = rewriteCount
	global.lastBloomAlignment = alignment
}

// LastBloomAlignment returns the most recently recorded alignment snapshot.
func LastBloomAlignment() []AlignmentSnapshot {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.lastBloomAlignment
}

// ApplyAdaptiveDriftBoost sets the one-shot next-run flag when measured
// drift exceeds 0.5, per spec §4.3's "adaptive reinforcement" rule.
func ApplyAdaptiveDriftBoost(driftRate float64) {
	if driftRate <= 0.5 {
		return
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	global.nextRunHintBoost = true
}

// ceil05 computes ceil(n*0.5) using only integer arithmetic, for the
// rewrite-instability override's slotCount*0.5 threshold.
func ceil05(n int) int {
	if n%2 == 0 {
		return n / 2
	}
	return n/2 + 1
}

// Run implements runBloomHintBudget(input, tentativeHintBlock?) → {hintMode,
// riskScore, trace}. tentativeHintBlock, when non-empty, is the hint block
// already built at STANDARD/FULL verbosity for the token-safety guard to
// measure; pass "" to skip that check.
func Run(in Input, tentativeHintBlock string) Result {
	var trace []string
	score := 0

	if bloomtax.AtMost(bloomtax.Analyze, in.DepthCeiling) {
		score += 2
		trace = append(trace, "ceiling risk: depthCeiling >= analyze (+2)")
		if bloomtax.AtMost(bloomtax.Evaluate, in.DepthCeiling) {
			score += 1
			trace = append(trace, "ceiling risk bonus: depthCeiling >= evaluate (+1)")
		}
	}

	if in.PreviousDriftRate >= 0.25 {
		score += 2
		trace = append(trace, "drift: previous-run driftRate >= 0.25 (+2)")
		if in.PreviousDriftRate >= 0.50 {
			score += 2
			trace = append(trace, "drift bonus: driftRate >= 0.50 (+2)")
		}
	}

	if in.StudentLevel == "honors" || in.StudentLevel == "ap" {
		score += 1
		trace = append(trace, "student rigor: honors/ap (+1)")
	}

	if in.SlotCount >= 9 {
		score -= 2
		trace = append(trace, "slot pressure: slotCount >= 9 (-2)")
		if in.SlotCount >= 12 {
			score -= 2
			trace = append(trace, "slot pressure bonus: slotCount >= 12 (-2)")
		}
	}

	if in.TimeMinutes < 15 {
		score -= 2
		trace = append(trace, "time compression: timeMinutes < 15 (-2)")
		if in.TimeMinutes < 10 {
			score -= 2
			trace = append(trace, "time compression bonus: timeMinutes < 10 (-2)")
		}
	}

	trust := in.TrustScore
	if trust == 0 {
		trust = 5
	}
	if trust >= 7 {
		score -= 1
		trace = append(trace, "trust dampener: trustScore >= 7 (-1)")
		if trust >= 9 {
			score -= 1
			trace = append(trace, "trust dampener bonus: trustScore >= 9 (-1)")
		}
	}

	if ConsumeHintBoost() {
		score += 2
		trace = append(trace, "adaptive drift boost carried from previous run (+2)")
	}

	mode := modeForScore(score)

	// Override 1: rewrite-instability (highest priority).
	if in.SlotCount >= 10 {
		threshold := ceil05(in.SlotCount)
		if PreviousRewriteCount() > threshold {
			mode = HintMinimal
			trace = append(trace, "override: rewrite-instability forced MINIMAL")
		}
	}

	// Override 2: token-safety guard.
	if tentativeHintBlock != "" {
		limit := 3600
		if in.SlotCount >= 10 {
			limit = 2400
		}
		if len(tentativeHintBlock) > limit {
			downgraded := downgrade(mode)
			if downgraded != mode {
				trace = append(trace, "override: token-safety guard downgraded one tier")
			}
			mode = downgraded
		}
	}

	return Result{HintMode: mode, RiskScore: score, Trace: trace}
}

func modeForScore(score int) HintMode {
	switch {
	case score <= 0:
		return HintMinimal
	case score <= 3:
		return HintStandard
	default:
		return HintFull
	}
}

func downgrade(m HintMode) HintMode {
	switch m {
	case HintFull:
		return HintStandard
	case HintStandard:
		return HintMinimal
	default:
		return HintMinimal
	}
}
