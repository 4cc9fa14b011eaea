package schedule

import (
	"math"
	"time"
)

// Urgency scale boundaries. Scores live in [0, 20]: [0,6) before the target,
// [6,10) between target and limit, [10,20] past the limit.
const (
	urgencyTargetCeiling = 6.0
	urgencyLimitCeiling  = 10.0

	// urgencyFloor distinguishes "created, clock running" from "no deadlines
	// at all" (which scores exactly 0).
	urgencyFloor = 0.5

	overduePerDay = 0.5
)

// UrgencyResult is the time-pressure annotation attached to an occurrence at
// the read boundary. The persisted urgency field is a stale cache; this
// result is the authoritative value.
type UrgencyResult struct {
	Urgency   float64
	IsOverdue bool

	// Whole days until the respective date, negative once past. Nil when the
	// occurrence carries no such date.
	DaysUntilTarget *int
	DaysUntilLimit  *int
}

// ScoreUrgency computes a continuous 0-20 urgency score from the occurrence's
// creation instant and its optional target/limit dates. Pure: same inputs,
// same score.
//
// The branches are mutually exclusive and evaluated in order; the first match
// wins:
//  1. no dates at all: 0
//  2. past the limit: 10 + 0.5/day overdue, saturating at 20
//  3. compressed deadline (limit hugs the target): accelerating ln curve
//     over [createdAt, limit], capped at 10
//  4. between target and limit: ln-damped ramp from 6 toward 10
//  5. before the target: sqrt ramp from 0 toward 6
//  6. limit only, not yet due: linear elapsed/remaining ramp toward 10
func ScoreUrgency(now, createdAt time.Time, targetDate, limitDate *time.Time) UrgencyResult {
	result := UrgencyResult{}

	if targetDate != nil {
		d := wholeDays(targetDate.Sub(now))
		result.DaysUntilTarget = &d
	}
	if limitDate != nil {
		d := wholeDays(limitDate.Sub(now))
		result.DaysUntilLimit = &d
	}

	switch {
	case targetDate == nil && limitDate == nil:
		result.Urgency = 0

	case limitDate != nil && now.After(*limitDate):
		result.IsOverdue = true
		overdueDays := days(now.Sub(*limitDate))
		result.Urgency = urgencyLimitCeiling + math.Min(overdueDays*overduePerDay, urgencyLimitCeiling)

	case isCompressedDeadline(createdAt, targetDate, limitDate):
		result.Urgency = compressedScore(now, createdAt, *limitDate)

	case targetDate != nil && !now.Before(*targetDate) && (limitDate == nil || !now.After(*limitDate)):
		result.Urgency = targetPhaseScore(now, *targetDate)

	case targetDate != nil && now.Before(*targetDate):
		result.Urgency = approachScore(now, createdAt, *targetDate)

	case limitDate != nil:
		result.Urgency = limitOnlyScore(now, createdAt, *limitDate)
	}

	result.Urgency = round2(result.Urgency)
	return result
}

// isCompressedDeadline detects the case where the limit sits unusually close
// to the target: the target-limit gap is less than half the creation-target
// gap. The usual two-phase ramp would leave almost no room for the [6,10)
// phase, so a single accelerating curve over the whole lifetime is used
// instead.
func isCompressedDeadline(createdAt time.Time, targetDate, limitDate *time.Time) bool {
	if targetDate == nil || limitDate == nil {
		return false
	}
	gap := days(limitDate.Sub(*targetDate))
	runway := days(targetDate.Sub(createdAt))
	return gap < runway/2
}

// compressedScore ramps over [createdAt, limit] on 10·x·ln(1+x)/ln2, which
// starts slow and accelerates toward 10 as x approaches 1.
func compressedScore(now, createdAt, limit time.Time) float64 {
	passed := days(now.Sub(createdAt))
	if passed <= 0 {
		return urgencyFloor
	}

	total := days(limit.Sub(createdAt))
	if total <= 0 {
		return urgencyLimitCeiling
	}

	x := clamp01(passed / total)
	score := urgencyLimitCeiling * (x * math.Log(1+x)) / math.Ln2
	return math.Min(score, urgencyLimitCeiling)
}

// targetPhaseScore covers now in [target, limit]: a ln-damped ramp that
// starts at exactly 6 on the target day and approaches (never reaches) 10.
func targetPhaseScore(now, target time.Time) float64 {
	daysSinceTarget := math.Floor(days(now.Sub(target)))
	score := daysSinceTarget * math.Log(1+daysSinceTarget)
	normalized := score / (1 + score)
	return urgencyTargetCeiling + (urgencyLimitCeiling-urgencyTargetCeiling)*normalized
}

// approachScore covers now before the target: a sqrt ramp over the
// creation-to-target runway, reaching 6 exactly at the target.
func approachScore(now, createdAt, target time.Time) float64 {
	passed := days(now.Sub(createdAt))
	if passed <= 0 {
		return urgencyFloor
	}

	runway := days(target.Sub(createdAt))
	if runway <= 0 {
		return urgencyTargetCeiling
	}

	fraction := clamp01(passed / runway)
	return math.Min(urgencyTargetCeiling, urgencyTargetCeiling*math.Sqrt(fraction))
}

// limitOnlyScore covers occurrences with only a hard deadline: a linear
// elapsed/remaining ramp with a floor of 0.5 right after creation and a
// ceiling of 10 at the deadline itself.
func limitOnlyScore(now, createdAt, limit time.Time) float64 {
	remaining := days(limit.Sub(now))
	if remaining <= 0 {
		return urgencyLimitCeiling
	}

	elapsed := days(now.Sub(createdAt))
	score := math.Min(urgencyLimitCeiling, urgencyLimitCeiling*elapsed/remaining)
	return math.Max(score, urgencyFloor)
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}

func wholeDays(d time.Duration) int {
	return int(math.Floor(days(d)))
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
