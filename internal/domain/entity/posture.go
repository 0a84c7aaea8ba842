package entity

import (
	"math"
	"time"
)

// Tier уровень обратной связи по осанке
type Tier string

const (
	TierNeedsCorrection Tier = "needs_correction"
	TierMinorAdjustment Tier = "minor_adjustment"
	TierGood            Tier = "good"
)

const (
	minorAdjustmentFloor = 70
	goodFloor            = 90
)

var tips = map[Tier]string{
	TierNeedsCorrection: "Pull your head back and lift your chest ⬆️",
	TierMinorAdjustment: "Small tweak: roll shoulders back 🙂",
	TierGood:            "Great posture – keep it up! 🎉",
}

// Tip возвращает подсказку для пользователя.
func (t Tier) Tip() string {
	return tips[t]
}

// ClassifyScore выбирает уровень по порогам: первый подходящий побеждает.
func ClassifyScore(score int) Tier {
	switch {
	case score < minorAdjustmentFloor:
		return TierNeedsCorrection
	case score < goodFloor:
		return TierMinorAdjustment
	default:
		return TierGood
	}
}

// AlignmentScore считает оценку осанки по горизонтальному смещению уха относительно плеча.
// Результат всегда в [0,100].
func AlignmentScore(ear, shoulder Landmark) (score int, neckDelta float64) {
	neckDelta = (ear.X - shoulder.X) * 100
	pct := 100 - math.Abs(neckDelta*300)
	pct = math.Max(0, math.Min(100, pct))
	return int(math.Round(pct)), neckDelta
}

// Posture пара (оценка, подсказка), посчитанная по одному кадру.
type Posture struct {
	FrameSeq  uint64    `json:"frame_seq"`
	Score     int       `json:"score"`
	Tier      Tier      `json:"tier"`
	Tip       string    `json:"tip"`
	NeckDelta float64   `json:"neck_delta"`
	Ear       Landmark  `json:"ear"`
	Shoulder  Landmark  `json:"shoulder"`
	ScoredAt  time.Time `json:"scored_at"`
}

// NewPosture собирает оценку и подсказку за один шаг, чтобы они не разошлись.
func NewPosture(seq uint64, ear, shoulder Landmark, at time.Time) Posture {
	score, delta := AlignmentScore(ear, shoulder)
	tier := ClassifyScore(score)
	return Posture{
		FrameSeq:  seq,
		Score:     score,
		Tier:      tier,
		Tip:       tier.Tip(),
		NeckDelta: delta,
		Ear:       ear,
		Shoulder:  shoulder,
		ScoredAt:  at,
	}
}
