package formulas

import (
	"fmt"
	"sort"
)

// Labels returned by the classification helpers. These are for display and
// never feed back into a computation.
const (
	WeightLossInsignificant = "insignificant loss"
	WeightLossModerate      = "moderate loss"
	WeightLossSevere        = "severe loss"

	BodyFatVeryLow  = "very low"
	BodyFatNormal   = "normal"
	BodyFatModerate = "moderate"
	BodyFatHigh     = "high"

	MuscleSevereMalnutrition   = "severe malnutrition"
	MuscleModerateMalnutrition = "moderate malnutrition"
	MuscleNormal               = "normal"
	MuscleAdequate             = "adequate"
)

// ClassifyWeightLoss grades a weight loss percentage: below 5% is
// insignificant, 5% up to 10% moderate and 10% or more severe.
func ClassifyWeightLoss(percent float64) string {
	switch {
	case percent < 5:
		return WeightLossInsignificant
	case percent < 10:
		return WeightLossModerate
	default:
		return WeightLossSevere
	}
}

type bodyFatCutoffs struct {
	normal, moderate, high float64
}

var bodyFatBands = map[Sex]bodyFatCutoffs{
	Male:   {normal: 8, moderate: 15, high: 20},
	Female: {normal: 15, moderate: 25, high: 30},
}

// ClassifyBodyFat grades a body fat percentage with sex-specific cutoffs.
// An unknown sex yields an empty label.
func ClassifyBodyFat(percent float64, sex Sex) string {
	c, ok := bodyFatBands[sex]
	if !ok {
		return ""
	}
	switch {
	case percent < c.normal:
		return BodyFatVeryLow
	case percent < c.moderate:
		return BodyFatNormal
	case percent < c.high:
		return BodyFatModerate
	default:
		return BodyFatHigh
	}
}

// ClassifyArmMuscleCircumference grades the mid-arm muscle circumference (cm).
func ClassifyArmMuscleCircumference(cm float64) string {
	switch {
	case cm < 15:
		return MuscleSevereMalnutrition
	case cm < 20:
		return MuscleModerateMalnutrition
	case cm < 25:
		return MuscleNormal
	default:
		return MuscleAdequate
	}
}

// ArmMuscleAreaPercentile is the rough percentile shown next to an arm muscle
// area, taking 50 cm² as the top of the scale.
func ArmMuscleAreaPercentile(area float64) int {
	p := int(area / 50 * 100)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// AmputationSegment names a body segment whose share of total body weight is tabulated.
type AmputationSegment string

const (
	SegmentArm     AmputationSegment = "arm"
	SegmentForearm AmputationSegment = "forearm"
	SegmentHand    AmputationSegment = "hand"
	SegmentThigh   AmputationSegment = "thigh"
	SegmentLeg     AmputationSegment = "leg"
	SegmentFoot    AmputationSegment = "foot"
)

// segmentPercent is the proportion of body weight (%) of each segment.
var segmentPercent = map[AmputationSegment]float64{
	SegmentArm:     2.7,
	SegmentForearm: 1.6,
	SegmentHand:    0.7,
	SegmentThigh:   10.1,
	SegmentLeg:     4.4,
	SegmentFoot:    1.5,
}

// AmputationPercent returns the body weight share (%) of a segment.
func AmputationPercent(segment AmputationSegment) (float64, error) {
	p, ok := segmentPercent[segment]
	if !ok {
		return 0, categoryError("segment", string(segment), fmt.Sprintf("must be one of %v", AmputationSegments()))
	}
	return p, nil
}

// AmputationSegments lists the tabulated segments in alphabetical order.
func AmputationSegments() []AmputationSegment {
	out := make([]AmputationSegment, 0, len(segmentPercent))
	for s := range segmentPercent {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
