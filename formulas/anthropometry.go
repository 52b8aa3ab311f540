package formulas

import "math"

// AdjustedWeight returns the adjusted body weight (kg) for an obese or
// malnourished patient from the actual and ideal weights (kg).
func AdjustedWeight(actual, ideal float64, condition Condition) (float64, error) {
	if err := firstError(
		positive("actual_weight", actual),
		positive("ideal_weight", ideal),
	); err != nil {
		return 0, err
	}

	switch condition {
	case Obesity:
		return (actual-ideal)*0.25 + ideal, nil
	case Malnutrition:
		return (actual-ideal)*0.25 + actual, nil
	}
	return 0, categoryError("condition", string(condition), "must be one of obesity, malnutrition")
}

// WeightLossPercent returns the percentage of usual body weight that was lost.
// A negative result means the patient gained weight.
func WeightLossPercent(usual, current float64) (float64, error) {
	if err := firstError(
		positive("usual_weight", usual),
		positive("current_weight", current),
	); err != nil {
		return 0, err
	}
	return (usual - current) / usual * 100, nil
}

type weightCoefficients struct {
	knee, arm, intercept float64
}

type sexEthnicity struct {
	sex       Sex
	ethnicity Ethnicity
}

// childWeightCoefficients hold the knee height / mid-arm circumference
// regressions for children and adolescents aged 6 to 18.
var childWeightCoefficients = map[sexEthnicity]weightCoefficients{
	{Male, White}:   {knee: 0.68, arm: 2.64, intercept: -50.08},
	{Male, Black}:   {knee: 0.59, arm: 2.73, intercept: -48.32},
	{Female, White}: {knee: 0.77, arm: 2.47, intercept: -50.16},
	{Female, Black}: {knee: 0.71, arm: 2.59, intercept: -50.43},
}

// EstimateChildWeight estimates body weight (kg) from knee height (cm) and
// arm circumference (cm). Sex and ethnicity pairs without a published
// regression give an undefined estimate.
func EstimateChildWeight(kneeHeight, armCircumference float64, sex Sex, ethnicity Ethnicity) (Estimate, error) {
	if err := firstError(
		positive("knee_height", kneeHeight),
		positive("arm_circumference", armCircumference),
	); err != nil {
		return Undefined(), err
	}

	c, ok := childWeightCoefficients[sexEthnicity{sex, ethnicity}]
	if !ok {
		return Undefined(), nil
	}
	return Defined(kneeHeight*c.knee + armCircumference*c.arm + c.intercept), nil
}

// EstimateStatureFromTibia estimates stature (cm) from tibia length (cm).
func EstimateStatureFromTibia(length float64) (float64, error) {
	if err := positive("tibia_length", length); err != nil {
		return 0, err
	}
	return 3.26*length + 30.8, nil
}

// EstimateStatureFromUlna estimates stature (cm) from ulna length (cm).
func EstimateStatureFromUlna(length float64) (float64, error) {
	if err := positive("ulna_length", length); err != nil {
		return 0, err
	}
	return 5.45*length + 20.7, nil
}

// weeksPerMonth converts the preterm deficit in weeks to months.
const weeksPerMonth = 4.34524

// CorrectedGestationalAge returns the age (months) of a preterm infant
// corrected for the weeks missing to a 40 week term.
func CorrectedGestationalAge(chronologicalAgeMonths, gestationalAgeWeeks float64) (float64, error) {
	if err := firstError(
		nonNegative("chronological_age_months", chronologicalAgeMonths),
		finite("gestational_age_weeks", gestationalAgeWeeks),
	); err != nil {
		return 0, err
	}
	if gestationalAgeWeeks < 20 || gestationalAgeWeeks > 42 {
		return 0, measurementError("gestational_age_weeks", gestationalAgeWeeks, "must be between 20 and 42 weeks")
	}
	return chronologicalAgeMonths - (40-gestationalAgeWeeks)/weeksPerMonth, nil
}

type tannerGroup int

const (
	tannerEarly tannerGroup = iota // stages 1-2
	tannerMid                      // stage 3
	tannerLate                     // stages 4-5
)

func groupForTanner(stage int) (tannerGroup, bool) {
	switch stage {
	case 1, 2:
		return tannerEarly, true
	case 3:
		return tannerMid, true
	case 4, 5:
		return tannerLate, true
	}
	return 0, false
}

type bodyFatKey struct {
	ethnicity Ethnicity
	group     tannerGroup
}

// maleBodyFatOffsets are subtracted from 1.21S - 0.008S² for boys with a
// skinfold sum up to 35 mm.
var maleBodyFatOffsets = map[bodyFatKey]float64{
	{White, tannerEarly}: 1.7,
	{White, tannerMid}:   3.4,
	{White, tannerLate}:  5.5,
	{Black, tannerEarly}: 3.2,
	{Black, tannerMid}:   5.2,
	{Black, tannerLate}:  6.8,
}

// skinfoldThreshold separates the quadratic and the simplified linear models.
const skinfoldThreshold = 35

// BodyFatPercent estimates body fat (%) from the sum of triceps and
// subscapular skinfolds (mm). Above 35 mm a sex-only linear model applies.
// Below it boys use coefficients keyed by ethnicity and Tanner stage while
// girls use a single quadratic that ignores both.
func BodyFatPercent(skinfoldSum float64, sex Sex, tannerStage int, ethnicity Ethnicity) (float64, error) {
	if err := firstError(
		positive("skinfold_sum", skinfoldSum),
		validSex(sex),
	); err != nil {
		return 0, err
	}
	group, ok := groupForTanner(tannerStage)
	if !ok {
		return 0, categoryError("tanner_stage", tannerStage, "must be between 1 and 5")
	}

	s := skinfoldSum
	if s > skinfoldThreshold {
		if sex == Male {
			return 0.783*s + 1.6, nil
		}
		return 0.546*s + 9.7, nil
	}

	if sex == Female {
		return 1.33*s - 0.013*s*s - 2.5, nil
	}
	offset, ok := maleBodyFatOffsets[bodyFatKey{ethnicity, group}]
	if !ok {
		return 0, categoryError("ethnicity", string(ethnicity), "must be one of white, black")
	}
	return 1.21*s - 0.008*s*s - offset, nil
}

// ArmMuscleCircumference returns the mid-arm muscle circumference (cm) from
// the arm circumference (cm) and the triceps skinfold (mm).
func ArmMuscleCircumference(armCircumference, tricepsSkinfoldMm float64) (float64, error) {
	if err := firstError(
		positive("arm_circumference", armCircumference),
		positive("triceps_skinfold", tricepsSkinfoldMm),
	); err != nil {
		return 0, err
	}
	return armCircumference - 0.314*(tricepsSkinfoldMm/10), nil
}

// ArmMuscleArea returns the arm muscle area (cm²).
func ArmMuscleArea(armCircumference, tricepsSkinfoldMm float64) (float64, error) {
	if err := firstError(
		positive("arm_circumference", armCircumference),
		positive("triceps_skinfold", tricepsSkinfoldMm),
	); err != nil {
		return 0, err
	}
	skinfoldCm := tricepsSkinfoldMm / 10
	m := armCircumference - 0.314*skinfoldCm
	return m * m / 12.56, nil
}

// ArmFatArea returns the arm fat area (cm²) given the arm circumference (cm)
// and a previously computed arm muscle area (cm²).
func ArmFatArea(armCircumference, armMuscleArea float64) (float64, error) {
	if err := firstError(
		positive("arm_circumference", armCircumference),
		positive("arm_muscle_area", armMuscleArea),
	); err != nil {
		return 0, err
	}
	r := armCircumference / math.Pi
	return 0.79*r*r - armMuscleArea, nil
}

// CPStature holds the three segmental stature estimates (cm) for children
// with cerebral palsy aged 2 to 12, plus their arithmetic mean.
type CPStature struct {
	ByTibia    float64 `json:"by_tibia"`
	ByUpperArm float64 `json:"by_upper_arm"`
	ByKnee     float64 `json:"by_knee"`
	Mean       float64 `json:"mean"`
}

// Components returns the estimates keyed by the names used in responses.
func (c CPStature) Components() map[string]float64 {
	return map[string]float64{
		"by_tibia":     c.ByTibia,
		"by_upper_arm": c.ByUpperArm,
		"by_knee":      c.ByKnee,
		"mean":         c.Mean,
	}
}

// CerebralPalsyStature estimates stature from upper arm length, tibial
// length and knee height (all cm). Each regression carries its own
// standard-error offset.
func CerebralPalsyStature(upperArmLength, tibialLength, kneeLength float64) (CPStature, error) {
	if err := firstError(
		positive("upper_arm_length", upperArmLength),
		positive("tibial_length", tibialLength),
		positive("knee_length", kneeLength),
	); err != nil {
		return CPStature{}, err
	}

	est := CPStature{
		ByTibia:    3.26*tibialLength + 30.8 + 1.4,
		ByUpperArm: 4.35*upperArmLength + 21.8 + 1.7,
		ByKnee:     2.69*kneeLength + 24.2 + 1.1,
	}
	est.Mean = (est.ByTibia + est.ByUpperArm + est.ByKnee) / 3
	return est, nil
}

// AdolescentCPStature estimates stature (cm) of an adolescent with cerebral
// palsy from age (years) and ulna length (cm).
func AdolescentCPStature(age float64, sex Sex, ulnaLength float64) (float64, error) {
	if err := firstError(
		nonNegative("age", age),
		positive("ulna_length", ulnaLength),
		validSex(sex),
	); err != nil {
		return 0, err
	}
	sexIndicator := 0.0
	if sex == Male {
		sexIndicator = 1
	}
	return 30.35 + 1.29*age + 0.77*sexIndicator + 4.32*ulnaLength, nil
}

// AmputationCorrectedWeight estimates the weight (kg) the patient would have
// with the amputated segment, which represented amputatedPercent of body weight.
func AmputationCorrectedWeight(currentWeight, amputatedPercent float64) (float64, error) {
	if err := firstError(
		positive("current_weight", currentWeight),
		finite("amputated_percent", amputatedPercent),
	); err != nil {
		return 0, err
	}
	if amputatedPercent < 0 || amputatedPercent >= 100 {
		return 0, measurementError("amputated_percent", amputatedPercent, "must be in the range [0, 100)")
	}
	return currentWeight * 100 / (100 - amputatedPercent), nil
}
