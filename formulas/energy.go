package formulas

// linear is slope*x + intercept.
type linear struct {
	slope, intercept float64
}

func (l linear) at(x float64) float64 {
	return l.slope*x + l.intercept
}

// weightBand is an age band whose upper bound (years) is inclusive. Bands are
// scanned in order, so each one starts just above the previous upper bound.
type weightBand struct {
	maxAge       float64
	male, female linear
}

func (b weightBand) forSex(s Sex) linear {
	if s == Male {
		return b.male
	}
	return b.female
}

// lookupBand returns the first band containing age. Negative ages and ages
// above the last band are outside every band.
func lookupBand(bands []weightBand, age float64) (weightBand, bool) {
	if age < 0 {
		return weightBand{}, false
	}
	for _, b := range bands {
		if age <= b.maxAge {
			return b, true
		}
	}
	return weightBand{}, false
}

// bmrBands are the FAO/WHO basal metabolic rate equations (kcal/day).
var bmrBands = []weightBand{
	{maxAge: 3, male: linear{60.9, -54}, female: linear{61, -51}},
	{maxAge: 10, male: linear{22.7, 495}, female: linear{22.5, 499}},
	{maxAge: 18, male: linear{17.5, 651}, female: linear{12.2, 746}},
}

// schofieldBands are the Schofield weight equations (kcal/day) used for
// critically ill children.
var schofieldBands = []weightBand{
	{maxAge: 3, male: linear{54.48, -30.33}, female: linear{58.29, -31.05}},
	{maxAge: 10, male: linear{22.7, 505}, female: linear{20.3, 486}},
	{maxAge: 18, male: linear{13.4, 693}, female: linear{17.7, 659}},
}

// TotalEnergyExpenditure applies an activity or a stress factor to the basal
// rate (kcal/day). A nil factor is not supplied. When both are supplied, a
// factor at or below the neutral 1.0 counts as unused; both above 1.0 is
// rejected because they describe exclusive scenarios.
func TotalEnergyExpenditure(basalRate float64, activityFactor, stressFactor *float64) (float64, error) {
	checks := []error{positive("basal_rate", basalRate)}
	if activityFactor != nil {
		checks = append(checks, positive("activity_factor", *activityFactor))
	}
	if stressFactor != nil {
		checks = append(checks, positive("stress_factor", *stressFactor))
	}
	if err := firstError(checks...); err != nil {
		return 0, err
	}

	if activityFactor != nil && stressFactor != nil && *activityFactor > 1 && *stressFactor > 1 {
		return 0, &ValidationError{
			Kind:   ErrInvalidCombination,
			Field:  "activity_factor,stress_factor",
			Value:  [2]float64{*activityFactor, *stressFactor},
			Reason: "use either an activity factor or a stress factor, not both",
		}
	}

	switch {
	case activityFactor != nil && stressFactor != nil:
		// with both supplied only one of them can be above neutral
		if *activityFactor > 1 {
			return basalRate * *activityFactor, nil
		}
		if *stressFactor > 1 {
			return basalRate * *stressFactor, nil
		}
		return basalRate, nil
	case activityFactor != nil:
		return basalRate * *activityFactor, nil
	case stressFactor != nil:
		return basalRate * *stressFactor, nil
	}
	return basalRate, nil
}

// PediatricEnergyRequirement returns the estimated energy requirement
// (kcal/day) of a child from age (years), weight (kg), height (m) and the
// physical activity coefficient. Infants up to 35 months use weight only.
// Ages between 2.92 and 3 years and above 18 are not covered.
func PediatricEnergyRequirement(age, weight, heightMeters float64, sex Sex, activityFactor float64) (Estimate, error) {
	if err := firstError(
		finite("age", age),
		positive("weight", weight),
		positive("height", heightMeters),
		positive("activity_factor", activityFactor),
		validSex(sex),
	); err != nil {
		return Undefined(), err
	}

	switch {
	case age < 0:
		return Undefined(), nil
	case age <= 0.25:
		return Defined(89*weight - 100 + 175), nil
	case age <= 0.5:
		return Defined(89*weight - 100 + 56), nil
	case age <= 1:
		return Defined(89*weight - 100 + 22), nil
	case age <= 2.92:
		return Defined(89*weight - 100 + 20), nil
	case age >= 3 && age < 9:
		return Defined(childEER(age, weight, heightMeters, sex, activityFactor) + 20), nil
	case age >= 9 && age <= 18:
		return Defined(childEER(age, weight, heightMeters, sex, activityFactor) + 25), nil
	}
	return Undefined(), nil
}

func childEER(age, weight, height float64, sex Sex, pa float64) float64 {
	if sex == Male {
		return 88.5 - 61.9*age + pa*(26.7*weight+903*height)
	}
	return 135.3 - 30.8*age + pa*(10*weight+934*height)
}

// BasalMetabolicRate returns the basal metabolic rate (kcal/day) for ages
// 0 to 18 years from weight (kg).
func BasalMetabolicRate(weight, age float64, sex Sex) (Estimate, error) {
	if err := firstError(
		positive("weight", weight),
		finite("age", age),
		validSex(sex),
	); err != nil {
		return Undefined(), err
	}
	band, ok := lookupBand(bmrBands, age)
	if !ok {
		return Undefined(), nil
	}
	return Defined(band.forSex(sex).at(weight)), nil
}

// SchofieldBMR returns the Schofield basal metabolic rate (kcal/day). Height
// (m) is validated but the weight-only form of the equation is used.
func SchofieldBMR(weight, heightMeters, age float64, sex Sex) (Estimate, error) {
	if err := firstError(
		positive("weight", weight),
		positive("height", heightMeters),
		finite("age", age),
		validSex(sex),
	); err != nil {
		return Undefined(), err
	}
	band, ok := lookupBand(schofieldBands, age)
	if !ok {
		return Undefined(), nil
	}
	return Defined(band.forSex(sex).at(weight)), nil
}

// HarrisBenedict returns the revised Harris-Benedict resting energy
// expenditure (kcal/day) for adults, from weight (kg), height (cm) and age (years).
func HarrisBenedict(weight, heightCm, age float64, sex Sex) (float64, error) {
	if err := firstError(
		positive("weight", weight),
		positive("height", heightCm),
		nonNegative("age", age),
		validSex(sex),
	); err != nil {
		return 0, err
	}
	if sex == Male {
		return 88.362 + 13.397*weight + 4.799*heightCm - 5.677*age, nil
	}
	return 447.593 + 9.247*weight + 3.098*heightCm - 4.330*age, nil
}

type weightHeight struct {
	weight, height, intercept float64
}

func (c weightHeight) at(weight, height float64) float64 {
	return c.weight*weight + c.height*height + c.intercept
}

type cpBand struct {
	maxAge       float64
	male, female weightHeight
}

// cpEnergyBands give the basal need (kcal/day) of children with cerebral
// palsy from weight (kg) and height (m).
var cpEnergyBands = []cpBand{
	{
		maxAge: 3,
		male:   weightHeight{0.167, 1517.4, -617.6},
		female: weightHeight{16.25, 1023.2, -413.5},
	},
	{
		maxAge: 10,
		male:   weightHeight{19.6, 130.3, 414.9},
		female: weightHeight{16.97, 161.8, 371.2},
	},
	{
		maxAge: 18,
		male:   weightHeight{16.25, 137.2, 515.5},
		female: weightHeight{8.365, 465, 200},
	},
}

// CerebralPalsyEnergyNeed returns the energy need (kcal/day) of a child with
// cerebral palsy: the age-banded basal equation times the stress factor.
func CerebralPalsyEnergyNeed(weight, heightMeters float64, sex Sex, age, stressFactor float64) (Estimate, error) {
	if err := firstError(
		positive("weight", weight),
		positive("height", heightMeters),
		finite("age", age),
		positive("stress_factor", stressFactor),
		validSex(sex),
	); err != nil {
		return Undefined(), err
	}
	if age < 0 {
		return Undefined(), nil
	}
	for _, b := range cpEnergyBands {
		if age > b.maxAge {
			continue
		}
		c := b.female
		if sex == Male {
			c = b.male
		}
		return Defined(c.at(weight, heightMeters) * stressFactor), nil
	}
	return Undefined(), nil
}

var activityKcalPerCm = map[ActivityLevel]float64{
	MildModerate:      13.9,
	RestrictedIntense: 10.0,
	SevereRestriction: 11.1,
}

// CPEnergyByActivityLevel returns the energy need (kcal/day) of a child with
// cerebral palsy aged 5 to 11 from height (cm) and activity level.
func CPEnergyByActivityLevel(heightCm float64, level ActivityLevel) (float64, error) {
	if err := positive("height", heightCm); err != nil {
		return 0, err
	}
	k, ok := activityKcalPerCm[level]
	if !ok {
		return 0, categoryError("activity_level", string(level), "must be one of mild_moderate, restricted_intense, severe_restriction")
	}
	return k * heightCm, nil
}

var motorKcalPerCm = map[MotorCondition]float64{
	NoDysfunction: 15,
	Ambulatory:    14,
	NonAmbulatory: 11,
}

// CPEnergyByMotorCondition returns the energy need (kcal/day) of a stable
// child or adolescent with cerebral palsy from height (cm) and motor condition.
func CPEnergyByMotorCondition(heightCm float64, motor MotorCondition) (float64, error) {
	if err := positive("height", heightCm); err != nil {
		return 0, err
	}
	k, ok := motorKcalPerCm[motor]
	if !ok {
		return 0, categoryError("motor_condition", string(motor), "must be one of no_dysfunction, ambulatory, non_ambulatory")
	}
	return k * heightCm, nil
}

// CPEnergyGeneral returns the energy need (kcal/day) of a child with cerebral
// palsy from weight (kg), height (cm) and age (years). No age banding.
func CPEnergyGeneral(weight, heightCm, age float64, sex Sex) (float64, error) {
	if err := firstError(
		positive("weight", weight),
		positive("height", heightCm),
		nonNegative("age", age),
		validSex(sex),
	); err != nil {
		return 0, err
	}
	if sex == Male {
		return 66.5 + 13.75*weight + 5.003*heightCm - 6.775*age, nil
	}
	return 65.1 + 9.56*weight + 1.85*heightCm - 4.676*age, nil
}

// DownSyndromeEnergyNeed returns the energy need (kcal/day) of a child with
// Down syndrome aged 5 to 12 from height (cm).
func DownSyndromeEnergyNeed(heightCm float64, sex Sex) (float64, error) {
	if err := firstError(
		positive("height", heightCm),
		validSex(sex),
	); err != nil {
		return 0, err
	}
	if sex == Male {
		return 16.1 * heightCm, nil
	}
	return 14.3 * heightCm, nil
}

// kJToKcal converts kilojoules to kilocalories.
const kJToKcal = 0.239

// CriticallyIllBasalExpenditure returns the basal energy expenditure
// (kcal/day) of a critically ill child from age (months), weight (kg) and
// body temperature (°C).
func CriticallyIllBasalExpenditure(ageMonths, weight, tempC float64) (float64, error) {
	if err := firstError(
		nonNegative("age_months", ageMonths),
		positive("weight", weight),
		positive("temperature", tempC),
	); err != nil {
		return 0, err
	}
	return (17*ageMonths + 48*weight + 292*tempC - 9677) * kJToKcal, nil
}
