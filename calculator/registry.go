package calculator

import (
	"github.com/giygas/nutricalc-api/formulas"
)

const (
	AdjustedWeight           FormulaID = "adjusted-weight"
	WeightLoss               FormulaID = "weight-loss"
	ChildWeight              FormulaID = "child-weight"
	StatureFromTibia         FormulaID = "stature-tibia"
	StatureFromUlna          FormulaID = "stature-ulna"
	CorrectedGestationalAge  FormulaID = "corrected-gestational-age"
	BodyFat                  FormulaID = "body-fat"
	ArmMuscleCircumference   FormulaID = "arm-muscle-circumference"
	ArmMuscleArea            FormulaID = "arm-muscle-area"
	ArmFatArea               FormulaID = "arm-fat-area"
	CPStature                FormulaID = "cp-stature"
	AdolescentCPStature      FormulaID = "adolescent-cp-stature"
	AmputationWeight         FormulaID = "amputation-weight"
	TotalEnergyExpenditure   FormulaID = "total-energy-expenditure"
	PediatricEnergy          FormulaID = "pediatric-energy-requirement"
	BasalMetabolicRate       FormulaID = "bmr"
	SchofieldBMR             FormulaID = "schofield-bmr"
	HarrisBenedict           FormulaID = "harris-benedict"
	CPEnergyNeed             FormulaID = "cp-energy-need"
	CPEnergyByActivity       FormulaID = "cp-energy-activity"
	CPEnergyByMotor          FormulaID = "cp-energy-motor"
	CPEnergyGeneral          FormulaID = "cp-energy-general"
	DownSyndromeEnergy       FormulaID = "down-syndrome-energy"
	CriticallyIllExpenditure FormulaID = "critically-ill-bee"
)

// down syndrome references are compared with typical children, who need
// about 15% more energy per cm
const typicalChildFactor = 1.15

var (
	sexChoices       = []string{string(formulas.Male), string(formulas.Female)}
	ethnicityChoices = []string{string(formulas.White), string(formulas.Black)}
	conditionChoices = []string{string(formulas.Obesity), string(formulas.Malnutrition)}
	activityChoices  = []string{
		string(formulas.MildModerate),
		string(formulas.RestrictedIntense),
		string(formulas.SevereRestriction),
	}
	motorChoices = []string{
		string(formulas.NoDysfunction),
		string(formulas.Ambulatory),
		string(formulas.NonAmbulatory),
	}
)

func segmentChoices() []string {
	segments := formulas.AmputationSegments()
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = string(s)
	}
	return out
}

func num(name, unit string) Param {
	return Param{Name: name, Kind: KindNumber, Unit: unit}
}

func optNum(name, unit string) Param {
	return Param{Name: name, Kind: KindNumber, Unit: unit, Optional: true}
}

func cat(name string, choices []string) Param {
	return Param{Name: name, Kind: KindCategory, Choices: choices}
}

func value(v float64, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Value: formulas.Defined(v)}, nil
}

func estimate(e formulas.Estimate, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Value: e}, nil
}

var registry = []Formula{
	{
		ID:          AdjustedWeight,
		Name:        "Adjusted weight",
		Description: "Weight used for dosing and energy in obesity or malnutrition",
		Unit:        "kg",
		Params:      []Param{num("actual_weight", "kg"), num("ideal_weight", "kg"), cat("condition", conditionChoices)},
		eval: func(r *reader) (Outcome, error) {
			actual, ideal := r.number("actual_weight"), r.number("ideal_weight")
			condition := category(r, "condition", conditionLabels)
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.AdjustedWeight(actual, ideal, condition))
		},
	},
	{
		ID:          WeightLoss,
		Name:        "Weight loss",
		Description: "Percentage of weight lost relative to usual weight",
		Unit:        "%",
		Params:      []Param{num("usual_weight", "kg"), num("current_weight", "kg")},
		eval: func(r *reader) (Outcome, error) {
			usual, current := r.number("usual_weight"), r.number("current_weight")
			if r.err != nil {
				return Outcome{}, r.err
			}
			pct, err := formulas.WeightLossPercent(usual, current)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: formulas.Defined(pct), Classification: formulas.ClassifyWeightLoss(pct)}, nil
		},
	},
	{
		ID:          ChildWeight,
		Name:        "Estimated child weight",
		Description: "Weight of children 6 to 18 years from knee height and arm circumference",
		Unit:        "kg",
		Params: []Param{
			num("knee_height", "cm"), num("arm_circumference", "cm"),
			cat("sex", sexChoices), cat("ethnicity", ethnicityChoices),
		},
		eval: func(r *reader) (Outcome, error) {
			knee, arm := r.number("knee_height"), r.number("arm_circumference")
			sex := r.sex()
			ethnicity := category(r, "ethnicity", ethnicityLabels)
			if r.err != nil {
				return Outcome{}, r.err
			}
			return estimate(formulas.EstimateChildWeight(knee, arm, sex, ethnicity))
		},
	},
	{
		ID:          StatureFromTibia,
		Name:        "Stature from tibia",
		Description: "Stature of children with cerebral palsy from tibial length",
		Unit:        "cm",
		Params:      []Param{num("tibia_length", "cm")},
		eval: func(r *reader) (Outcome, error) {
			length := r.number("tibia_length")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.EstimateStatureFromTibia(length))
		},
	},
	{
		ID:          StatureFromUlna,
		Name:        "Stature from ulna",
		Description: "Stature of adolescents from ulna length",
		Unit:        "cm",
		Params:      []Param{num("ulna_length", "cm")},
		eval: func(r *reader) (Outcome, error) {
			length := r.number("ulna_length")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.EstimateStatureFromUlna(length))
		},
	},
	{
		ID:          CorrectedGestationalAge,
		Name:        "Corrected gestational age",
		Description: "Age of a preterm infant corrected to a 40 week term",
		Unit:        "months",
		Params:      []Param{num("chronological_age_months", "months"), num("gestational_age_weeks", "weeks")},
		eval: func(r *reader) (Outcome, error) {
			months, weeks := r.number("chronological_age_months"), r.number("gestational_age_weeks")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.CorrectedGestationalAge(months, weeks))
		},
	},
	{
		ID:          BodyFat,
		Name:        "Body fat",
		Description: "Body fat percentage of children and adolescents from triceps and subscapular skinfolds",
		Unit:        "%",
		Params: []Param{
			num("skinfold_sum", "mm"), cat("sex", sexChoices),
			{Name: "tanner_stage", Kind: KindStage, Choices: []string{"1", "2", "3", "4", "5"}},
			{Name: "ethnicity", Kind: KindCategory, Optional: true, Choices: ethnicityChoices},
		},
		eval: func(r *reader) (Outcome, error) {
			sum := r.number("skinfold_sum")
			sex := r.sex()
			stage := r.stage("tanner_stage")
			ethnicity, _ := optionalCategory(r, "ethnicity", ethnicityLabels)
			if r.err != nil {
				return Outcome{}, r.err
			}
			pct, err := formulas.BodyFatPercent(sum, sex, stage, ethnicity)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: formulas.Defined(pct), Classification: formulas.ClassifyBodyFat(pct, sex)}, nil
		},
	},
	{
		ID:          ArmMuscleCircumference,
		Name:        "Arm muscle circumference",
		Description: "Mid-arm muscle circumference from arm circumference and triceps skinfold",
		Unit:        "cm",
		Params:      []Param{num("arm_circumference", "cm"), num("triceps_skinfold", "mm")},
		eval: func(r *reader) (Outcome, error) {
			arm, triceps := r.number("arm_circumference"), r.number("triceps_skinfold")
			if r.err != nil {
				return Outcome{}, r.err
			}
			amc, err := formulas.ArmMuscleCircumference(arm, triceps)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: formulas.Defined(amc), Classification: formulas.ClassifyArmMuscleCircumference(amc)}, nil
		},
	},
	{
		ID:          ArmMuscleArea,
		Name:        "Arm muscle area",
		Description: "Mid-arm muscle area from arm circumference and triceps skinfold",
		Unit:        "cm²",
		Params:      []Param{num("arm_circumference", "cm"), num("triceps_skinfold", "mm")},
		eval: func(r *reader) (Outcome, error) {
			arm, triceps := r.number("arm_circumference"), r.number("triceps_skinfold")
			if r.err != nil {
				return Outcome{}, r.err
			}
			ama, err := formulas.ArmMuscleArea(arm, triceps)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{
				Value:      formulas.Defined(ama),
				Components: map[string]float64{"percentile": float64(formulas.ArmMuscleAreaPercentile(ama))},
			}, nil
		},
	},
	{
		ID:          ArmFatArea,
		Name:        "Arm fat area",
		Description: "Arm fat area from arm circumference and arm muscle area",
		Unit:        "cm²",
		Params:      []Param{num("arm_circumference", "cm"), num("arm_muscle_area", "cm²")},
		eval: func(r *reader) (Outcome, error) {
			arm, ama := r.number("arm_circumference"), r.number("arm_muscle_area")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.ArmFatArea(arm, ama))
		},
	},
	{
		ID:          CPStature,
		Name:        "Cerebral palsy stature",
		Description: "Segmental stature estimates of children 2 to 12 with cerebral palsy and their mean",
		Unit:        "cm",
		Params:      []Param{num("upper_arm_length", "cm"), num("tibial_length", "cm"), num("knee_length", "cm")},
		eval: func(r *reader) (Outcome, error) {
			upperArm, tibia, knee := r.number("upper_arm_length"), r.number("tibial_length"), r.number("knee_length")
			if r.err != nil {
				return Outcome{}, r.err
			}
			est, err := formulas.CerebralPalsyStature(upperArm, tibia, knee)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Value: formulas.Defined(est.Mean), Components: est.Components()}, nil
		},
	},
	{
		ID:          AdolescentCPStature,
		Name:        "Adolescent cerebral palsy stature",
		Description: "Stature of adolescents with cerebral palsy from age and ulna length",
		Unit:        "cm",
		Params:      []Param{num("age", "years"), cat("sex", sexChoices), num("ulna_length", "cm")},
		eval: func(r *reader) (Outcome, error) {
			age := r.number("age")
			sex := r.sex()
			ulna := r.number("ulna_length")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.AdolescentCPStature(age, sex, ulna))
		},
	},
	{
		ID:          AmputationWeight,
		Name:        "Amputation corrected weight",
		Description: "Weight including the amputated segment, from its share of body weight or its name",
		Unit:        "kg",
		Params: []Param{
			num("current_weight", "kg"),
			optNum("amputated_percent", "%"),
			{Name: "segment", Kind: KindCategory, Optional: true, Choices: segmentChoices()},
		},
		eval: func(r *reader) (Outcome, error) {
			weight := r.number("current_weight")
			pct := r.optionalNumber("amputated_percent")
			segment, hasSegment := optionalCategory(r, "segment", segmentLabels)
			if r.err != nil {
				return Outcome{}, r.err
			}
			if pct == nil {
				if !hasSegment {
					return Outcome{}, r.missing("amputated_percent", "segment")
				}
				p, err := formulas.AmputationPercent(segment)
				if err != nil {
					return Outcome{}, err
				}
				pct = &p
			}
			corrected, err := formulas.AmputationCorrectedWeight(weight, *pct)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{
				Value:      formulas.Defined(corrected),
				Components: map[string]float64{"amputated_percent": *pct},
			}, nil
		},
	},
	{
		ID:          TotalEnergyExpenditure,
		Name:        "Total energy expenditure",
		Description: "Basal rate multiplied by an activity factor or a stress factor",
		Unit:        "kcal/day",
		Params:      []Param{num("basal_rate", "kcal/day"), optNum("activity_factor", ""), optNum("stress_factor", "")},
		eval: func(r *reader) (Outcome, error) {
			basal := r.number("basal_rate")
			activity, stress := r.optionalNumber("activity_factor"), r.optionalNumber("stress_factor")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.TotalEnergyExpenditure(basal, activity, stress))
		},
	},
	{
		ID:          PediatricEnergy,
		Name:        "Pediatric estimated energy requirement",
		Description: "Estimated energy requirement of healthy children 0 to 18 years",
		Unit:        "kcal/day",
		Params: []Param{
			num("age", "years"), num("weight", "kg"), num("height", "m"),
			cat("sex", sexChoices), num("activity_factor", ""),
		},
		eval: func(r *reader) (Outcome, error) {
			age, weight, height := r.number("age"), r.number("weight"), r.number("height")
			sex := r.sex()
			pa := r.number("activity_factor")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return estimate(formulas.PediatricEnergyRequirement(age, weight, height, sex, pa))
		},
	},
	{
		ID:          BasalMetabolicRate,
		Name:        "Basal metabolic rate",
		Description: "FAO/WHO basal metabolic rate for 0 to 18 years. Adults get a Harris-Benedict comparison when height is given",
		Unit:        "kcal/day",
		Params:      []Param{num("weight", "kg"), num("age", "years"), cat("sex", sexChoices), optNum("height", "cm")},
		eval: func(r *reader) (Outcome, error) {
			weight, age := r.number("weight"), r.number("age")
			sex := r.sex()
			height := r.optionalNumber("height")
			if r.err != nil {
				return Outcome{}, r.err
			}
			out, err := estimate(formulas.BasalMetabolicRate(weight, age, sex))
			if err != nil || out.Value.IsDefined() || height == nil || age <= 18 {
				return out, err
			}
			hb, err := formulas.HarrisBenedict(weight, *height, age, sex)
			if err != nil {
				return Outcome{}, err
			}
			out.Components = map[string]float64{"harris_benedict": hb}
			return out, nil
		},
	},
	{
		ID:          SchofieldBMR,
		Name:        "Schofield basal metabolic rate",
		Description: "Schofield equation for critically ill children, compared with the FAO/WHO rate",
		Unit:        "kcal/day",
		Params:      []Param{num("weight", "kg"), num("height", "m"), num("age", "years"), cat("sex", sexChoices)},
		eval: func(r *reader) (Outcome, error) {
			weight, height, age := r.number("weight"), r.number("height"), r.number("age")
			sex := r.sex()
			if r.err != nil {
				return Outcome{}, r.err
			}
			out, err := estimate(formulas.SchofieldBMR(weight, height, age, sex))
			if err != nil {
				return Outcome{}, err
			}
			schofield, ok := out.Value.Value()
			if !ok {
				return out, nil
			}
			standard, err := formulas.BasalMetabolicRate(weight, age, sex)
			if err != nil {
				return Outcome{}, err
			}
			if bmr, ok := standard.Value(); ok {
				out.Components = map[string]float64{
					"standard_bmr":       bmr,
					"difference":         schofield - bmr,
					"difference_percent": (schofield - bmr) / bmr * 100,
				}
			}
			return out, nil
		},
	},
	{
		ID:          HarrisBenedict,
		Name:        "Harris-Benedict",
		Description: "Revised Harris-Benedict resting energy expenditure for adults",
		Unit:        "kcal/day",
		Params:      []Param{num("weight", "kg"), num("height", "cm"), num("age", "years"), cat("sex", sexChoices)},
		eval: func(r *reader) (Outcome, error) {
			weight, height, age := r.number("weight"), r.number("height"), r.number("age")
			sex := r.sex()
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.HarrisBenedict(weight, height, age, sex))
		},
	},
	{
		ID:          CPEnergyNeed,
		Name:        "Cerebral palsy energy need",
		Description: "Age banded energy need of children with cerebral palsy times a stress factor",
		Unit:        "kcal/day",
		Params: []Param{
			num("weight", "kg"), num("height", "m"), cat("sex", sexChoices),
			num("age", "years"), num("stress_factor", ""),
		},
		eval: func(r *reader) (Outcome, error) {
			weight, height := r.number("weight"), r.number("height")
			sex := r.sex()
			age, stress := r.number("age"), r.number("stress_factor")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return estimate(formulas.CerebralPalsyEnergyNeed(weight, height, sex, age, stress))
		},
	},
	{
		ID:          CPEnergyByActivity,
		Name:        "Cerebral palsy energy by activity",
		Description: "Energy need of children 5 to 11 with cerebral palsy from height and activity level",
		Unit:        "kcal/day",
		Params:      []Param{num("height", "cm"), cat("activity_level", activityChoices)},
		eval: func(r *reader) (Outcome, error) {
			height := r.number("height")
			level := category(r, "activity_level", activityLabels)
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.CPEnergyByActivityLevel(height, level))
		},
	},
	{
		ID:          CPEnergyByMotor,
		Name:        "Cerebral palsy energy by motor condition",
		Description: "Energy need of stable children and adolescents with cerebral palsy from height and motor condition",
		Unit:        "kcal/day",
		Params:      []Param{num("height", "cm"), cat("motor_condition", motorChoices)},
		eval: func(r *reader) (Outcome, error) {
			height := r.number("height")
			motor := category(r, "motor_condition", motorLabels)
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.CPEnergyByMotorCondition(height, motor))
		},
	},
	{
		ID:          CPEnergyGeneral,
		Name:        "Cerebral palsy energy (general)",
		Description: "Energy need of children with cerebral palsy without age banding",
		Unit:        "kcal/day",
		Params:      []Param{num("weight", "kg"), num("height", "cm"), num("age", "years"), cat("sex", sexChoices)},
		eval: func(r *reader) (Outcome, error) {
			weight, height, age := r.number("weight"), r.number("height"), r.number("age")
			sex := r.sex()
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.CPEnergyGeneral(weight, height, age, sex))
		},
	},
	{
		ID:          DownSyndromeEnergy,
		Name:        "Down syndrome energy need",
		Description: "Energy need of children 5 to 12 with Down syndrome from height",
		Unit:        "kcal/day",
		Params:      []Param{num("height", "cm"), cat("sex", sexChoices)},
		eval: func(r *reader) (Outcome, error) {
			height := r.number("height")
			sex := r.sex()
			if r.err != nil {
				return Outcome{}, r.err
			}
			need, err := formulas.DownSyndromeEnergyNeed(height, sex)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{
				Value:      formulas.Defined(need),
				Components: map[string]float64{"typical_child": need * typicalChildFactor},
			}, nil
		},
	},
	{
		ID:          CriticallyIllExpenditure,
		Name:        "Critically ill basal expenditure",
		Description: "Basal energy expenditure of critically ill children from age, weight and temperature",
		Unit:        "kcal/day",
		Params:      []Param{num("age_months", "months"), num("weight", "kg"), num("temperature", "°C")},
		eval: func(r *reader) (Outcome, error) {
			months, weight, temp := r.number("age_months"), r.number("weight"), r.number("temperature")
			if r.err != nil {
				return Outcome{}, r.err
			}
			return value(formulas.CriticallyIllBasalExpenditure(months, weight, temp))
		},
	},
}
