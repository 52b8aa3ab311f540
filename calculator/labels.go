package calculator

import (
	"strings"
	"unicode"

	"github.com/giygas/nutricalc-api/formulas"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalizeLabel folds case, strips accents and collapses every run of
// non-alphanumeric characters into a single underscore, so that
// "Restrição física grave" and "restricao_fisica_grave" compare equal.
func normalizeLabel(s string) string {
	// transformers and casers keep state, build them per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

var sexLabels = map[string]formulas.Sex{
	"male":      formulas.Male,
	"m":         formulas.Male,
	"boy":       formulas.Male,
	"masculino": formulas.Male,
	"female":    formulas.Female,
	"f":         formulas.Female,
	"girl":      formulas.Female,
	"feminino":  formulas.Female,
}

var ethnicityLabels = map[string]formulas.Ethnicity{
	"white":  formulas.White,
	"branca": formulas.White,
	"black":  formulas.Black,
	"negra":  formulas.Black,
}

var conditionLabels = map[string]formulas.Condition{
	"obesity":      formulas.Obesity,
	"obesidade":    formulas.Obesity,
	"malnutrition": formulas.Malnutrition,
	"desnutricao":  formulas.Malnutrition,
}

var activityLabels = map[string]formulas.ActivityLevel{
	"mild_moderate":          formulas.MildModerate,
	"leve_a_moderada":        formulas.MildModerate,
	"restricted_intense":     formulas.RestrictedIntense,
	"restrita_intensa":       formulas.RestrictedIntense,
	"severe_restriction":     formulas.SevereRestriction,
	"restricao_fisica_grave": formulas.SevereRestriction,
}

var motorLabels = map[string]formulas.MotorCondition{
	"no_dysfunction":                         formulas.NoDysfunction,
	"sem_disfuncao_motora":                   formulas.NoDysfunction,
	"ambulatory":                             formulas.Ambulatory,
	"nao_apresentar_disfuncao_mas_deambular": formulas.Ambulatory,
	"non_ambulatory":                         formulas.NonAmbulatory,
	"nao_deambular":                          formulas.NonAmbulatory,
	"nao_deambular_caminhar":                 formulas.NonAmbulatory,
}

var segmentLabels = map[string]formulas.AmputationSegment{
	"arm":       formulas.SegmentArm,
	"braco":     formulas.SegmentArm,
	"forearm":   formulas.SegmentForearm,
	"antebraco": formulas.SegmentForearm,
	"hand":      formulas.SegmentHand,
	"mao":       formulas.SegmentHand,
	"thigh":     formulas.SegmentThigh,
	"coxa":      formulas.SegmentThigh,
	"leg":       formulas.SegmentLeg,
	"perna":     formulas.SegmentLeg,
	"foot":      formulas.SegmentFoot,
	"pe":        formulas.SegmentFoot,
}

// resolveLabel maps a user supplied label to its canonical value. Unknown
// labels pass through normalized so the formula decides how to treat them.
func resolveLabel[T ~string](aliases map[string]T, raw string) T {
	key := normalizeLabel(raw)
	if v, ok := aliases[key]; ok {
		return v
	}
	return T(key)
}
