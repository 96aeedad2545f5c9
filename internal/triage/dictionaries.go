package triage

import "github.com/caba911/dispatch/internal/models"

// phraseWeight is one dictionary entry: a lowercase phrase and the score it
// contributes when found as a substring of the normalized description.
// The phrases and weights are carried from the original system's rules
// engine (emergency_system/core/ai.py) rather than re-invented, since the
// spec requires this layer to be deterministic and pre-existing weights are
// the only ground truth for what "severe" vs "moderate" means here.
type phraseWeight struct {
	phrase string
	weight int
	typ    models.ForceName
}

// severeKeywords carries weight 45-60 (spec.md §4.2).
var severeKeywords = []phraseWeight{
	{"paro cardiaco", 60, models.ForceMedical},
	{"paro cardiorrespiratorio", 60, models.ForceMedical},
	{"pcr", 60, models.ForceMedical},
	{"infarto", 55, models.ForceMedical},
	{"inconsciente", 50, models.ForceMedical},
	{"convulsion", 45, models.ForceMedical},
	{"convulsión", 45, models.ForceMedical},
	{"asfixia", 55, models.ForceMedical},
	{"ahogo", 45, models.ForceMedical},
	{"hemorragia masiva", 60, models.ForceMedical},
	{"hemorragia", 50, models.ForceMedical},
	{"quemaduras graves", 55, models.ForceMedical},
	{"explosion", 60, models.ForceFire},
	{"explosión", 60, models.ForceFire},
	{"derrumbe", 60, models.ForceFire},
	{"incendio masivo", 60, models.ForceFire},
	{"tiroteo", 60, models.ForcePolice},
	{"arma de fuego", 55, models.ForcePolice},
	{"apuñalado", 55, models.ForcePolice},
	{"arma blanca", 50, models.ForcePolice},
	{"se esta quemando", 60, models.ForceFire},
	{"se está quemando", 60, models.ForceFire},
	{"se quema", 60, models.ForceFire},
	{"en llamas", 60, models.ForceFire},
	{"fuego", 50, models.ForceFire},
	{"asalto", 55, models.ForcePolice},
	{"atraco", 55, models.ForcePolice},
	{"atrapad", 45, models.ForceFire},
}

// moderateKeywords carries weight 20-40.
var moderateKeywords = []phraseWeight{
	{"accidente", 30, models.ForceTraffic},
	{"choque", 30, models.ForceTraffic},
	{"herido", 30, models.ForceMedical},
	{"fractura", 35, models.ForceMedical},
	{"luxacion", 25, models.ForceMedical},
	{"luxación", 25, models.ForceMedical},
	{"quemadura", 25, models.ForceFire},
	{"incendio", 40, models.ForceFire},
	{"caida", 20, models.ForceMedical},
	{"caída", 20, models.ForceMedical},
	{"intoxicacion", 30, models.ForceMedical},
	{"intoxicación", 30, models.ForceMedical},
	{"agresion", 30, models.ForcePolice},
	{"agresión", 30, models.ForcePolice},
	{"robo con violencia", 40, models.ForcePolice},
	{"humo", 25, models.ForceFire},
	{"robo", 40, models.ForcePolice},
	{"robando", 40, models.ForcePolice},
	{"roban", 40, models.ForcePolice},
	{"transito", 30, models.ForceTraffic},
	{"tránsito", 30, models.ForceTraffic},
	{"trafico", 30, models.ForceTraffic},
	{"tráfico", 30, models.ForceTraffic},
	{"bloqueo", 30, models.ForceTraffic},
	{"corte", 30, models.ForceTraffic},
	{"manifestacion", 30, models.ForceTraffic},
	{"manifestación", 30, models.ForceTraffic},
	{"obstruccion", 30, models.ForceTraffic},
	{"obstrucción", 30, models.ForceTraffic},
	{"disturbio", 35, models.ForcePolice},
	{"banco central", 25, models.ForcePolice},
}

// minorKeywords carries weight 5-15.
var minorKeywords = []phraseWeight{
	{"dolor de cabeza", 5, models.ForceMedical},
	{"fiebre", 5, models.ForceMedical},
	{"resfriado", 5, models.ForceMedical},
	{"gripe", 5, models.ForceMedical},
	{"mareo", 10, models.ForceMedical},
}

// vulnerableKeywords add 10-15 without affecting type classification.
var vulnerableKeywords = []phraseWeight{
	{"bebé", 15, ""},
	{"bebe", 15, ""},
	{"niño", 10, ""},
	{"nino", 10, ""},
	{"embarazada", 15, ""},
	{"anciano", 10, ""},
	{"adulto mayor", 10, ""},
}

// multiplicityKeywords add 15-20 without affecting type classification.
var multiplicityKeywords = []phraseWeight{
	{"múltiples", 15, ""},
	{"multiples", 15, ""},
	{"varios heridos", 20, ""},
	{"masivo", 20, ""},
}

// sensitiveLocationKeywords add 10-20 without affecting type classification.
var sensitiveLocationKeywords = []phraseWeight{
	{"escuela", 15, ""},
	{"jardin", 15, ""},
	{"jardín", 15, ""},
	{"hospital", 10, ""},
	{"estacion", 10, ""},
	{"estación", 10, ""},
	{"banco", 10, ""},
}

var allDictionaries = [][]phraseWeight{
	severeKeywords,
	moderateKeywords,
	minorKeywords,
	vulnerableKeywords,
	multiplicityKeywords,
	sensitiveLocationKeywords,
}
