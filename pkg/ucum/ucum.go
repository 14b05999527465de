// Package ucum provides UCUM (Unified Code for Units of Measure)
// dimensional-compatibility normalization for FHIRPath Quantity values.
//
// Per spec.md §3.3, the engine does not perform full UCUM unit
// conversion — only dimensional-compatibility categorisation (e.g. mg
// and g are both "mass" and therefore comparable; mg and s are not).
// This package normalizes known units to a canonical per-dimension code
// so two Quantities can be compared/added when their units differ but
// their dimension agrees.
//
// Reference: https://ucum.org/ucum.html
package ucum

import (
	"strings"
)

// NormalizedQuantity represents a quantity normalized to canonical UCUM units.
type NormalizedQuantity struct {
	Value float64 // Normalized value in canonical units
	Code  string  // Canonical unit code (doubles as the dimension bucket key)
}

// UnitConversion defines a conversion from a unit to its canonical form.
type UnitConversion struct {
	CanonicalCode string  // The canonical unit code (e.g., "g" for mass)
	Dimension     string  // Dimension bucket name (mass, length, volume, ...)
	Factor        float64 // Multiply original value by this to get canonical
}

// Dimension bucket names.
const (
	DimensionMass          = "mass"
	DimensionLength        = "length"
	DimensionVolume        = "volume"
	DimensionTime          = "time"
	DimensionTemperature   = "temperature"
	DimensionConcentration = "concentration"
	DimensionMolar         = "molar-concentration"
	DimensionPressure      = "pressure"
	DimensionCount         = "count"
	DimensionPercentage    = "dimensionless"
	DimensionRate          = "rate"
	DimensionIU            = "international-unit"
	DimensionEnergy        = "energy"
)

// canonicalUnits maps UCUM codes to their canonical conversions.
// Organized by dimension (mass, length, volume, time, etc.)
var canonicalUnits = map[string]UnitConversion{
	// === MASS (canonical: g) ===
	"kg":      {CanonicalCode: "g", Dimension: DimensionMass, Factor: 1000},
	"g":       {CanonicalCode: "g", Dimension: DimensionMass, Factor: 1},
	"mg":      {CanonicalCode: "g", Dimension: DimensionMass, Factor: 0.001},
	"ug":      {CanonicalCode: "g", Dimension: DimensionMass, Factor: 0.000001},
	"ng":      {CanonicalCode: "g", Dimension: DimensionMass, Factor: 0.000000001},
	"pg":      {CanonicalCode: "g", Dimension: DimensionMass, Factor: 0.000000000001},
	"lb":      {CanonicalCode: "g", Dimension: DimensionMass, Factor: 453.59237},
	"oz":      {CanonicalCode: "g", Dimension: DimensionMass, Factor: 28.349523125},
	"[lb_av]": {CanonicalCode: "g", Dimension: DimensionMass, Factor: 453.59237},
	"[oz_av]": {CanonicalCode: "g", Dimension: DimensionMass, Factor: 28.349523125},

	// === LENGTH (canonical: m) ===
	"km":     {CanonicalCode: "m", Dimension: DimensionLength, Factor: 1000},
	"m":      {CanonicalCode: "m", Dimension: DimensionLength, Factor: 1},
	"dm":     {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.1},
	"cm":     {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.01},
	"mm":     {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.001},
	"um":     {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.000001},
	"nm":     {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.000000001},
	"[in_i]": {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.0254},
	"[ft_i]": {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.3048},
	"[yd_i]": {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.9144},
	"[mi_i]": {CanonicalCode: "m", Dimension: DimensionLength, Factor: 1609.344},
	"in":     {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.0254},
	"ft":     {CanonicalCode: "m", Dimension: DimensionLength, Factor: 0.3048},

	// === VOLUME (canonical: L) ===
	"L":        {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 1},
	"l":        {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 1},
	"dL":       {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.1},
	"dl":       {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.1},
	"cL":       {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.01},
	"cl":       {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.01},
	"mL":       {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.001},
	"ml":       {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.001},
	"uL":       {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.000001},
	"ul":       {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.000001},
	"[gal_us]": {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 3.785411784},
	"[qt_us]":  {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.946352946},
	"[pt_us]":  {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.473176473},
	"[foz_us]": {CanonicalCode: "L", Dimension: DimensionVolume, Factor: 0.0295735295625},

	// === TIME (canonical: s) ===
	"a":   {CanonicalCode: "s", Dimension: DimensionTime, Factor: 31557600},
	"mo":  {CanonicalCode: "s", Dimension: DimensionTime, Factor: 2629800},
	"wk":  {CanonicalCode: "s", Dimension: DimensionTime, Factor: 604800},
	"d":   {CanonicalCode: "s", Dimension: DimensionTime, Factor: 86400},
	"h":   {CanonicalCode: "s", Dimension: DimensionTime, Factor: 3600},
	"min": {CanonicalCode: "s", Dimension: DimensionTime, Factor: 60},
	"s":   {CanonicalCode: "s", Dimension: DimensionTime, Factor: 1},
	"ms":  {CanonicalCode: "s", Dimension: DimensionTime, Factor: 0.001},
	"us":  {CanonicalCode: "s", Dimension: DimensionTime, Factor: 0.000001},
	"ns":  {CanonicalCode: "s", Dimension: DimensionTime, Factor: 0.000000001},

	// === TEMPERATURE (canonical: K) ===
	"K":      {CanonicalCode: "K", Dimension: DimensionTemperature, Factor: 1},
	"Cel":    {CanonicalCode: "Cel", Dimension: DimensionTemperature, Factor: 1},
	"[degF]": {CanonicalCode: "Cel", Dimension: DimensionTemperature, Factor: 1},

	// === CONCENTRATION (mass/volume) ===
	"g/L":   {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 1},
	"mg/L":  {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 0.001},
	"ug/L":  {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 0.000001},
	"ng/L":  {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 0.000000001},
	"g/dL":  {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 10},
	"mg/dL": {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 0.01},
	"ug/dL": {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 0.00001},
	"g/mL":  {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 1000},
	"mg/mL": {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 1},
	"ug/mL": {CanonicalCode: "g/L", Dimension: DimensionConcentration, Factor: 0.001},

	// === MOLAR CONCENTRATION (canonical: mol/L) ===
	"mol/L":  {CanonicalCode: "mol/L", Dimension: DimensionMolar, Factor: 1},
	"mmol/L": {CanonicalCode: "mol/L", Dimension: DimensionMolar, Factor: 0.001},
	"umol/L": {CanonicalCode: "mol/L", Dimension: DimensionMolar, Factor: 0.000001},
	"nmol/L": {CanonicalCode: "mol/L", Dimension: DimensionMolar, Factor: 0.000000001},
	"pmol/L": {CanonicalCode: "mol/L", Dimension: DimensionMolar, Factor: 0.000000000001},

	// === PRESSURE (canonical: Pa) ===
	"Pa":     {CanonicalCode: "Pa", Dimension: DimensionPressure, Factor: 1},
	"kPa":    {CanonicalCode: "Pa", Dimension: DimensionPressure, Factor: 1000},
	"mm[Hg]": {CanonicalCode: "Pa", Dimension: DimensionPressure, Factor: 133.322387415},
	"[psi]":  {CanonicalCode: "Pa", Dimension: DimensionPressure, Factor: 6894.757293168},

	// === COUNT/CELLS ===
	"10*9/L":  {CanonicalCode: "10*9/L", Dimension: DimensionCount, Factor: 1},
	"10*12/L": {CanonicalCode: "10*9/L", Dimension: DimensionCount, Factor: 1000},
	"10*6/L":  {CanonicalCode: "10*9/L", Dimension: DimensionCount, Factor: 0.001},
	"10*3/uL": {CanonicalCode: "10*9/L", Dimension: DimensionCount, Factor: 1},
	"/uL":     {CanonicalCode: "10*9/L", Dimension: DimensionCount, Factor: 0.000001},

	// === PERCENTAGE ===
	"%": {CanonicalCode: "%", Dimension: DimensionPercentage, Factor: 1},

	// === RATE ===
	"/min": {CanonicalCode: "/min", Dimension: DimensionRate, Factor: 1},
	"/h":   {CanonicalCode: "/min", Dimension: DimensionRate, Factor: 1.0 / 60.0},

	// === INTERNATIONAL UNITS ===
	"[IU]":     {CanonicalCode: "[IU]", Dimension: DimensionIU, Factor: 1},
	"[IU]/L":   {CanonicalCode: "[IU]/L", Dimension: DimensionIU, Factor: 1},
	"[IU]/mL":  {CanonicalCode: "[IU]/L", Dimension: DimensionIU, Factor: 1000},
	"m[IU]/L":  {CanonicalCode: "[IU]/L", Dimension: DimensionIU, Factor: 0.001},
	"m[IU]/mL": {CanonicalCode: "[IU]/L", Dimension: DimensionIU, Factor: 1},
	"u[IU]/mL": {CanonicalCode: "[IU]/L", Dimension: DimensionIU, Factor: 0.001},

	// === ENERGY ===
	"J":     {CanonicalCode: "J", Dimension: DimensionEnergy, Factor: 1},
	"kJ":    {CanonicalCode: "J", Dimension: DimensionEnergy, Factor: 1000},
	"cal":   {CanonicalCode: "J", Dimension: DimensionEnergy, Factor: 4.184},
	"kcal":  {CanonicalCode: "J", Dimension: DimensionEnergy, Factor: 4184},
	"[Cal]": {CanonicalCode: "J", Dimension: DimensionEnergy, Factor: 4184},

	// === CALENDAR DURATION KEYWORDS (paired with their UCUM codes, per
	// original_source/'s calendar-duration pairing; see SPEC_FULL.md
	// Supplemented Features) ===
	"year":         {CanonicalCode: "s", Dimension: DimensionTime, Factor: 31557600},
	"years":        {CanonicalCode: "s", Dimension: DimensionTime, Factor: 31557600},
	"month":        {CanonicalCode: "s", Dimension: DimensionTime, Factor: 2629800},
	"months":       {CanonicalCode: "s", Dimension: DimensionTime, Factor: 2629800},
	"week":         {CanonicalCode: "s", Dimension: DimensionTime, Factor: 604800},
	"weeks":        {CanonicalCode: "s", Dimension: DimensionTime, Factor: 604800},
	"day":          {CanonicalCode: "s", Dimension: DimensionTime, Factor: 86400},
	"days":         {CanonicalCode: "s", Dimension: DimensionTime, Factor: 86400},
	"hour":         {CanonicalCode: "s", Dimension: DimensionTime, Factor: 3600},
	"hours":        {CanonicalCode: "s", Dimension: DimensionTime, Factor: 3600},
	"minute":       {CanonicalCode: "s", Dimension: DimensionTime, Factor: 60},
	"minutes":      {CanonicalCode: "s", Dimension: DimensionTime, Factor: 60},
	"second":       {CanonicalCode: "s", Dimension: DimensionTime, Factor: 1},
	"seconds":      {CanonicalCode: "s", Dimension: DimensionTime, Factor: 1},
	"millisecond":  {CanonicalCode: "s", Dimension: DimensionTime, Factor: 0.001},
	"milliseconds": {CanonicalCode: "s", Dimension: DimensionTime, Factor: 0.001},
}

// Normalize converts a quantity to its canonical UCUM form.
// Returns the original values if the unit is not recognized.
func Normalize(value float64, code string) NormalizedQuantity {
	if conv, ok := canonicalUnits[code]; ok {
		return NormalizedQuantity{Value: value * conv.Factor, Code: conv.CanonicalCode}
	}

	for ucumCode, conv := range canonicalUnits {
		if strings.EqualFold(ucumCode, code) {
			return NormalizedQuantity{Value: value * conv.Factor, Code: conv.CanonicalCode}
		}
	}

	return NormalizedQuantity{Value: value, Code: code}
}

// NormalizeWithSystem converts a quantity considering both system and code.
// For UCUM system (http://unitsofmeasure.org), it applies normalization.
// For other systems, it returns values unchanged.
func NormalizeWithSystem(value float64, system, code string) NormalizedQuantity {
	if system != "" && system != "http://unitsofmeasure.org" {
		return NormalizedQuantity{Value: value, Code: code}
	}
	return Normalize(value, code)
}

// IsKnownUnit returns true if the unit code is recognized for normalization.
func IsKnownUnit(code string) bool {
	if _, ok := canonicalUnits[code]; ok {
		return true
	}
	for ucumCode := range canonicalUnits {
		if strings.EqualFold(ucumCode, code) {
			return true
		}
	}
	return false
}

// GetCanonicalUnit returns the canonical unit for a given code.
// Returns the original code if not found.
func GetCanonicalUnit(code string) string {
	if conv, ok := canonicalUnits[code]; ok {
		return conv.CanonicalCode
	}
	for ucumCode, conv := range canonicalUnits {
		if strings.EqualFold(ucumCode, code) {
			return conv.CanonicalCode
		}
	}
	return code
}

// GetDimension returns the dimension bucket name for a unit code, or ""
// if the unit is not recognized (an opaque per-unit bucket — two
// unknown units are only dimensionally compatible if their codes are
// identical, per spec.md §3.3).
func GetDimension(code string) string {
	if conv, ok := canonicalUnits[code]; ok {
		return conv.Dimension
	}
	for ucumCode, conv := range canonicalUnits {
		if strings.EqualFold(ucumCode, code) {
			return conv.Dimension
		}
	}
	return ""
}
