// Package parser extracts canonical recipes from free-form text.
// Two tracks share one output shape: a fast pattern-based track with no
// network calls, and a model-assisted track for low-quality sources.
package parser

import "strings"

// UnitType classifies a measurement for the store's measurements catalog.
type UnitType string

const (
	UnitVolume UnitType = "volume"
	UnitWeight UnitType = "weight"
	UnitCount  UnitType = "count"
)

// unitInfo is the canonical form of a measurement token.
type unitInfo struct {
	Canonical    string
	Abbreviation string
	Type         UnitType
}

// knownUnits maps every accepted spelling of a measurement to its canonical
// form. A token after a quantity that is not in this table and is capitalized
// is treated as the ingredient name, not a unit.
var knownUnits = map[string]unitInfo{
	// Volume
	"cup":         {"cup", "c", UnitVolume},
	"cups":        {"cup", "c", UnitVolume},
	"c":           {"cup", "c", UnitVolume},
	"tablespoon":  {"tablespoon", "tbsp", UnitVolume},
	"tablespoons": {"tablespoon", "tbsp", UnitVolume},
	"tbsp":        {"tablespoon", "tbsp", UnitVolume},
	"tbs":         {"tablespoon", "tbsp", UnitVolume},
	"teaspoon":    {"teaspoon", "tsp", UnitVolume},
	"teaspoons":   {"teaspoon", "tsp", UnitVolume},
	"tsp":         {"teaspoon", "tsp", UnitVolume},
	"milliliter":  {"milliliter", "ml", UnitVolume},
	"milliliters": {"milliliter", "ml", UnitVolume},
	"ml":          {"milliliter", "ml", UnitVolume},
	"liter":       {"liter", "l", UnitVolume},
	"liters":      {"liter", "l", UnitVolume},
	"litre":       {"liter", "l", UnitVolume},
	"litres":      {"liter", "l", UnitVolume},
	"l":           {"liter", "l", UnitVolume},
	"pint":        {"pint", "pt", UnitVolume},
	"pints":       {"pint", "pt", UnitVolume},
	"quart":       {"quart", "qt", UnitVolume},
	"quarts":      {"quart", "qt", UnitVolume},
	"gallon":      {"gallon", "gal", UnitVolume},
	"gallons":     {"gallon", "gal", UnitVolume},
	"pinch":       {"pinch", "pinch", UnitVolume},
	"pinches":     {"pinch", "pinch", UnitVolume},
	"dash":        {"dash", "dash", UnitVolume},
	"dashes":      {"dash", "dash", UnitVolume},

	// Weight
	"gram":      {"gram", "g", UnitWeight},
	"grams":     {"gram", "g", UnitWeight},
	"g":         {"gram", "g", UnitWeight},
	"kilogram":  {"kilogram", "kg", UnitWeight},
	"kilograms": {"kilogram", "kg", UnitWeight},
	"kg":        {"kilogram", "kg", UnitWeight},
	"pound":     {"pound", "lb", UnitWeight},
	"pounds":    {"pound", "lb", UnitWeight},
	"lb":        {"pound", "lb", UnitWeight},
	"lbs":       {"pound", "lb", UnitWeight},
	"ounce":     {"ounce", "oz", UnitWeight},
	"ounces":    {"ounce", "oz", UnitWeight},
	"oz":        {"ounce", "oz", UnitWeight},

	// Count
	"piece":    {"piece", "pc", UnitCount},
	"pieces":   {"piece", "pc", UnitCount},
	"pc":       {"piece", "pc", UnitCount},
	"whole":    {"whole", "whole", UnitCount},
	"can":      {"can", "can", UnitCount},
	"cans":     {"can", "can", UnitCount},
	"clove":    {"clove", "clove", UnitCount},
	"cloves":   {"clove", "clove", UnitCount},
	"slice":    {"slice", "slice", UnitCount},
	"slices":   {"slice", "slice", UnitCount},
	"bunch":    {"bunch", "bunch", UnitCount},
	"bunches":  {"bunch", "bunch", UnitCount},
	"package":  {"package", "pkg", UnitCount},
	"packages": {"package", "pkg", UnitCount},
	"item":     {"item", "item", UnitCount},
	"items":    {"item", "item", UnitCount},
}

// LookupUnit resolves a measurement token. "fl oz" is handled by the caller
// joining the two tokens before lookup.
func LookupUnit(token string) (unitInfo, bool) {
	info, ok := knownUnits[strings.ToLower(strings.TrimRight(token, ".,"))]
	return info, ok
}

// UnitTypeOf reports the catalog type for a unit token, defaulting to count.
func UnitTypeOf(token string) UnitType {
	if info, ok := LookupUnit(token); ok {
		return info.Type
	}
	return UnitCount
}
