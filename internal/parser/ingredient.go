package parser

import (
	"regexp"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
)

// Quantity grammar: plain number, decimal, fraction, mixed number, or a
// range. Ranges are preserved as strings; the store coerces to the low end.
var (
	amountRe = regexp.MustCompile(`^\s*(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?\s*-\s*\d+(?:\.\d+)?|\d+(?:\.\d+)?|[½⅓⅔¼¾⅛])\s*`)

	// Quantity glued to its unit, "4oz", "200g", "250ml".
	gluedUnitRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)([a-zA-Z]+)$`)

	// Parenthesized quantity, "flour (2 cups)".
	parenAmountRe = regexp.MustCompile(`\(([^)]*\d[^)]*)\)`)

	bulletPrefixRe = regexp.MustCompile(`^\s*(?:[-*•・+]|\d+[.)])\s*`)
)

var unicodeFractions = map[string]string{
	"½": "1/2", "⅓": "1/3", "⅔": "2/3", "¼": "1/4", "¾": "3/4", "⅛": "1/8",
}

// ParseIngredientSmart turns one candidate line into an ingredient row.
// It never fails; a line with no recognizable quantity becomes an item-only
// row and the filter decides whether it survives.
func ParseIngredientSmart(line string) recipe.Ingredient {
	text := strings.TrimSpace(bulletPrefixRe.ReplaceAllString(line, ""))
	if text == "" {
		return recipe.Ingredient{}
	}

	// "flour (2 cups), sifted" puts the quantity in parentheses.
	if m := parenAmountRe.FindStringSubmatch(text); m != nil {
		inner := strings.TrimSpace(m[1])
		if amountRe.MatchString(inner) {
			item := strings.TrimSpace(parenAmountRe.ReplaceAllString(text, ""))
			item, notes := splitNotes(item)
			ing := parseQuantity(inner)
			ing.Item = item
			if notes != "" {
				ing.Notes = notes
			}
			return ing
		}
	}

	fields := strings.Fields(text)
	if m := gluedUnitRe.FindStringSubmatch(fields[0]); m != nil {
		if info, ok := LookupUnit(m[2]); ok {
			item, notes := splitNotes(strings.Join(fields[1:], " "))
			return recipe.Ingredient{Item: item, Amount: m[1], Unit: info.Canonical, Notes: notes}
		}
	}

	loc := amountRe.FindStringIndex(text)
	if loc == nil {
		item, notes := splitNotes(text)
		return recipe.Ingredient{Item: item, Notes: notes}
	}

	amount := normalizeFraction(strings.TrimSpace(text[loc[0]:loc[1]]))
	rest := strings.TrimSpace(text[loc[1]:])
	if rest == "" {
		return recipe.Ingredient{Item: text}
	}

	restFields := strings.Fields(rest)
	first := restFields[0]

	// "1 fl oz gin"
	if strings.EqualFold(first, "fl") && len(restFields) > 1 && strings.EqualFold(strings.TrimRight(restFields[1], ".,"), "oz") {
		item, notes := splitNotes(strings.Join(restFields[2:], " "))
		return recipe.Ingredient{Item: item, Amount: amount, Unit: "fl oz", Notes: notes}
	}

	if info, ok := LookupUnit(first); ok {
		item, notes := splitNotes(strings.Join(restFields[1:], " "))
		return recipe.Ingredient{
			Item:   item,
			Amount: amount,
			Unit:   info.Canonical,
			Notes:  notes,
		}
	}

	// Not a known unit. A capitalized token right after the quantity is the
	// ingredient itself ("1 Eggplant cut into cubes"), with the remainder as
	// preparation notes.
	if isCapitalized(first) {
		return recipe.Ingredient{
			Item:   strings.TrimRight(first, ".,"),
			Amount: amount,
			Notes:  strings.Join(restFields[1:], " "),
		}
	}

	item, notes := splitNotes(rest)
	return recipe.Ingredient{Item: item, Amount: amount, Notes: notes}
}

// parseQuantity extracts amount and optional unit from a bare quantity
// string such as "2 cups" or "1/2".
func parseQuantity(s string) recipe.Ingredient {
	loc := amountRe.FindStringIndex(s)
	if loc == nil {
		return recipe.Ingredient{Amount: strings.TrimSpace(s)}
	}
	amount := normalizeFraction(strings.TrimSpace(s[loc[0]:loc[1]]))
	rest := strings.TrimSpace(s[loc[1]:])
	if rest == "" {
		return recipe.Ingredient{Amount: amount}
	}
	if info, ok := LookupUnit(rest); ok {
		return recipe.Ingredient{Amount: amount, Unit: info.Canonical}
	}
	return recipe.Ingredient{Amount: amount, Notes: rest}
}

// splitNotes separates "flour, sifted" into the item and its notes.
func splitNotes(s string) (item, notes string) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func normalizeFraction(s string) string {
	if ascii, ok := unicodeFractions[s]; ok {
		return ascii
	}
	// Collapse "2 - 4" to "2-4"
	return strings.ReplaceAll(strings.ReplaceAll(s, " -", "-"), "- ", "-")
}

func isCapitalized(s string) bool {
	if s == "" {
		return false
	}
	first := rune(s[0])
	return first >= 'A' && first <= 'Z'
}
