package parser

import (
	"regexp"
	"strings"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"go.uber.org/zap"
)

// Caps keep pathological posts from producing absurd records.
const (
	maxIngredients  = 30
	maxInstructions = 30
)

// Local is the pattern-based extraction track. It makes no network calls,
// never fails on malformed input, and leaves rejection to the validator.
type Local struct {
	logger *zap.Logger
}

// NewLocal creates the pattern-based parser.
func NewLocal(logger *zap.Logger) *Local {
	return &Local{logger: logger.Named("local-parser")}
}

var (
	titlePrefixRe   = regexp.MustCompile(`(?im)^\s*(?:title|recipe)\s*:\s*(.+)$`)
	headingTitleRe  = regexp.MustCompile(`(?m)^\s*#{1,3}\s*(.+)$`)
	boldTitleRe     = regexp.MustCompile(`(?m)^\s*\*\*([^*]{3,150})\*\*\s*$`)
	sectionHeaderRe = regexp.MustCompile(`(?i)^\s*(?:#+\s*|\*\*)?\s*(ingredients?|instructions?|directions?|method|preparation)\b[:*\s]*$`)

	prepTimeRe   = regexp.MustCompile(`(?i)prep(?:aration)?\s*time\s*:?\s*([^\n|]+)`)
	cookTimeRe   = regexp.MustCompile(`(?i)cook(?:ing)?\s*time\s*:?\s*([^\n|]+)`)
	totalTimeRe  = regexp.MustCompile(`(?i)total\s*time\s*:?\s*([^\n|]+)`)
	servingsRe   = regexp.MustCompile(`(?i)(?:servings?|serves|yield)\s*:?\s*([^\n|]+)`)
	difficultyRe = regexp.MustCompile(`(?i)difficulty\s*:?\s*([^\n|]+)`)

	instructionLineRe = regexp.MustCompile(`^\s*(?:\d+[.)]\s*|[-*•]\s*)`)
)

// Parse extracts a best-effort recipe from free-form text.
func (p *Local) Parse(text string) *recipe.Recipe {
	r := &recipe.Recipe{}
	r.Title = p.extractTitle(text)

	ingredientLines, instructionLines := p.splitSections(text)
	if len(ingredientLines) == 0 && len(instructionLines) == 0 {
		ingredientLines, instructionLines = p.guessSections(text)
	}

	ings := make([]recipe.Ingredient, 0, len(ingredientLines))
	for _, line := range ingredientLines {
		if len(ings) >= maxIngredients {
			break
		}
		ing := ParseIngredientSmart(line)
		if ing.Item != "" {
			ings = append(ings, ing)
		}
	}
	r.Ingredients = FilterIngredients(ings)

	for _, line := range instructionLines {
		if len(r.Instructions) >= maxInstructions {
			break
		}
		step := strings.TrimSpace(instructionLineRe.ReplaceAllString(line, ""))
		step = recipe.StripMarkdown(step)
		if step != "" {
			r.Instructions = append(r.Instructions, step)
		}
	}

	p.extractMetadata(text, r)
	r.Normalize()
	return r
}

// extractTitle tries, in order: an explicit Title:/Recipe: prefix, a markdown
// heading, a bold standalone line, then the first substantial line.
func (p *Local) extractTitle(text string) string {
	if m := titlePrefixRe.FindStringSubmatch(text); m != nil {
		return recipe.StripMarkdown(m[1])
	}
	if m := headingTitleRe.FindStringSubmatch(text); m != nil {
		return recipe.StripMarkdown(m[1])
	}
	if m := boldTitleRe.FindStringSubmatch(text); m != nil {
		return recipe.StripMarkdown(m[1])
	}
	for _, line := range strings.Split(text, "\n") {
		candidate := recipe.StripMarkdown(line)
		if len(candidate) >= 10 && len(candidate) <= 150 && !sectionHeaderRe.MatchString(line) {
			return candidate
		}
	}
	return "Untitled Recipe"
}

// splitSections walks the text line by line, routing lines to the section
// opened by the last heading. The ・ bullet packs several ingredients into
// one physical line, so those are expanded first.
func (p *Local) splitSections(text string) (ingredients, instructions []string) {
	section := ""
	for _, raw := range strings.Split(text, "\n") {
		if m := sectionHeaderRe.FindStringSubmatch(raw); m != nil {
			switch strings.ToLower(m[1])[:1] {
			case "i":
				if strings.HasPrefix(strings.ToLower(m[1]), "ingredient") {
					section = "ingredients"
				} else {
					section = "instructions"
				}
			default:
				section = "instructions"
			}
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch section {
		case "ingredients":
			ingredients = append(ingredients, expandInlineBullets(line)...)
		case "instructions":
			instructions = append(instructions, line)
		}
	}
	return ingredients, instructions
}

// guessSections handles posts without headings: bullet or quantity-led lines
// are ingredient candidates, sentence-like lines are instructions.
func (p *Local) guessSections(text string) (ingredients, instructions []string) {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for _, candidate := range expandInlineBullets(line) {
			if bulletPrefixRe.MatchString(raw) || amountRe.MatchString(candidate) {
				ingredients = append(ingredients, candidate)
			} else if len(strings.Fields(candidate)) >= 5 {
				instructions = append(instructions, candidate)
			}
		}
	}
	return ingredients, instructions
}

func expandInlineBullets(line string) []string {
	if !strings.Contains(line, "・") {
		return []string{line}
	}
	parts := strings.Split(line, "・")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (p *Local) extractMetadata(text string, r *recipe.Recipe) {
	if m := prepTimeRe.FindStringSubmatch(text); m != nil {
		r.PrepMinutes = recipe.CoerceMinutes(m[1])
	}
	if m := cookTimeRe.FindStringSubmatch(text); m != nil {
		r.CookMinutes = recipe.CoerceMinutes(m[1])
	}
	if m := totalTimeRe.FindStringSubmatch(text); m != nil {
		r.TotalMinutes = recipe.CoerceMinutes(m[1])
	}
	if r.TotalMinutes == nil && r.PrepMinutes != nil && r.CookMinutes != nil {
		total := *r.PrepMinutes + *r.CookMinutes
		r.TotalMinutes = &total
	}
	if m := servingsRe.FindStringSubmatch(text); m != nil {
		r.Servings = recipe.CoerceServings(m[1])
	}
	if m := difficultyRe.FindStringSubmatch(text); m != nil {
		r.Difficulty = recipe.NormalizeDifficulty(m[1])
	}
	if r.Difficulty == "" {
		r.Difficulty = inferDifficulty(text)
	}
	r.CuisineType = inferCuisine(r.Title, text)
	r.MealType = scoreMealType(r.Title, text)
	r.DietaryTags = inferDietaryTags(text, r.Ingredients)
}
