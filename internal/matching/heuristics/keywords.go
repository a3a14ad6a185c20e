package heuristics

// Keyword vocabularies used by the text heuristics. Entries are lower case and
// may contain spaces; matching is done on normalized text.
var (
	DietKeywords = []string{"vegan", "vegetarian", "plant-based", "flexitarian", "raw vegan", "whole food"}

	MotivationKeywords = []string{"animals", "environment", "health", "ethics", "spiritual", "climate"}

	AnimalKeywords        = []string{"animals", "animal rights", "cruelty", "compassion", "sanctuary", "welfare", "ethics"}
	EnvironmentalKeywords = []string{"environment", "climate", "sustainable", "sustainability", "planet", "zero waste", "emissions"}
	HealthKeywords        = []string{"health", "wellness", "fitness", "nutrition", "energy", "healing", "whole food"}

	LifestyleKeywords = []string{"sustainable", "organic", "local", "zero waste", "mindful", "compassionate"}

	ActivismKeywords = []string{"activism", "activist", "volunteering", "volunteer", "protest", "advocacy", "outreach", "campaign"}
)

// Interest tag categories. A tag may sit in more than one category.
var (
	activeInterests = setOf("hiking", "running", "cycling", "climbing", "yoga", "dancing", "sports",
		"travel", "festivals", "activism", "volunteering", "community-gardening", "swimming")
	quietInterests = setOf("reading", "meditation", "cooking", "baking", "gardening", "art",
		"writing", "movies", "music", "crafts", "photography")
	socialInterests = setOf("potlucks", "festivals", "dancing", "activism", "volunteering", "travel",
		"community-gardening", "sports", "dining-out")
	soloInterests = setOf("reading", "writing", "meditation", "art", "crafts", "baking", "photography")
	activismTags  = setOf("activism", "volunteering", "community-gardening", "animal-sanctuary")
)

func setOf(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}
