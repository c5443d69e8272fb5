package model

import "strings"

// Classification is the closed set of photo labels that drive routing.
type Classification string

const (
	ClassScenery     Classification = "scenery"
	ClassFood        Classification = "food"
	ClassCollectible Classification = "collectible"
	ClassPeople      Classification = "people"
	ClassPets        Classification = "pets"
	ClassDocuments   Classification = "documents"
	ClassOther       Classification = "other"
)

// AllClassifications returns every valid classification.
func AllClassifications() []Classification {
	return []Classification{
		ClassScenery,
		ClassFood,
		ClassCollectible,
		ClassPeople,
		ClassPets,
		ClassDocuments,
		ClassOther,
	}
}

// substringLabels maps substrings of free-form model labels to the closed
// enum. Checked in order; "collect" covers collectible/collectables/
// "Collectible comics" and similar variants.
var substringLabels = []struct {
	substr string
	class  Classification
}{
	{"collect", ClassCollectible},
	{"food", ClassFood},
	{"restaurant", ClassFood},
	{"meal", ClassFood},
	{"scenery", ClassScenery},
	{"landscape", ClassScenery},
	{"scenic", ClassScenery},
	{"people", ClassPeople},
	{"person", ClassPeople},
	{"portrait", ClassPeople},
	{"pet", ClassPets},
	{"animal", ClassPets},
	{"document", ClassDocuments},
	{"receipt", ClassDocuments},
}

// NormalizeClassification maps a free-form label from the classifier onto
// the closed enum. Every input maps to exactly one classification; labels
// with no match become ClassOther so routing stays total.
func NormalizeClassification(label string) Classification {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return ClassOther
	}
	for _, c := range AllClassifications() {
		if normalized == string(c) {
			return c
		}
	}
	for _, m := range substringLabels {
		if strings.Contains(normalized, m.substr) {
			return m.class
		}
	}
	return ClassOther
}
