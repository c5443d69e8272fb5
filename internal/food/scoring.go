package food

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed scoring.yaml
var defaultScoringYAML []byte

// ScoringTable drives keyword tie-breaking. FoodTypes is the set of
// place types considered food-serving; Cuisine maps a place type to the
// free-text vocabulary it implies, so a "seafood" or "crab" keyword can
// boost a seafood_restaurant candidate whose name mentions neither.
type ScoringTable struct {
	FoodTypes []string            `yaml:"food_types"`
	Cuisine   map[string][]string `yaml:"cuisine"`
}

// DefaultScoringTable parses the embedded scoring table.
func DefaultScoringTable() (*ScoringTable, error) {
	var table ScoringTable
	if err := yaml.Unmarshal(defaultScoringYAML, &table); err != nil {
		return nil, eris.Wrap(err, "food: parse embedded scoring table")
	}
	return &table, nil
}

// IsFoodType reports whether a place type is in the food-serving set.
func (t *ScoringTable) IsFoodType(placeType string) bool {
	for _, ft := range t.FoodTypes {
		if ft == placeType {
			return true
		}
	}
	return false
}
