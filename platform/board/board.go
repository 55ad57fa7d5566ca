package board

import (
	_ "embed"
	"encoding/json"
	"errors"
	"sync"
)

const (
	BoardSize        = 40
	GoPosition       = 0
	JailPosition     = 10
	GoToJailPosition = 30

	// Shared building pool across all players.
	HouseCap = 32
	HotelCap = 12

	GroupRailroad = "railroad"
	GroupUtility  = "utility"
)

// PropertyDefinition is static board data, shared and never mutated.
// Rent has six entries for streets (base through hotel), four for railroads
// (indexed by railroads owned), and none for utilities (dice-dependent).
type PropertyDefinition struct {
	Name      string `json:"name"`
	Group     string `json:"group"`
	Position  int    `json:"position"`
	Price     int    `json:"price"`
	Rent      []int  `json:"rent"`
	HouseCost int    `json:"housecost"`
}

// Buildable reports whether houses can ever be placed on this property.
func (d PropertyDefinition) Buildable() bool {
	return d.Group != GroupRailroad && d.Group != GroupUtility
}

//go:embed properties.json
var propertiesJSON []byte

var (
	loadOnce   sync.Once
	properties []PropertyDefinition
	byName     map[string]PropertyDefinition
	byPosition map[int]PropertyDefinition
)

func load() {
	loadOnce.Do(func() {
		if err := json.Unmarshal(propertiesJSON, &properties); err != nil {
			panic(err)
		}
		byName = make(map[string]PropertyDefinition, len(properties))
		byPosition = make(map[int]PropertyDefinition, len(properties))
		for _, p := range properties {
			byName[p.Name] = p
			byPosition[p.Position] = p
		}
	})
}

var ErrNotFound = errors.New("property not found")

// Properties returns every purchasable definition on the board.
func Properties() []PropertyDefinition {
	load()
	return properties
}

func ByName(name string) (PropertyDefinition, error) {
	load()
	p, ok := byName[name]
	if !ok {
		return PropertyDefinition{}, ErrNotFound
	}
	return p, nil
}

// ByPosition returns the purchasable property at a board position, if any.
func ByPosition(pos int) (PropertyDefinition, bool) {
	load()
	p, ok := byPosition[pos]
	return p, ok
}

// GroupMembers returns every definition sharing a group tag.
func GroupMembers(group string) []PropertyDefinition {
	load()
	var out []PropertyDefinition
	for _, p := range properties {
		if p.Group == group {
			out = append(out, p)
		}
	}
	return out
}

// NearestInGroup walks forward from pos (exclusive, wrapping) to the next
// property of the given group.
func NearestInGroup(pos int, group string) (PropertyDefinition, bool) {
	load()
	for i := 1; i <= BoardSize; i++ {
		p, ok := byPosition[(pos+i)%BoardSize]
		if ok && p.Group == group {
			return p, true
		}
	}
	return PropertyDefinition{}, false
}
