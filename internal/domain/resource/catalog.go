package resource

import (
	"errors"
	"math"
	"strings"

	"villagelife/internal/domain/issue"
)

type Category string

const (
	CategoryBasic    Category = "BASIC"
	CategoryFood     Category = "FOOD"
	CategoryCrafting Category = "CRAFTING"
	CategoryTools    Category = "TOOLS"
	CategoryAdvanced Category = "ADVANCED"
	CategorySpecial  Category = "SPECIAL"
)

type Type string

const (
	Wood           Type = "WOOD"
	Stone          Type = "STONE"
	Metal          Type = "METAL"
	Herbs          Type = "HERBS"
	Water          Type = "WATER"
	Food           Type = "FOOD"
	Meat           Type = "MEAT"
	Fish           Type = "FISH"
	Crops          Type = "CROPS"
	Seeds          Type = "SEEDS"
	Leather        Type = "LEATHER"
	Cloth          Type = "CLOTH"
	Paper          Type = "PAPER"
	Ink            Type = "INK"
	Gems           Type = "GEMS"
	Glass          Type = "GLASS"
	Tools          Type = "TOOLS"
	Weapons        Type = "WEAPONS"
	Armor          Type = "ARMOR"
	Furniture      Type = "FURNITURE"
	Containers     Type = "CONTAINERS"
	RefinedMetal   Type = "REFINED_METAL"
	RefinedWood    Type = "REFINED_WOOD"
	RefinedStone   Type = "REFINED_STONE"
	RefinedGems    Type = "REFINED_GEMS"
	RefinedGlass   Type = "REFINED_GLASS"
	Artifacts      Type = "ARTIFACTS"
	Books          Type = "BOOKS"
	Scrolls        Type = "SCROLLS"
	Potions        Type = "POTIONS"
	Decorations    Type = "DECORATIONS"
	Axe            Type = "AXE"
	Pickaxe        Type = "PICKAXE"
	Shovel         Type = "SHOVEL"
	Hammer         Type = "HAMMER"
	Saw            Type = "SAW"
	Mallet         Type = "MALLET"
	SmithingHammer Type = "SMITHING_HAMMER"
)

var ErrUnknownType = errors.New("unknown resource type")

// Properties are the intrinsic, immutable attributes of a resource type.
// DecayRate is the fraction of a stack lost per game day.
type Properties struct {
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	BaseValue     float64  `json:"base_value"`
	DecayRate     float64  `json:"decay_rate"`
	QualityImpact float64  `json:"quality_impact"`
	Stackable     bool     `json:"stackable"`
	MaxStack      int      `json:"max_stack"`
	Weight        float64  `json:"weight"`
}

// Value of quantity units at the given quality. Quality above 0.5 raises
// value, below lowers it, scaled by QualityImpact.
func (p Properties) Value(quantity, quality float64) float64 {
	base := p.BaseValue * quantity
	return math.Max(0, base+base*(quality-0.5)*p.QualityImpact)
}

func props(name string, cat Category, value, decay, impact float64, maxStack int, weight float64) Properties {
	return Properties{
		Name:          name,
		Category:      cat,
		BaseValue:     value,
		DecayRate:     decay,
		QualityImpact: impact,
		Stackable:     true,
		MaxStack:      maxStack,
		Weight:        weight,
	}
}

var order = []Type{
	Wood, Stone, Metal, Herbs, Water,
	Food, Meat, Fish, Crops, Seeds,
	Leather, Cloth, Paper, Ink, Gems, Glass,
	Tools, Weapons, Armor, Furniture, Containers,
	RefinedMetal, RefinedWood, RefinedStone, RefinedGems, RefinedGlass,
	Artifacts, Books, Scrolls, Potions, Decorations,
	Axe, Pickaxe, Shovel, Hammer, Saw, Mallet, SmithingHammer,
}

var catalog = map[Type]Properties{
	Wood:  props("Wood", CategoryBasic, 1.0, 0.0, 0.5, 100, 2.0),
	Stone: props("Stone", CategoryBasic, 1.0, 0.0, 0.3, 100, 3.0),
	Metal: props("Metal", CategoryBasic, 2.0, 0.0, 0.7, 50, 4.0),
	Herbs: props("Herbs", CategoryBasic, 2.0, 0.1, 0.8, 50, 0.5),
	Water: props("Water", CategoryBasic, 0.5, 0.0, 0.3, 100, 1.0),

	Food:  props("Food", CategoryFood, 2.0, 0.2, 0.8, 50, 1.0),
	Meat:  props("Meat", CategoryFood, 3.0, 0.3, 0.9, 30, 1.5),
	Fish:  props("Fish", CategoryFood, 2.5, 0.25, 0.8, 40, 1.0),
	Crops: props("Crops", CategoryFood, 1.5, 0.15, 0.7, 50, 1.0),
	Seeds: props("Seeds", CategoryFood, 1.0, 0.05, 0.6, 100, 0.1),

	Leather: props("Leather", CategoryCrafting, 3.0, 0.05, 0.7, 40, 1.0),
	Cloth:   props("Cloth", CategoryCrafting, 2.5, 0.05, 0.6, 50, 0.5),
	Paper:   props("Paper", CategoryCrafting, 1.5, 0.1, 0.4, 100, 0.2),
	Ink:     props("Ink", CategoryCrafting, 3.0, 0.1, 0.5, 20, 0.2),
	Gems:    props("Gems", CategoryCrafting, 10.0, 0.0, 1.0, 10, 0.1),
	Glass:   props("Glass", CategoryCrafting, 2.0, 0.0, 0.8, 30, 1.0),

	Tools:      props("Tools", CategoryTools, 5.0, 0.1, 0.9, 10, 2.0),
	Weapons:    props("Weapons", CategoryTools, 8.0, 0.05, 1.0, 5, 3.0),
	Armor:      props("Armor", CategoryTools, 10.0, 0.05, 1.0, 5, 5.0),
	Furniture:  props("Furniture", CategoryTools, 6.0, 0.02, 0.8, 5, 8.0),
	Containers: props("Containers", CategoryTools, 4.0, 0.02, 0.6, 10, 2.0),

	RefinedMetal: props("Refined Metal", CategoryAdvanced, 5.0, 0.0, 0.9, 20, 3.0),
	RefinedWood:  props("Refined Wood", CategoryAdvanced, 3.0, 0.0, 0.8, 30, 1.5),
	RefinedStone: props("Refined Stone", CategoryAdvanced, 3.0, 0.0, 0.7, 30, 2.5),
	RefinedGems:  props("Refined Gems", CategoryAdvanced, 20.0, 0.0, 1.0, 5, 0.1),
	RefinedGlass: props("Refined Glass", CategoryAdvanced, 5.0, 0.0, 0.9, 15, 0.8),

	Artifacts:   props("Artifacts", CategorySpecial, 50.0, 0.01, 1.0, 1, 1.0),
	Books:       props("Books", CategorySpecial, 15.0, 0.02, 0.8, 10, 1.0),
	Scrolls:     props("Scrolls", CategorySpecial, 20.0, 0.05, 0.9, 5, 0.2),
	Potions:     props("Potions", CategorySpecial, 25.0, 0.1, 1.0, 5, 0.5),
	Decorations: props("Decorations", CategorySpecial, 10.0, 0.01, 0.7, 10, 1.0),

	Axe:            props("Axe", CategoryTools, 8.0, 0.05, 1.0, 5, 3.0),
	Pickaxe:        props("Pickaxe", CategoryTools, 8.0, 0.05, 1.0, 5, 3.0),
	Shovel:         props("Shovel", CategoryTools, 6.0, 0.05, 0.9, 5, 2.5),
	Hammer:         props("Hammer", CategoryTools, 7.0, 0.05, 0.9, 5, 2.0),
	Saw:            props("Saw", CategoryTools, 7.0, 0.05, 0.9, 5, 2.0),
	Mallet:         props("Mallet", CategoryTools, 5.0, 0.05, 0.8, 5, 1.5),
	SmithingHammer: props("Smithing Hammer", CategoryTools, 10.0, 0.05, 1.0, 3, 3.0),
}

// Types lists every resource type in catalog order.
func Types() []Type {
	out := make([]Type, len(order))
	copy(out, order)
	return out
}

func (t Type) Valid() bool {
	_, ok := catalog[t]
	return ok
}

func (t Type) Properties() (Properties, bool) {
	p, ok := catalog[t]
	return p, ok
}

func (t Type) String() string { return string(t) }

// ParseType accepts the canonical upper-case name; lower-case and
// space-separated spellings ("refined metal") are normalized first.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_")))
	if !t.Valid() {
		return "", &issue.UnknownName{Kind: "resource type", Name: name, Err: ErrUnknownType}
	}
	return t, nil
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ByCategory returns the types of one category in catalog order.
func ByCategory(c Category) []Type {
	out := []Type{}
	for _, t := range order {
		if catalog[t].Category == c {
			out = append(out, t)
		}
	}
	return out
}
