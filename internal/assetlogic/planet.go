package assetlogic

import (
	"fmt"
	"math/rand"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

const TypePlanet = "PLANET"

const (
	planetSurveyCost    = 10.0
	planetSurveyChance  = 0.15
	planetScanCost      = 5.0
	planetTraitChance   = 0.6
	planetNameMinLength = 2
	planetNameMaxLength = 20
)

var starClasses = []string{"M", "K", "G", "F", "A", "B", "O"}
var starClassWeights = []int{30, 25, 20, 15, 7, 2, 1}
var starClassRarity = map[string]float64{
	"M": 5, "K": 8, "G": 15, "F": 25, "A": 40, "B": 70, "O": 100,
}

var orbitalZones = []string{"SCORCHED", "HABITABLE", "FRIGID"}

// hotter stars push the habitable band outward, so the zone odds shift
// with the star class
var zoneWeightsByClass = map[string][]int{
	"M": {20, 30, 50},
	"K": {25, 35, 40},
	"G": {30, 40, 30},
	"F": {35, 35, 30},
	"A": {45, 30, 25},
	"B": {55, 25, 20},
	"O": {65, 20, 15},
}

var planetTypesByZone = map[string][]string{
	"SCORCHED":  {"LAVA", "BARREN", "METALLIC"},
	"HABITABLE": {"TERRAN", "OCEANIC", "JUNGLE"},
	"FRIGID":    {"ICE", "GAS_GIANT", "BARREN"},
}

type anomalySpec struct {
	traits      []string
	rarityBonus float64
}

var anomalies = map[string]anomalySpec{
	"GEO_ACTIVITY":   {traits: []string{"VOLCANIC_VENTS", "CRYSTAL_CAVES"}, rarityBonus: 50},
	"HIGH_ENERGY":    {traits: []string{"AURORAL_STORMS", "ION_WINDS"}, rarityBonus: 100},
	"BIO_SIGN":       {traits: []string{"MICROBIAL_MATS", "SPORE_CLOUDS"}, rarityBonus: 80},
	"RHYTHMIC_PULSE": {traits: []string{"TIDAL_RESONANCE", "DEEP_HUM"}, rarityBonus: 120},
}

var anomalyNames = []string{"GEO_ACTIVITY", "HIGH_ENERGY", "BIO_SIGN", "RHYTHMIC_PULSE"}
var anomalyCountWeights = []int{40, 50, 10} // 0, 1 or 2 anomalies

// planet is a probabilistic shop type: paying for a survey may or may
// not discover one.
type planet struct {
	base
}

func init() {
	Register(&planet{})
}

func (h *planet) Type() string        { return TypePlanet }
func (h *planet) DisplayName() string { return "Planet" }

func (h *planet) ShopConfig() *ShopConfig {
	return &ShopConfig{
		Creatable:   true,
		Cost:        planetSurveyCost,
		Name:        "Deep Space Survey",
		ActionKind:  ShopActionProbabilistic,
		Description: "Point the telescope at an empty patch of sky. Most surveys find nothing.",
	}
}

func (h *planet) Mint(owner string, ownerName string, input map[string]any) (map[string]any, error) {
	data := generatePlanet(ownerName)
	if name := inputString(input, "name"); name != "" {
		data["name"] = name
	}
	return data, nil
}

func (h *planet) ExecuteShopAction(tx *sqlx.Tx, owner string, ownerName string, input map[string]any) (string, string, error) {
	if rand.Float64() >= planetSurveyChance {
		return "The survey found nothing but empty sky.", "", nil
	}

	data := generatePlanet(ownerName)
	assetID, err := mintAssetTx(tx, owner, TypePlanet, data)
	if err != nil {
		return "", "", err
	}
	detail := fmt.Sprintf("Discovery! A class %s system with a %s world. Rarity %.0f.",
		dataString(data, "star_class"), dataString(data, "planet_type"),
		dataFloat(data["rarity_score"].(map[string]any), "total"))
	return detail, assetID, nil
}

func generatePlanet(discoveredBy string) map[string]any {
	class := starClasses[weightedIndex(starClassWeights)]
	zone := orbitalZones[weightedIndex(zoneWeightsByClass[class])]
	types := planetTypesByZone[zone]
	planetType := types[rand.Intn(len(types))]

	count := weightedIndex(anomalyCountWeights)
	found := []any{}
	for _, i := range rand.Perm(len(anomalyNames))[:count] {
		found = append(found, anomalyNames[i])
	}

	base := starClassRarity[class]
	return map[string]any{
		"name":          fmt.Sprintf("%s-%d", class, rand.Intn(9000)+1000),
		"star_class":    class,
		"orbital_zone":  zone,
		"planet_type":   planetType,
		"anomalies":     found,
		"traits":        []any{},
		"discovered_by": discoveredBy,
		"rarity_score": map[string]any{
			"base":   base,
			"traits": 0.0,
			"total":  base,
		},
	}
}

func (h *planet) ActionCost(a *model.Asset, action string) float64 {
	if action == "scan" {
		return planetScanCost
	}
	return 0
}

func (h *planet) ValidateAction(a *model.Asset, action string, input map[string]any, requester string) error {
	data := a.Data()
	switch action {
	case "rename":
		name := inputString(input, "name")
		if len(name) < planetNameMinLength || len(name) > planetNameMaxLength {
			return fmt.Errorf("%w: name must be %d to %d characters",
				model.ErrorMalformedMessage, planetNameMinLength, planetNameMaxLength)
		}
		return nil
	case "scan":
		if remaining, _ := data["anomalies"].([]any); len(remaining) == 0 {
			return fmt.Errorf("%w: no anomalies left to scan", model.ErrorUnknownAction)
		}
		return nil
	default:
		return model.ErrorUnknownAction
	}
}

func (h *planet) PerformAction(tx *sqlx.Tx, a *model.Asset, action string, input map[string]any, requester string) (*ActionResult, error) {
	data := a.Data()
	switch action {
	case "rename":
		data["name"] = inputString(input, "name")
		return &ActionResult{Updated: data, Detail: "Planet renamed."}, nil

	case "scan":
		remaining, _ := data["anomalies"].([]any)
		if len(remaining) == 0 {
			return nil, model.ErrorUnknownAction
		}
		name, _ := remaining[0].(string)
		data["anomalies"] = remaining[1:]

		spec := anomalies[name]
		detail := fmt.Sprintf("Scanned the %s anomaly. The readings were inconclusive.", name)
		if rand.Float64() < planetTraitChance {
			trait := spec.traits[rand.Intn(len(spec.traits))]
			traits, _ := data["traits"].([]any)
			data["traits"] = append(traits, trait)

			score, _ := data["rarity_score"].(map[string]any)
			if score == nil {
				score = map[string]any{"base": 0.0, "traits": 0.0, "total": 0.0}
			}
			traitScore := dataFloat(score, "traits") + spec.rarityBonus
			score["traits"] = traitScore
			score["total"] = dataFloat(score, "base") + traitScore
			data["rarity_score"] = score

			detail = fmt.Sprintf("Scan complete: the %s anomaly revealed %s (+%.0f rarity).",
				name, trait, spec.rarityBonus)
		}
		return &ActionResult{Updated: data, Detail: detail}, nil
	}
	return nil, model.ErrorUnknownAction
}

func (h *planet) TradeDescription(a *model.Asset) string {
	data := a.Data()
	score, _ := data["rarity_score"].(map[string]any)
	return fmt.Sprintf("%s, a %s world in a class %s system (rarity %.0f)",
		dataString(data, "name"), dataString(data, "planet_type"),
		dataString(data, "star_class"), dataFloat(score, "total"))
}

func (h *planet) AdminMintConfig() MintConfig {
	return MintConfig{
		HelpText:    "Leave the body empty for a random planet, or set name to override the generated one.",
		DefaultJSON: `{}`,
	}
}
