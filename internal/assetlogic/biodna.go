package assetlogic

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
	"hearthcoin/internal/store"
)

const TypeBioDNA = "BIO_DNA"

// pet economy tuning
const (
	exploreCost      = 5.0
	exploreChance    = 0.1
	trainCostPerLvl  = 2.0
	xpPerTrain       = 25.0
	xpPerLevel       = 100.0
	harvestCooldown  = 60.0
	maxAccrualHours  = 12.0
	breedCooldown    = 8 * 3600.0
	maxBreedCount    = 3
	geneMutationRate = 0.05
)

var petRarities = []string{"COMMON", "RARE", "EPIC", "LEGENDARY"}
var petRarityWeights = []int{85, 12, 2, 1}
var petBaseJPH = map[string]float64{
	"COMMON": 1, "RARE": 3, "EPIC": 8, "LEGENDARY": 20,
}

var petSpecies = map[string][]string{
	"COMMON":    {"Mossling", "Pebblepup"},
	"RARE":      {"Emberfox", "Tidecrab"},
	"EPIC":      {"Stormwing"},
	"LEGENDARY": {"Sunwyrm"},
}

type geneVariant struct {
	value    string
	dominant bool
}

var genePool = map[string][]geneVariant{
	"COLOR": {
		{"VERDANT", true}, {"CRIMSON", true}, {"AZURE", false}, {"OPALINE", false},
	},
	"PATTERN": {
		{"STRIPED", true}, {"SPOTTED", true}, {"MARBLED", false},
	},
	"AURA": {
		{"NONE", true}, {"FAINT_GLOW", false}, {"RADIANT", false},
	},
}

var geneCategories = []string{"COLOR", "PATTERN", "AURA"}

var petPersonalities = []string{"Playful", "Stoic", "Curious", "Lazy", "Fierce"}

// bioDNA is the pet type: explored in the shop, then harvested, trained
// and bred. Harvest yields currency; breeding mints a child in the same
// transaction it updates the partner in.
type bioDNA struct {
	base
}

func init() {
	Register(&bioDNA{})
}

func (h *bioDNA) Type() string        { return TypeBioDNA }
func (h *bioDNA) DisplayName() string { return "Bio-DNA Pet" }

func (h *bioDNA) ShopConfig() *ShopConfig {
	return &ShopConfig{
		Creatable:   true,
		Cost:        exploreCost,
		Name:        "Wilderness Expedition",
		ActionKind:  ShopActionProbabilistic,
		Description: "Send an expedition into the wilds. Most come back empty handed.",
	}
}

func (h *bioDNA) Mint(owner string, ownerName string, input map[string]any) (map[string]any, error) {
	rarity := inputString(input, "rarity")
	if _, ok := petBaseJPH[rarity]; !ok {
		rarity = petRarities[weightedIndex(petRarityWeights)]
	}
	data := generatePet(rarity, ownerName)
	if name := inputString(input, "name"); name != "" {
		data["name"] = name
	}
	return data, nil
}

func (h *bioDNA) ExecuteShopAction(tx *sqlx.Tx, owner string, ownerName string, input map[string]any) (string, string, error) {
	if rand.Float64() >= exploreChance {
		return "The expedition returned with nothing but muddy boots.", "", nil
	}

	rarity := petRarities[weightedIndex(petRarityWeights)]
	data := generatePet(rarity, ownerName)
	assetID, err := mintAssetTx(tx, owner, TypeBioDNA, data)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("The expedition found a %s %s!", rarity, dataString(data, "species")), assetID, nil
}

func generatePet(rarity string, foundBy string) map[string]any {
	species := petSpecies[rarity]
	gender := "F"
	if rand.Intn(2) == 0 {
		gender = "M"
	}

	genes := map[string]any{}
	for _, category := range geneCategories {
		variant := genePool[category][rand.Intn(len(genePool[category]))]
		genes[category] = map[string]any{"value": variant.value, "dominant": variant.dominant}
	}

	name := species[rand.Intn(len(species))]
	return map[string]any{
		"name":            fmt.Sprintf("%s #%d", name, rand.Intn(900)+100),
		"species":         name,
		"rarity":          rarity,
		"gender":          gender,
		"generation":      1.0,
		"level":           1.0,
		"xp":              0.0,
		"genes":           genes,
		"personality":     petPersonalities[rand.Intn(len(petPersonalities))],
		"jph":             petBaseJPH[rarity],
		"found_by":        foundBy,
		"last_harvest_at": float64(time.Now().Unix()),
		"last_train_at":   0.0,
		"last_breed_at":   0.0,
		"breed_count":     0.0,
	}
}

func (h *bioDNA) ActionCost(a *model.Asset, action string) float64 {
	if action == "train" {
		return trainCostPerLvl * dataFloat(a.Data(), "level")
	}
	return 0
}

func (h *bioDNA) ValidateAction(a *model.Asset, action string, input map[string]any, requester string) error {
	data := a.Data()
	now := float64(time.Now().Unix())

	switch action {
	case "rename":
		name := inputString(input, "name")
		if len(name) < 2 || len(name) > 20 {
			return fmt.Errorf("%w: name must be 2 to 20 characters", model.ErrorMalformedMessage)
		}
		return nil

	case "harvest":
		if now-dataFloat(data, "last_harvest_at") < harvestCooldown {
			return fmt.Errorf("%w: harvested too recently", model.ErrorCooldownActive)
		}
		return nil

	case "train":
		cooldown := 3600 * dataFloat(data, "level") / 2
		if now-dataFloat(data, "last_train_at") < cooldown {
			return fmt.Errorf("%w: still resting from the last session", model.ErrorCooldownActive)
		}
		return nil

	case "breed":
		if dataString(data, "gender") != "F" {
			return fmt.Errorf("%w: breeding starts from the female pet", model.ErrorMalformedMessage)
		}
		if inputString(input, "partner_id") == "" {
			return fmt.Errorf("%w: partner_id is required", model.ErrorMalformedMessage)
		}
		if dataInt(data, "breed_count") >= maxBreedCount {
			return fmt.Errorf("%w: this pet cannot breed again", model.ErrorUnknownAction)
		}
		if now-dataFloat(data, "last_breed_at") < breedCooldown {
			return fmt.Errorf("%w: still recovering from the last litter", model.ErrorCooldownActive)
		}
		return nil
	}
	return model.ErrorUnknownAction
}

func (h *bioDNA) PerformAction(tx *sqlx.Tx, a *model.Asset, action string, input map[string]any, requester string) (*ActionResult, error) {
	data := a.Data()
	now := float64(time.Now().Unix())

	switch action {
	case "rename":
		data["name"] = inputString(input, "name")
		return &ActionResult{Updated: data, Detail: "Pet renamed."}, nil

	case "harvest":
		hours := (now - dataFloat(data, "last_harvest_at")) / 3600
		if hours > maxAccrualHours {
			hours = maxAccrualHours
		}
		yield := dataFloat(data, "jph") * hours
		data["last_harvest_at"] = now
		return &ActionResult{
			Updated:        data,
			CurrencyCredit: yield,
			Detail:         fmt.Sprintf("%s produced %.4f coins.", dataString(data, "name"), yield),
		}, nil

	case "train":
		level := dataFloat(data, "level")
		xp := dataFloat(data, "xp") + xpPerTrain
		detail := fmt.Sprintf("%s trained hard (+%.0f xp).", dataString(data, "name"), xpPerTrain)
		for xp >= xpPerLevel*level {
			xp -= xpPerLevel * level
			level++
			detail = fmt.Sprintf("%s levelled up to %.0f!", dataString(data, "name"), level)
		}
		data["level"] = level
		data["xp"] = xp
		data["jph"] = petBaseJPH[dataString(data, "rarity")] * (1 + 0.1*(level-1))
		data["last_train_at"] = now
		return &ActionResult{Updated: data, Detail: detail}, nil

	case "breed":
		return h.breed(tx, a, data, input, requester, now)
	}
	return nil, model.ErrorUnknownAction
}

func (h *bioDNA) breed(tx *sqlx.Tx, a *model.Asset, data map[string]any, input map[string]any, requester string, now float64) (*ActionResult, error) {
	partner, err := store.GetAsset(tx, inputString(input, "partner_id"))
	if err != nil {
		return nil, err
	}
	if partner.Type != TypeBioDNA || partner.Status != model.AssetStatusActive {
		return nil, model.ErrorAssetNotActive
	}
	if partner.OwnerKey != requester {
		return nil, model.ErrorNotOwner
	}

	partnerData := partner.Data()
	if dataString(partnerData, "gender") != "M" {
		return nil, fmt.Errorf("%w: the partner must be male", model.ErrorMalformedMessage)
	}
	if dataString(partnerData, "species") != dataString(data, "species") {
		return nil, fmt.Errorf("%w: pets must be the same species", model.ErrorMalformedMessage)
	}
	if dataInt(partnerData, "breed_count") >= maxBreedCount {
		return nil, fmt.Errorf("%w: the partner cannot breed again", model.ErrorUnknownAction)
	}
	if now-dataFloat(partnerData, "last_breed_at") < breedCooldown {
		return nil, fmt.Errorf("%w: the partner is still recovering", model.ErrorCooldownActive)
	}

	child := generatePet(inheritRarity(data, partnerData), dataString(data, "found_by"))
	child["species"] = dataString(data, "species")
	child["genes"] = inheritGenes(data, partnerData)
	generation := dataFloat(data, "generation")
	if g := dataFloat(partnerData, "generation"); g > generation {
		generation = g
	}
	child["generation"] = generation + 1

	childID, err := mintAssetTx(tx, requester, TypeBioDNA, child)
	if err != nil {
		return nil, err
	}

	partnerData["last_breed_at"] = now
	partnerData["breed_count"] = dataFloat(partnerData, "breed_count") + 1
	if err := partner.SetData(partnerData); err != nil {
		return nil, fmt.Errorf("encoding partner payload: %w", err)
	}
	if err := store.UpdateAssetData(tx, partner.ID, partner.DataJSON, ""); err != nil {
		return nil, err
	}

	data["last_breed_at"] = now
	data["breed_count"] = dataFloat(data, "breed_count") + 1
	return &ActionResult{
		Updated: data,
		Detail:  fmt.Sprintf("A new %s was born (id %s)!", dataString(child, "species"), childID),
	}, nil
}

// inheritRarity takes one parent's tier at random.
func inheritRarity(mother, father map[string]any) string {
	if rand.Intn(2) == 0 {
		return dataString(mother, "rarity")
	}
	return dataString(father, "rarity")
}

// inheritGenes picks each category from one parent, favouring dominant
// variants, with a small mutation chance drawing from the whole pool.
func inheritGenes(mother, father map[string]any) map[string]any {
	motherGenes, _ := mother["genes"].(map[string]any)
	fatherGenes, _ := father["genes"].(map[string]any)

	child := map[string]any{}
	for _, category := range geneCategories {
		if rand.Float64() < geneMutationRate {
			variant := genePool[category][rand.Intn(len(genePool[category]))]
			child[category] = map[string]any{"value": variant.value, "dominant": variant.dominant}
			continue
		}

		m, _ := motherGenes[category].(map[string]any)
		f, _ := fatherGenes[category].(map[string]any)
		pick := m
		if pick == nil || (f != nil && rand.Intn(2) == 0) {
			pick = f
		}
		mDominant, _ := m["dominant"].(bool)
		fDominant, _ := f["dominant"].(bool)
		if mDominant != fDominant {
			// dominant allele wins three times out of four
			dominant := m
			if fDominant {
				dominant = f
			}
			if rand.Float64() < 0.75 {
				pick = dominant
			}
		}
		if pick == nil {
			variant := genePool[category][rand.Intn(len(genePool[category]))]
			pick = map[string]any{"value": variant.value, "dominant": variant.dominant}
		}
		child[category] = map[string]any{"value": pick["value"], "dominant": pick["dominant"]}
	}
	return child
}

// AccumulatedYield reports what a harvest would pay right now and how
// long until the next one is allowed.
func (h *bioDNA) AccumulatedYield(a *model.Asset) (yield float64, ready bool, cooldownLeft int) {
	data := a.Data()
	now := float64(time.Now().Unix())
	elapsed := now - dataFloat(data, "last_harvest_at")

	hours := elapsed / 3600
	if hours > maxAccrualHours {
		hours = maxAccrualHours
	}
	yield = dataFloat(data, "jph") * hours
	if elapsed >= harvestCooldown {
		return yield, true, 0
	}
	return yield, false, int(harvestCooldown - elapsed)
}

func (h *bioDNA) TradeDescription(a *model.Asset) string {
	data := a.Data()
	return fmt.Sprintf("%s, a %s %s (gen %.0f, lvl %.0f, %.1f/h)",
		dataString(data, "name"), dataString(data, "rarity"), dataString(data, "species"),
		dataFloat(data, "generation"), dataFloat(data, "level"), dataFloat(data, "jph"))
}

func (h *bioDNA) AdminMintConfig() MintConfig {
	return MintConfig{
		HelpText:    "rarity may be COMMON, RARE, EPIC or LEGENDARY; omit it for a weighted roll. name overrides the generated one.",
		DefaultJSON: `{"rarity": "COMMON"}`,
	}
}
