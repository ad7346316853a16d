package assetlogic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	assert := assert.New(t)

	types := Types()
	assert.Equal([]string{"BIO_DNA", "PLANET", "SECRET_WISH", "TIME_CAPSULE"}, types)

	_, err := Get("UNICORN")
	assert.NotNil(err)

	t.Run("shop catalog only lists creatable types", func(t *testing.T) {
		configs := ShopConfigs()
		assert.Contains(configs, "SECRET_WISH")
		assert.Contains(configs, "PLANET")
		assert.Contains(configs, "BIO_DNA")
		assert.NotContains(configs, "TIME_CAPSULE")
	})
}

func TestWeightedIndex(t *testing.T) {
	assert := assert.New(t)

	weights := []int{40, 50, 10}
	for i := 0; i < 1000; i++ {
		index := weightedIndex(weights)
		assert.GreaterOrEqual(index, 0)
		assert.Less(index, len(weights))
	}

	assert.Equal(0, weightedIndex([]int{1}))
}

func TestGeneratePlanet(t *testing.T) {
	assert := assert.New(t)

	for i := 0; i < 100; i++ {
		data := generatePlanet("tester")

		class := dataString(data, "star_class")
		base, ok := starClassRarity[class]
		assert.True(ok, "unknown star class %q", class)

		zone := dataString(data, "orbital_zone")
		assert.Contains(orbitalZones, zone)
		assert.Contains(planetTypesByZone[zone], dataString(data, "planet_type"))

		found, _ := data["anomalies"].([]any)
		assert.LessOrEqual(len(found), 2)
		for _, name := range found {
			assert.Contains(anomalyNames, name)
		}

		score, _ := data["rarity_score"].(map[string]any)
		assert.Equal(base, dataFloat(score, "total"))
	}
}

func TestGeneratePet(t *testing.T) {
	assert := assert.New(t)

	for i := 0; i < 100; i++ {
		data := generatePet("COMMON", "tester")

		assert.Contains([]string{"F", "M"}, dataString(data, "gender"))
		assert.Contains(petSpecies["COMMON"], dataString(data, "species"))
		assert.Equal(petBaseJPH["COMMON"], dataFloat(data, "jph"))
		assert.Equal(1.0, dataFloat(data, "level"))

		genes, _ := data["genes"].(map[string]any)
		for _, category := range geneCategories {
			assert.Contains(genes, category)
		}
	}
}
