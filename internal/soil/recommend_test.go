package soil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownex/grownex/internal/soil"
)

func names(recs []soil.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func TestFertilizers_Deficits(t *testing.T) {
	recs := soil.DefaultEngine().Fertilizers(sample())

	require.Len(t, recs, 2)
	assert.Equal(t, "Urea (46-0-0)", recs[0].Name)
	assert.Equal(t, "903 kg/total", recs[0].Application)
	assert.Equal(t, "Before sowing & 30 days after", recs[0].Frequency)
	assert.Equal(t, soil.PriorityHigh, recs[0].Priority)

	assert.Equal(t, "Zinc Sulphate", recs[1].Name)
	assert.Equal(t, "130 kg/total", recs[1].Application)
	assert.Equal(t, soil.PriorityMedium, recs[1].Priority)
}

func TestFertilizers_UnknownSoilUsesLoamyRanges(t *testing.T) {
	m := sample()
	m.SoilType = soil.SoilType("Volcanic")

	recs := soil.DefaultEngine().Fertilizers(m)

	require.Len(t, recs, 2)
	assert.Equal(t, "Urea (46-0-0)", recs[0].Name)
	assert.Equal(t, "903 kg/total", recs[0].Application)
	assert.Equal(t, "Zinc Sulphate", recs[1].Name)
	assert.Equal(t, soil.DefaultEngine().Fertilizers(sample()), recs)
}

func TestFertilizers_AllDeficits(t *testing.T) {
	m := soil.Measurement{
		LandArea:   1,
		SoilType:   soil.Clay,
		Irrigation: soil.Flood,
		PH:         8.2,
		Nitrogen:   100,
		Phosphorus: 10,
		Potassium:  100,
		Zinc:       0.1,
	}

	recs := soil.DefaultEngine().Fertilizers(m)

	assert.Equal(t, []string{
		"Urea (46-0-0)",
		"DAP (18-46-0)",
		"Muriate of Potash (0-0-60)",
		"Zinc Sulphate",
	}, names(recs))
	assert.Equal(t, "434 kg/total", recs[0].Application)
	assert.Equal(t, "174 kg/total", recs[1].Application)
	assert.Equal(t, "501 kg/total", recs[2].Application)
	assert.Equal(t, "25 kg/total", recs[3].Application)
}

func TestFertilizers_BalancedFallback(t *testing.T) {
	recs := soil.DefaultEngine().Fertilizers(ideal())

	require.Len(t, recs, 1)
	assert.Equal(t, soil.Recommendation{
		Name:        "Balanced NPK Fertilizer",
		Application: "200 kg/total",
		Frequency:   "Maintenance application",
		Purpose:     "General soil health",
		Priority:    soil.PriorityLow,
	}, recs[0])
}

func TestFertilizers_AtMinimumIsNotDeficient(t *testing.T) {
	m := ideal()
	m.Nitrogen = 250
	recs := soil.DefaultEngine().Fertilizers(m)
	assert.Equal(t, []string{"Balanced NPK Fertilizer"}, names(recs))
}

func TestPesticides(t *testing.T) {
	tests := []struct {
		name  string
		soil  soil.SoilType
		ph    float64
		score float64
		want  []string
	}{
		{
			name:  "healthy loamy",
			soil:  soil.Loamy,
			ph:    6.5,
			score: 8,
			want:  []string{"Imidacloprid 17.8% SL"},
		},
		{
			name:  "alkaline clay with poor health",
			soil:  soil.Clay,
			ph:    8.2,
			score: 3.3,
			want: []string{
				"Chlorpyrifos 20% EC",
				"Mancozeb 75% WP",
				"Imidacloprid 17.8% SL",
				"Carbendazim 50% WP",
			},
		},
		{
			name:  "silty at threshold",
			soil:  soil.Silty,
			ph:    7.5,
			score: 6,
			want:  []string{"Mancozeb 75% WP", "Imidacloprid 17.8% SL"},
		},
		{
			name:  "sandy just below threshold",
			soil:  soil.Sandy,
			ph:    7.6,
			score: 5.9,
			want:  []string{"Chlorpyrifos 20% EC", "Imidacloprid 17.8% SL", "Carbendazim 50% WP"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := soil.Measurement{SoilType: tt.soil, PH: tt.ph}
			recs := soil.Pesticides(m, tt.score)
			assert.Equal(t, tt.want, names(recs))
			for _, r := range recs {
				assert.Empty(t, r.Frequency)
			}
		})
	}
}

func TestCrops_Sample(t *testing.T) {
	crops := soil.DefaultEngine().Crops(sample())

	require.Len(t, crops, 4)
	assert.Equal(t, "Cotton", crops[0].Name)
	assert.Equal(t, 10, crops[0].Score)
	assert.Equal(t, []string{"Cotton", "Wheat", "Maize", "Potato"},
		[]string{crops[0].Name, crops[1].Name, crops[2].Name, crops[3].Name})
	for _, c := range crops[1:] {
		assert.Equal(t, 9, c.Score)
		assert.Equal(t, soil.HighlyRecommended, c.Suitability)
	}
}

func TestCrops_WheatScoresNine(t *testing.T) {
	m := ideal()
	crops := soil.DefaultEngine().Crops(m)

	var wheat *soil.CropMatch
	for i := range crops {
		if crops[i].Name == "Wheat" {
			wheat = &crops[i]
		}
	}
	require.NotNil(t, wheat)
	assert.Equal(t, 9, wheat.Score)
	assert.Equal(t, soil.HighlyRecommended, wheat.Suitability)
	assert.Equal(t, "Oct-Nov | Mar-Apr", wheat.Timing)
	assert.Equal(t, "18-22 quintals/acre", wheat.Yield)
	assert.Equal(t, soil.PriorityHigh, wheat.Priority)
}

func TestCrops_Ordering(t *testing.T) {
	crops := soil.DefaultEngine().Crops(ideal())

	assert.LessOrEqual(t, len(crops), 4)
	for i := 1; i < len(crops); i++ {
		assert.GreaterOrEqual(t, crops[i-1].Score, crops[i].Score)
	}
	for _, c := range crops {
		assert.GreaterOrEqual(t, c.Score, 5)
		assert.LessOrEqual(t, c.Score, 10)
		if c.Score >= 7 {
			assert.Equal(t, soil.HighlyRecommended, c.Suitability)
		} else {
			assert.Equal(t, soil.Suitable, c.Suitability)
		}
	}
}

func TestCrops_NoneQualify(t *testing.T) {
	m := soil.Measurement{
		SoilType:   soil.Peaty,
		Irrigation: soil.Manual,
		PH:         3,
		Nitrogen:   0,
		Phosphorus: 0,
		Potassium:  0,
	}
	assert.Empty(t, soil.DefaultEngine().Crops(m))
}

func TestCrops_CustomWeights(t *testing.T) {
	w := soil.DefaultMatchWeights()
	w.Limit = 1
	engine, err := soil.NewEngine(soil.WithMatchWeights(w))
	require.NoError(t, err)

	crops := engine.Crops(sample())
	require.Len(t, crops, 1)
	assert.Equal(t, "Cotton", crops[0].Name)
}

func TestComputeRecommendations(t *testing.T) {
	m := sample()
	score := soil.ComputeHealthScore(m)
	recs := soil.ComputeRecommendations(m, score)

	assert.NotEmpty(t, recs.Fertilizers)
	assert.NotEmpty(t, recs.Pesticides)
	assert.Equal(t, recs, soil.ComputeRecommendations(m, score))
	assert.Equal(t, sample(), m)
}

func TestEngine_Analyze(t *testing.T) {
	res := soil.DefaultEngine().Analyze(sample())

	assert.InDelta(t, 8.0, res.Score, 1e-9)
	assert.Len(t, res.Fertilizers, 2)
	assert.Equal(t, []string{"Imidacloprid 17.8% SL"}, names(res.Pesticides))
	assert.Len(t, res.Crops, 4)
}

func TestEngine_CropsForSoil(t *testing.T) {
	crops := soil.DefaultEngine().CropsForSoil(soil.Clay)

	var got []string
	for _, c := range crops {
		got = append(got, c.Name)
	}
	assert.Equal(t, []string{"Wheat", "Mustard", "Rice"}, got)
	assert.Empty(t, soil.DefaultEngine().CropsForSoil(soil.Peaty))
}

func TestEngine_RejectsInvalidCatalog(t *testing.T) {
	_, err := soil.NewEngine(soil.WithCatalog(soil.Catalog{{Name: "Nothing"}}))
	assert.Error(t, err)

	_, err = soil.NewEngine(soil.WithCatalog(soil.Catalog{}))
	assert.Error(t, err)
}

func TestEngineRef(t *testing.T) {
	ref := soil.NewEngineRef(nil)
	assert.Same(t, soil.DefaultEngine(), ref.Load())

	w := soil.DefaultMatchWeights()
	w.Limit = 2
	engine, err := soil.NewEngine(soil.WithMatchWeights(w))
	require.NoError(t, err)

	ref.Store(engine)
	assert.Same(t, engine, ref.Load())
	assert.Len(t, ref.Load().Crops(sample()), 2)
}

func TestReferenceData(t *testing.T) {
	soils := soil.SoilTypes()
	require.Len(t, soils, 6)
	assert.Equal(t, "Sandy", soils[0].Value)
	assert.Equal(t, "Balanced soil with good drainage and fertility", soils[2].Description)

	irrigation := soil.IrrigationTypes()
	require.Len(t, irrigation, 5)
	assert.Equal(t, "Center Pivot", irrigation[3].Value)

	assert.True(t, soil.Chalky.Valid())
	assert.False(t, soil.SoilType("Volcanic").Valid())
	assert.True(t, soil.CenterPivot.Valid())
	assert.False(t, soil.Irrigation("Rain").Valid())
}
