package soil

// TypeInfo describes a selectable value for form dropdowns.
type TypeInfo struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

var soilDescriptions = map[SoilType]string{
	Sandy:  "Light, well-draining soil with low nutrient retention",
	Clay:   "Heavy soil with high water and nutrient retention",
	Loamy:  "Balanced soil with good drainage and fertility",
	Silty:  "Medium-textured soil with good water retention",
	Peaty:  "Organic-rich soil with high moisture content",
	Chalky: "Alkaline soil with good drainage but low nutrient availability",
}

var irrigationDescriptions = map[Irrigation]string{
	Drip:        "Water-efficient system delivering directly to plant roots",
	Sprinkler:   "Overhead irrigation system covering large areas",
	Flood:       "Traditional surface irrigation method",
	CenterPivot: "Mechanized sprinkler system for large fields",
	Manual:      "Hand watering or portable irrigation",
}

// SoilTypes lists the soil types with descriptions.
func SoilTypes() []TypeInfo {
	out := make([]TypeInfo, 0, len(AllSoilTypes))
	for _, s := range AllSoilTypes {
		out = append(out, TypeInfo{Value: string(s), Description: soilDescriptions[s]})
	}
	return out
}

// IrrigationTypes lists the irrigation methods with descriptions.
func IrrigationTypes() []TypeInfo {
	out := make([]TypeInfo, 0, len(AllIrrigations))
	for _, i := range AllIrrigations {
		out = append(out, TypeInfo{Value: string(i), Description: irrigationDescriptions[i]})
	}
	return out
}
