package maintenance

import (
	"strings"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Family groups equipment types that share default maintenance schedules.
type Family string

const (
	FamilyRoadVehicle    Family = "road_vehicle"
	FamilyHeavyEquipment Family = "heavy_equipment"
	FamilyFarm           Family = "farm"
	FamilyUtilityVehicle Family = "utility_vehicle"
	FamilySmallEngine    Family = "small_engine"
	FamilyTrailer        Family = "trailer"
	FamilyOther          Family = "other"
)

// Template is a suggested schedule for an equipment family.
type Template struct {
	Type                string              `json:"type"`
	DefaultInterval     float64             `json:"default_interval"`
	DefaultIntervalUnit models.IntervalUnit `json:"default_interval_unit"`
	Description         string              `json:"description"`
}

// familyKeywords is ordered: when a keyword appears in more than one family the
// earlier family owns it ("mower" is farm, not small engine).
var familyKeywords = []struct {
	family   Family
	keywords []string
}{
	{FamilyRoadVehicle, []string{
		"truck", "pickup", "van", "car", "semi truck", "dump truck", "box truck", "flatbed",
	}},
	{FamilyHeavyEquipment, []string{
		"excavator", "mini excavator", "backhoe", "bulldozer", "dozer", "crawler dozer",
		"wheel loader", "track loader", "skid steer", "compact track loader", "grader",
		"motor grader", "compactor", "roller",
	}},
	{FamilyFarm, []string{
		"tractor", "farm tractor", "compact tractor", "combine", "combine harvester",
		"farm equipment", "hay baler", "planter", "sprayer", "mower", "bush hog",
	}},
	{FamilyUtilityVehicle, []string{
		"utility vehicle", "utv", "atv", "side-by-side", "gator", "ranger", "mule",
	}},
	{FamilySmallEngine, []string{"chainsaw", "mower"}},
	{FamilyTrailer, []string{
		"trailer", "flatbed trailer", "enclosed trailer", "equipment trailer",
	}},
}

var familyByType = buildFamilyIndex()

func buildFamilyIndex() map[string]Family {
	index := make(map[string]Family)
	for _, fk := range familyKeywords {
		for _, kw := range fk.keywords {
			if _, taken := index[kw]; !taken {
				index[kw] = fk.family
			}
		}
	}
	return index
}

var annualInspection = Template{
	Type:                "Annual Inspection",
	DefaultInterval:     365,
	DefaultIntervalUnit: models.IntervalDays,
	Description:         "Annual safety and performance inspection",
}

var templatesByFamily = map[Family][]Template{
	FamilyRoadVehicle: {
		{"Oil Change", 3000, models.IntervalDistance, "Regular oil and filter change"},
		{"Tire Rotation", 5000, models.IntervalDistance, "Rotate tires for even wear"},
		{"Filter Replacement", 15000, models.IntervalDistance, "Replace air and cabin filters"},
		{"Brake Service", 30000, models.IntervalDistance, "Inspect and service brake system"},
		annualInspection,
	},
	FamilyHeavyEquipment: {
		{"Oil Change", 50, models.IntervalHours, "Hydraulic oil and engine oil change"},
		{"Filter Replacement", 100, models.IntervalHours, "Replace hydraulic and air filters"},
		{"Hydraulic Service", 500, models.IntervalHours, "Hydraulic system inspection and service"},
		{"Track/Undercarriage Inspection", 250, models.IntervalHours, "Inspect tracks, rollers, and undercarriage"},
		annualInspection,
	},
	FamilyFarm: {
		{"Oil Change", 50, models.IntervalHours, "Engine oil and filter change"},
		{"Filter Replacement", 100, models.IntervalHours, "Replace air and fuel filters"},
		{"Hydraulic Service", 200, models.IntervalHours, "Hydraulic fluid and filter change"},
		{"Grease Service", 10, models.IntervalHours, "Lubricate all grease fittings"},
		annualInspection,
	},
	FamilyUtilityVehicle: {
		{"Oil Change", 25, models.IntervalHours, "Engine oil and filter change"},
		{"Filter Replacement", 50, models.IntervalHours, "Replace air filter"},
		{"Tire Inspection", 100, models.IntervalHours, "Inspect tires for wear and damage"},
		{"Grease Service", 10, models.IntervalHours, "Lubricate all grease fittings"},
		annualInspection,
	},
	FamilySmallEngine: {
		{"Oil Change", 25, models.IntervalHours, "Engine oil change"},
		{"Filter Replacement", 50, models.IntervalHours, "Replace air filter"},
		{"Spark Plug Replacement", 100, models.IntervalHours, "Replace spark plug"},
		{"Chain/Blade Sharpening", 10, models.IntervalHours, "Sharpen chain or blade"},
	},
	FamilyTrailer: {
		{"Tire Inspection", 3000, models.IntervalDistance, "Inspect tires for wear and pressure"},
		{"Brake Service", 12000, models.IntervalDistance, "Inspect and service brakes"},
		{"Light Check", 90, models.IntervalDays, "Check all lights and wiring"},
		{"Annual Inspection", 365, models.IntervalDays, "Annual safety inspection"},
	},
	FamilyOther: {
		{"Oil Change", 50, models.IntervalHours, "Regular oil and filter change"},
		{"Filter Replacement", 100, models.IntervalHours, "Replace filters"},
		annualInspection,
	},
}

// NormalizeType lower-cases and trims an equipment type for catalog lookup.
func NormalizeType(equipmentType string) string {
	return strings.ToLower(strings.TrimSpace(equipmentType))
}

// FamilyForType returns the family an equipment type belongs to, or FamilyOther.
func FamilyForType(equipmentType string) Family {
	if family, ok := familyByType[NormalizeType(equipmentType)]; ok {
		return family
	}
	return FamilyOther
}

// TemplatesForType returns the default schedules for an equipment type in display
// order. The result is never empty and is safe to modify.
func TemplatesForType(equipmentType string) []Template {
	templates := templatesByFamily[FamilyForType(equipmentType)]
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// FindTemplate returns the template of the given maintenance type for an equipment type.
func FindTemplate(equipmentType, maintenanceType string) (Template, bool) {
	for _, t := range templatesByFamily[FamilyForType(equipmentType)] {
		if strings.EqualFold(t.Type, strings.TrimSpace(maintenanceType)) {
			return t, true
		}
	}
	return Template{}, false
}
