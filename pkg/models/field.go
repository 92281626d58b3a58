// Package models contains domain types for irrigation-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// CropType is one of the six crops the prediction model was trained on.
type CropType string

const (
	CropMaize    CropType = "Maize"
	CropWheat    CropType = "Wheat"
	CropRice     CropType = "Rice"
	CropTomatoes CropType = "Tomatoes"
	CropPotatoes CropType = "Potatoes"
	CropCotton   CropType = "Cotton"
)

// cropCodes maps crop labels to the categorical codes used at model
// training time. The codes are part of the model contract and must not
// change without retraining.
var cropCodes = map[CropType]int{
	CropMaize:    0,
	CropWheat:    1,
	CropRice:     2,
	CropTomatoes: 3,
	CropPotatoes: 4,
	CropCotton:   5,
}

// Code returns the model's categorical encoding for the crop.
func (c CropType) Code() (int, bool) {
	code, ok := cropCodes[c]
	return code, ok
}

// SoilType is one of the four soil classes the model understands.
type SoilType string

const (
	SoilClay  SoilType = "Clay"
	SoilLoam  SoilType = "Loam"
	SoilSandy SoilType = "Sandy"
	SoilSilty SoilType = "Silty"
)

var soilCodes = map[SoilType]int{
	SoilClay:  0,
	SoilLoam:  1,
	SoilSandy: 2,
	SoilSilty: 3,
}

// Code returns the model's categorical encoding for the soil type.
func (s SoilType) Code() (int, bool) {
	code, ok := soilCodes[s]
	return code, ok
}

// Region is one of the ten Zambian provinces.
type Region string

const (
	RegionLusaka       Region = "Lusaka"
	RegionCentral      Region = "Central Province"
	RegionSouthern     Region = "Southern Province"
	RegionEastern      Region = "Eastern Province"
	RegionCopperbelt   Region = "Copperbelt"
	RegionNorthern     Region = "Northern Province"
	RegionWestern      Region = "Western Province"
	RegionLuapula      Region = "Luapula"
	RegionMuchinga     Region = "Muchinga"
	RegionNorthWestern Region = "North-Western"
)

var regionCodes = map[Region]int{
	RegionLusaka:       0,
	RegionCentral:      1,
	RegionSouthern:     2,
	RegionEastern:      3,
	RegionCopperbelt:   4,
	RegionNorthern:     5,
	RegionWestern:      6,
	RegionLuapula:      7,
	RegionMuchinga:     8,
	RegionNorthWestern: 9,
}

// Code returns the model's categorical encoding for the region.
func (r Region) Code() (int, bool) {
	code, ok := regionCodes[r]
	return code, ok
}

// Season is the growing season. Zambia has two: Dry (May-October) and
// Wet (November-April).
type Season string

const (
	SeasonDry Season = "Dry"
	SeasonWet Season = "Wet"
)

var seasonCodes = map[Season]int{
	SeasonDry: 0,
	SeasonWet: 1,
}

// Code returns the model's categorical encoding for the season.
func (s Season) Code() (int, bool) {
	code, ok := seasonCodes[s]
	return code, ok
}

// FieldSnapshot is a read-only view of a field's agronomic state at
// prediction time. The engine receives it from the field-management
// collaborator and never mutates it.
type FieldSnapshot struct {
	FieldID      uuid.UUID `json:"field_id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	CropType     CropType  `json:"crop_type"`
	PlantingDate time.Time `json:"planting_date"`
	CropDays     int       `json:"crop_days"`
	SoilType     SoilType  `json:"soil_type"`
	SoilMoisture float64   `json:"soil_moisture"`
	Region       Region    `json:"region"`
	Season       Season    `json:"season"`
	AreaHectares float64   `json:"area_hectares"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
}
