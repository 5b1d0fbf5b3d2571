// Package cost computes the fixed-shape production cost table.
package cost

import (
	"math"

	"github.com/soppliger/auteur/internal/model"
)

const (
	DefaultRuntimeMinutes = 90
	DefaultSceneCount     = 60
)

// Unit costs in USD.
const (
	proTokenCost    = 0.0000025 // per token
	flashTokenCost  = 0.0000001 // per token
	videoSecondCost = 0.08      // per generated second
	stillImageCost  = 0.04      // per image
	audioMinuteCost = 0.002     // per minute
	infraFixedCost  = 5.00
	scriptTokens    = 100000
	reasoningTokens = 500000
	flashTokens     = 2000000
	videoCoverage   = 0.75
	imagesPerScene  = 3
)

// Categories is the row layout every cost table follows.
var Categories = []string{"Pre-Production", "Orchestration", "Visuals", "Visuals", "Audio", "Infrastructure"}

// Params are the calculator inputs. Non-positive values use the defaults.
type Params struct {
	RuntimeMinutes int `json:"runtime"`
	SceneCount     int `json:"sceneCount"`
}

func (p Params) normalized() Params {
	if p.RuntimeMinutes <= 0 {
		p.RuntimeMinutes = DefaultRuntimeMinutes
	}
	if p.SceneCount <= 0 {
		p.SceneCount = DefaultSceneCount
	}
	return p
}

// Estimate returns six rows in fixed category order. Each Total is
// UnitCost * Quantity.
func Estimate(p Params) []model.CostItem {
	p = p.normalized()
	runtime := float64(p.RuntimeMinutes)
	scenes := float64(p.SceneCount)

	items := []model.CostItem{
		{
			Category:    "Pre-Production",
			Description: "Gemini 3 Pro (Scripting & Research)",
			UnitCost:    proTokenCost,
			Quantity:    scriptTokens + reasoningTokens,
		},
		{
			Category:    "Orchestration",
			Description: "Gemini 2.5 Flash (Agent Coordination)",
			UnitCost:    flashTokenCost,
			Quantity:    flashTokens,
		},
		{
			Category:    "Visuals",
			Description: "Veo 3.1 (Video Generation - 75% Coverage)",
			UnitCost:    videoSecondCost,
			Quantity:    runtime * 60 * videoCoverage,
		},
		{
			Category:    "Visuals",
			Description: "Imagen 4 (Static Plates/Storyboards)",
			UnitCost:    stillImageCost,
			Quantity:    scenes * imagesPerScene,
		},
		{
			Category:    "Audio",
			Description: "Neural TTS & SFX Generation",
			UnitCost:    audioMinuteCost,
			Quantity:    runtime,
		},
		{
			Category:    "Infrastructure",
			Description: "Cloud Rendering/Storage (Fixed Est)",
			UnitCost:    infraFixedCost,
			Quantity:    1,
		},
	}
	return Recompute(items)
}

// Recompute sets every Total to UnitCost * Quantity in place and returns
// items.
func Recompute(items []model.CostItem) []model.CostItem {
	for i := range items {
		items[i].Total = items[i].UnitCost * items[i].Quantity
	}
	return items
}

// Total sums the row totals.
func Total(items []model.CostItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Total
	}
	return sum
}

// RoundCents rounds v to two decimals for display.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
