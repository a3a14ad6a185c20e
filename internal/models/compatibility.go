// internal/models/compatibility.go
package models

import "time"

type ScoreBreakdown struct {
	LifestyleAlignment    int `json:"lifestyleAlignment"`
	ValuesCompatibility   int `json:"valuesCompatibility"`
	LifestyleIntegration  int `json:"lifestyleIntegration"`
	CommunicationStyle    int `json:"communicationStyle"`
	PersonalCompatibility int `json:"personalCompatibility"`
}

type ValuesBreakdown struct {
	EthicalMotivation int `json:"ethicalMotivation"`
	Lifestyle         int `json:"lifestyle"`
	JourneyStage      int `json:"journeyStage"`
	ValuesConflict    int `json:"valuesConflict"`
	Cultural          int `json:"cultural"`
}

// ValuesAnalysis is the output of the values sub-analyzer.
type ValuesAnalysis struct {
	OverallScore     int             `json:"overallScore"`
	Breakdown        ValuesBreakdown `json:"breakdown"`
	RelationshipType string          `json:"relationshipType"`
	Dealbreakers     []string        `json:"dealbreakers,omitempty"`
	CompromiseAreas  []string        `json:"compromiseAreas,omitempty"`
	Insights         []string        `json:"insights,omitempty"`
	Recommendations  []string        `json:"recommendations,omitempty"`
}

// CompatibilityScore is created once per calculation and never mutated afterwards.
type CompatibilityScore struct {
	UserA        string          `json:"userA"`
	UserB        string          `json:"userB"`
	Overall      int             `json:"overall"`
	Breakdown    ScoreBreakdown  `json:"breakdown"`
	Confidence   int             `json:"confidence"`
	Insights     []string        `json:"insights"`
	Values       *ValuesAnalysis `json:"values,omitempty"`
	CalculatedAt time.Time       `json:"calculatedAt"`
}
