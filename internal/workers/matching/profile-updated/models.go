package profileupdated

type Input struct {
	UserID        string   `json:"userId"`
	ChangedFields []string `json:"changedFields"`
}

type Output struct {
	Invalidated       int      `json:"invalidated"`
	RecomputeQueued   bool     `json:"recomputeQueued"`
	SignificantFields []string `json:"significantFields"`
}
