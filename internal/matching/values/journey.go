package values

import "compatibility-workers/internal/models"

const (
	RelationshipPeerGrowth    = "peer-growth"
	RelationshipMentorship    = "mentorship"
	RelationshipSharedMastery = "shared-mastery"
)

type journeyResult struct {
	score        int
	relationship string
}

var journeyTable = map[[2]string]journeyResult{
	pairKey(models.StageNew, models.StageNew):                 {75, RelationshipPeerGrowth},
	pairKey(models.StageNew, models.StageEstablished):         {85, RelationshipMentorship},
	pairKey(models.StageNew, models.StageLongtime):            {70, RelationshipMentorship},
	pairKey(models.StageEstablished, models.StageEstablished): {90, RelationshipPeerGrowth},
	pairKey(models.StageEstablished, models.StageLongtime):    {85, RelationshipMentorship},
	pairKey(models.StageLongtime, models.StageLongtime):       {95, RelationshipSharedMastery},
}

func journeyCompatibility(a, b models.JourneySection) journeyResult {
	return journeyTable[pairKey(a.ResolvedStage(), b.ResolvedStage())]
}
