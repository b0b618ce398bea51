package planning

import (
	"math"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
)

// Progress round(100 * completed / total)，没有阶段时为0
func Progress(stages []entity.ProjectStage) int {
	if len(stages) == 0 {
		return 0
	}
	completed := 0
	for _, s := range stages {
		if s.Status == entity.StatusCompleted {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(stages))))
}
