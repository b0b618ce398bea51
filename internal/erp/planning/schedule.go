package planning

import (
	"math"
	"sort"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
)

const day = 24 * time.Hour

// CalculateDelay 进行中且已过计划结束日期的阶段延期天数（向上取整），其余为0
func CalculateDelay(stage *entity.ProjectStage, today time.Time) int {
	if stage.PlannedEndDate == nil || stage.Status == entity.StatusCompleted {
		return 0
	}
	if stage.Status != entity.StatusInProgress || !today.After(*stage.PlannedEndDate) {
		return 0
	}
	return int(math.Ceil(float64(today.Sub(*stage.PlannedEndDate)) / float64(day)))
}

// FindCriticalPath 延期阶段及其直接后继（只看一跳），仅用于展示
func FindCriticalPath(ix *Index, today time.Time) []string {
	set := make(map[string]struct{})
	for _, s := range ix.Stages() {
		if CalculateDelay(s, today) <= 0 {
			continue
		}
		set[s.ID] = struct{}{}
		for _, dep := range ix.Dependents(s.ID) {
			set[dep] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StageSchedule 阶段排期视图
type StageSchedule struct {
	StageID        string     `json:"stage_id"`
	ItemID         *string    `json:"item_id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	PlannedEndDate *time.Time `json:"planned_end_date"`
	DelayDays      int        `json:"delay_days"`
	Critical       bool       `json:"critical"`
	CanStart       bool       `json:"can_start"`
	Blockers       []string   `json:"blockers,omitempty"`
}

// Schedule 项目排期视图
type Schedule struct {
	ProjectID   string          `json:"project_id"`
	Today       time.Time       `json:"today"`
	Stages      []StageSchedule `json:"stages"`
	CriticalIDs []string        `json:"critical_ids"`
}

// BuildSchedule 生成项目排期视图
func BuildSchedule(projectID string, ix *Index, today time.Time) *Schedule {
	critical := FindCriticalPath(ix, today)
	isCritical := make(map[string]bool, len(critical))
	for _, id := range critical {
		isCritical[id] = true
	}

	out := &Schedule{
		ProjectID:   projectID,
		Today:       today,
		Stages:      make([]StageSchedule, 0),
		CriticalIDs: critical,
	}
	for _, s := range ix.Stages() {
		blockers := ix.IncompleteRequired(s.ID)
		row := StageSchedule{
			StageID:        s.ID,
			ItemID:         s.ItemID,
			Name:           s.Name,
			Status:         s.Status,
			PlannedEndDate: s.PlannedEndDate,
			DelayDays:      CalculateDelay(s, today),
			Critical:       isCritical[s.ID],
			CanStart:       len(blockers) == 0,
		}
		for _, b := range blockers {
			row.Blockers = append(row.Blockers, b.Name)
		}
		out.Stages = append(out.Stages, row)
	}
	return out
}
