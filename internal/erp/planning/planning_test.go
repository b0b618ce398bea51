package planning

import (
	"testing"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func stage(id, item, name, status string) entity.ProjectStage {
	s := entity.ProjectStage{ID: id, ProjectID: "p1", Name: name, Status: status}
	if item != "" {
		s.ItemID = strPtr(item)
	}
	return s
}

func edge(stageID, dependsOn string) entity.StageDependency {
	return entity.StageDependency{ID: stageID + "-" + dependsOn, StageID: stageID, DependsOnStageID: dependsOn}
}

func TestCanStartWithoutIncomingEdges(t *testing.T) {
	ix := NewIndex([]entity.ProjectStage{
		stage("a", "i1", "Design", entity.StatusPending),
		stage("b", "i1", "Production", entity.StatusPending),
	}, []entity.StageDependency{edge("b", "a")})

	assert.True(t, ix.CanStart("a"))
	assert.Empty(t, ix.IncompleteRequired("a"))
	assert.True(t, ix.CanStart("unknown"))
}

func TestIncompleteRequiredSameItemOnly(t *testing.T) {
	ix := NewIndex([]entity.ProjectStage{
		stage("a", "i1", "Design", entity.StatusPending),
		stage("b", "i1", "Materials", entity.StatusInProgress),
		stage("c", "i1", "Production", entity.StatusPending),
		stage("x", "i2", "Other item", entity.StatusPending),
	}, []entity.StageDependency{
		edge("c", "a"),
		edge("c", "b"),
		edge("c", "x"),
	})

	blockers := ix.IncompleteRequired("c")
	require.Len(t, blockers, 2)
	assert.Equal(t, "Design, Materials", StageNames(blockers))
	assert.False(t, ix.CanStart("c"))
}

func TestCompletedPrerequisiteDoesNotBlock(t *testing.T) {
	ix := NewIndex([]entity.ProjectStage{
		stage("a", "i1", "Design", entity.StatusCompleted),
		stage("b", "i1", "Production", entity.StatusPending),
	}, []entity.StageDependency{edge("b", "a")})

	assert.True(t, ix.CanStart("b"))
}

func TestCrossItemEdgeIgnored(t *testing.T) {
	ix := NewIndex([]entity.ProjectStage{
		stage("a", "i1", "Design", entity.StatusPending),
		stage("b", "i2", "Production", entity.StatusPending),
		stage("c", "", "Loose stage", entity.StatusPending),
	}, []entity.StageDependency{edge("b", "a"), edge("c", "a")})

	assert.True(t, ix.CanStart("b"))
	assert.True(t, ix.CanStart("c"))
}

func TestStagesWithoutItemShareScope(t *testing.T) {
	ix := NewIndex([]entity.ProjectStage{
		stage("a", "", "Measure", entity.StatusPending),
		stage("b", "", "Install", entity.StatusPending),
	}, []entity.StageDependency{edge("b", "a")})

	require.Len(t, ix.IncompleteRequired("b"), 1)
	assert.Equal(t, "Measure", ix.IncompleteRequired("b")[0].Name)
}

func TestDuplicateEdgeNamedOnce(t *testing.T) {
	ix := NewIndex([]entity.ProjectStage{
		stage("a", "i1", "Design", entity.StatusPending),
		stage("b", "i1", "Production", entity.StatusPending),
	}, []entity.StageDependency{edge("b", "a"), {ID: "dup", StageID: "b", DependsOnStageID: "a"}})

	assert.Len(t, ix.IncompleteRequired("b"), 1)
}

func TestWouldCycle(t *testing.T) {
	ix := NewIndex([]entity.ProjectStage{
		stage("a", "i1", "A", entity.StatusPending),
		stage("b", "i1", "B", entity.StatusPending),
		stage("c", "i1", "C", entity.StatusPending),
	}, []entity.StageDependency{edge("b", "a"), edge("c", "b")})

	assert.True(t, ix.WouldCycle("a", "a"))
	assert.True(t, ix.WouldCycle("a", "c"))
	assert.True(t, ix.WouldCycle("a", "b"))
	assert.False(t, ix.WouldCycle("c", "a"))
}

func TestRequiresGate(t *testing.T) {
	assert.False(t, RequiresGate(entity.StatusPending))
	assert.True(t, RequiresGate(entity.StatusInProgress))
	assert.True(t, RequiresGate(entity.StatusCompleted))
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     int
	}{
		{"no stages", nil, 0},
		{"one of four", []string{"completed", "pending", "pending", "in_progress"}, 25},
		{"none of three", []string{"pending", "pending", "in_progress"}, 0},
		{"two of three", []string{"completed", "completed", "pending"}, 67},
		{"one of three", []string{"completed", "pending", "pending"}, 33},
		{"one of two", []string{"completed", "pending"}, 50},
		{"all", []string{"completed", "completed"}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stages []entity.ProjectStage
			for i, s := range tt.statuses {
				stages = append(stages, entity.ProjectStage{ID: string(rune('a' + i)), Status: s})
			}
			assert.Equal(t, tt.want, Progress(stages))
		})
	}
}

func TestCalculateDelay(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		stage entity.ProjectStage
		want  int
	}{
		{"no planned end", entity.ProjectStage{Status: entity.StatusInProgress}, 0},
		{"completed", entity.ProjectStage{Status: entity.StatusCompleted, PlannedEndDate: timePtr(end)}, 0},
		{"pending past end", entity.ProjectStage{Status: entity.StatusPending, PlannedEndDate: timePtr(end)}, 0},
		{"in progress past end rounds up", entity.ProjectStage{Status: entity.StatusInProgress, PlannedEndDate: timePtr(end)}, 3},
		{"in progress exact days", entity.ProjectStage{Status: entity.StatusInProgress, PlannedEndDate: timePtr(today.Add(-48 * time.Hour))}, 2},
		{"in progress not yet due", entity.ProjectStage{Status: entity.StatusInProgress, PlannedEndDate: timePtr(today.Add(time.Hour))}, 0},
		{"in progress due now", entity.ProjectStage{Status: entity.StatusInProgress, PlannedEndDate: timePtr(today)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateDelay(&tt.stage, today))
		})
	}
}

func TestFindCriticalPathOneHop(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	late := stage("a", "i1", "Design", entity.StatusInProgress)
	late.PlannedEndDate = timePtr(today.AddDate(0, 0, -1))

	ix := NewIndex([]entity.ProjectStage{
		late,
		stage("b", "i1", "Production", entity.StatusPending),
		stage("c", "i1", "Assembly", entity.StatusPending),
		stage("d", "i1", "Unrelated", entity.StatusPending),
	}, []entity.StageDependency{edge("b", "a"), edge("c", "b")})

	assert.Equal(t, []string{"a", "b"}, FindCriticalPath(ix, today))
}

func TestFindCriticalPathNothingLate(t *testing.T) {
	ix := NewIndex([]entity.ProjectStage{
		stage("a", "i1", "Design", entity.StatusPending),
	}, nil)
	assert.Empty(t, FindCriticalPath(ix, time.Now()))
}

func TestBuildSchedule(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	late := stage("a", "i1", "Design", entity.StatusInProgress)
	late.PlannedEndDate = timePtr(today.AddDate(0, 0, -2))

	ix := NewIndex([]entity.ProjectStage{
		late,
		stage("b", "i1", "Production", entity.StatusPending),
	}, []entity.StageDependency{edge("b", "a")})

	sched := BuildSchedule("p1", ix, today)
	require.Len(t, sched.Stages, 2)
	assert.Equal(t, 2, sched.Stages[0].DelayDays)
	assert.True(t, sched.Stages[0].Critical)
	assert.True(t, sched.Stages[1].Critical)
	assert.False(t, sched.Stages[1].CanStart)
	assert.Equal(t, []string{"Design"}, sched.Stages[1].Blockers)
}
