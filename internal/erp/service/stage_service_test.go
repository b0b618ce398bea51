package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageGateBlocksUntilPrerequisiteCompleted(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "Кухня Иванов")

	item, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Шкаф", Quantity: 1})
	require.NoError(t, err)

	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "Замер"}, "u1")
	require.NoError(t, err)
	b, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{
		ItemID: &item.ID, Name: "Производство", DependsOn: []string{a.ID},
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, b.DependsOn)

	_, err = svc.Stage.UpdateStatus(ctx, b.ID, entity.StatusInProgress, "u1")
	var blocked *DependencyBlockedError
	require.True(t, errors.As(err, &blocked), "expected DependencyBlockedError, got %v", err)
	assert.Equal(t, b.ID, blocked.StageID)
	assert.Equal(t, []string{"Замер"}, blocked.Blockers)
	assert.Contains(t, err.Error(), "Замер")

	stored, err := svc.Stage.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.Status, "rejected transition must not be persisted")

	_, err = svc.Stage.UpdateStatus(ctx, a.ID, entity.StatusCompleted, "u1")
	require.NoError(t, err)

	updated, err := svc.Stage.UpdateStatus(ctx, b.ID, entity.StatusInProgress, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, updated.Status)
	assert.NotNil(t, updated.ActualStartDate)
}

func TestStageGateNamesAllBlockers(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")
	item, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Стол"})
	require.NoError(t, err)

	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "A"}, "u1")
	require.NoError(t, err)
	b, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "B"}, "u1")
	require.NoError(t, err)
	c, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{
		ItemID: &item.ID, Name: "C", DependsOn: []string{a.ID, b.ID},
	}, "u1")
	require.NoError(t, err)

	_, err = svc.Stage.UpdateStatus(ctx, c.ID, entity.StatusCompleted, "u1")
	var blocked *DependencyBlockedError
	require.True(t, errors.As(err, &blocked))
	assert.ElementsMatch(t, []string{"A", "B"}, blocked.Blockers)
	assert.Equal(t, "前置阶段未完成: "+strings.Join(blocked.Blockers, ", "), err.Error())
}

func TestStageGateIgnoresOtherItems(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")
	item1, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Шкаф"})
	require.NoError(t, err)
	item2, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Стол"})
	require.NoError(t, err)

	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item1.ID, Name: "A"}, "u1")
	require.NoError(t, err)
	b, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item2.ID, Name: "B"}, "u1")
	require.NoError(t, err)

	// 跨条目的边可以保存，但不参与门禁
	_, err = svc.Stage.AddDependency(ctx, b.ID, a.ID)
	require.NoError(t, err)

	_, err = svc.Stage.UpdateStatus(ctx, b.ID, entity.StatusInProgress, "u1")
	assert.NoError(t, err)

	info, err := svc.Stage.Blockers(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, info.CanStart)
	assert.Empty(t, info.Blockers)
}

func TestStageTransitionToPendingIsNeverGated(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")
	item, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Шкаф"})
	require.NoError(t, err)

	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "A"}, "u1")
	require.NoError(t, err)
	b, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "B", DependsOn: []string{a.ID}}, "u1")
	require.NoError(t, err)

	// 模拟历史数据：B 已在进行中而 A 未完成
	require.NoError(t, db.Model(&entity.ProjectStage{}).Where("id = ?", b.ID).Update("status", entity.StatusInProgress).Error)

	back, err := svc.Stage.UpdateStatus(ctx, b.ID, entity.StatusPending, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, back.Status)
	assert.Nil(t, back.ActualStartDate)
}

func TestStageCreateWithNonPendingStatusIsGated(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")
	item, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Шкаф"})
	require.NoError(t, err)
	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "A"}, "u1")
	require.NoError(t, err)

	_, err = svc.Stage.Create(ctx, projectID, &CreateStageRequest{
		ItemID: &item.ID, Name: "B", Status: entity.StatusInProgress, DependsOn: []string{a.ID},
	}, "u1")
	var blocked *DependencyBlockedError
	require.True(t, errors.As(err, &blocked))

	stages, err := svc.Stage.ListByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, stages, 1, "blocked stage must not be created")
}

func TestAddDependencyRejectsSelfDuplicateAndCycle(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")
	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: "A"}, "u1")
	require.NoError(t, err)
	b, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: "B"}, "u1")
	require.NoError(t, err)

	_, err = svc.Stage.AddDependency(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrValidation)

	dep, err := svc.Stage.AddDependency(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", dep.DependsOnName)

	_, err = svc.Stage.AddDependency(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Stage.AddDependency(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, ErrValidation)

	deps, err := svc.Stage.ListDependencies(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)

	require.NoError(t, svc.Stage.RemoveDependency(ctx, deps[0].ID))
	deps, err = svc.Stage.ListDependencies(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestStageProgressRecomputedOnEveryMutation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")

	var ids []string
	for _, name := range []string{"A", "B", "C", "D"} {
		st, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: name}, "u1")
		require.NoError(t, err)
		ids = append(ids, st.ID)
	}

	_, err := svc.Stage.UpdateStatus(ctx, ids[0], entity.StatusCompleted, "u1")
	require.NoError(t, err)
	p, err := svc.Project.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Progress)

	require.NoError(t, svc.Stage.Delete(ctx, ids[0], "u1"))
	p, err = svc.Project.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Progress)

	for _, id := range ids[1:] {
		require.NoError(t, svc.Stage.Delete(ctx, id, "u1"))
	}
	p, err = svc.Project.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Progress, "project without stages has zero progress")
}

func TestStageProgressRounding(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		st, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: name}, "u1")
		require.NoError(t, err)
		ids = append(ids, st.ID)
	}
	_, err := svc.Stage.UpdateStatus(ctx, ids[0], entity.StatusCompleted, "u1")
	require.NoError(t, err)
	_, err = svc.Stage.UpdateStatus(ctx, ids[1], entity.StatusCompleted, "u1")
	require.NoError(t, err)

	p, err := svc.Project.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 67, p.Progress)
}

func TestStageUpdateUnknownReturnsNotFound(t *testing.T) {
	svc, _ := newTestServices(t)
	_, err := svc.Stage.UpdateStatus(context.Background(), "missing", entity.StatusCompleted, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduleMarksDelay(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")

	_, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{
		Name:             "Просрочен",
		Status:           entity.StatusInProgress,
		PlannedStartDate: "2025-03-01",
		PlannedEndDate:   "2025-03-05",
	}, "u1")
	require.NoError(t, err)

	schedule, err := svc.Stage.Schedule(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, schedule.Stages, 1)
	// 2025-03-10 09:30 相对 2025-03-05 00:00，向上取整
	assert.Equal(t, 6, schedule.Stages[0].DelayDays)
	assert.True(t, schedule.Stages[0].Critical)
}

func TestStageSortOrderUniqueWithinItem(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")
	chair, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Стул"})
	require.NoError(t, err)
	table, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Стол"})
	require.NoError(t, err)

	zero := 0
	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &chair.ID, Name: "A", SortOrder: &zero}, "u1")
	require.NoError(t, err)

	_, err = svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &chair.ID, Name: "B", SortOrder: &zero}, "u1")
	assert.ErrorIs(t, err, ErrValidation)

	// 其他条目和无条目阶段各自计序
	_, err = svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &table.ID, Name: "B", SortOrder: &zero}, "u1")
	require.NoError(t, err)
	_, err = svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: "Общий", SortOrder: &zero}, "u1")
	require.NoError(t, err)

	b, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &chair.ID, Name: "B"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.SortOrder)

	_, err = svc.Stage.Update(ctx, b.ID, &UpdateStageRequest{SortOrder: &zero}, "u1")
	assert.ErrorIs(t, err, ErrValidation)
	stored, err := svc.Stage.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SortOrder)

	_, err = svc.Stage.Update(ctx, a.ID, &UpdateStageRequest{SortOrder: &zero}, "u1")
	assert.NoError(t, err, "keeping its own order is allowed")

	five := 5
	moved, err := svc.Stage.Update(ctx, b.ID, &UpdateStageRequest{SortOrder: &five}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, moved.SortOrder)

	negative := -1
	_, err = svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &chair.ID, Name: "C", SortOrder: &negative}, "u1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStageCreateIgnoresRepeatedPrerequisites(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")

	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: "A"}, "u1")
	require.NoError(t, err)
	b, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: "B", DependsOn: []string{a.ID, a.ID}}, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, b.DependsOn)

	deps, err := svc.Stage.ListDependencies(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, deps, 1)
}

func TestStageDeleteRemovesIncomingAndOutgoingEdges(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")
	item, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Комод"})
	require.NoError(t, err)

	a, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "A"}, "u1")
	require.NoError(t, err)
	b, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "B", DependsOn: []string{a.ID}}, "u1")
	require.NoError(t, err)
	c, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "C", DependsOn: []string{b.ID}}, "u1")
	require.NoError(t, err)

	info, err := svc.Stage.Blockers(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, info.CanStart)

	require.NoError(t, svc.Stage.Delete(ctx, b.ID, "u1"))

	var count int64
	require.NoError(t, db.Model(&entity.StageDependency{}).
		Where("stage_id = ? OR depends_on_stage_id = ?", b.ID, b.ID).Count(&count).Error)
	assert.Zero(t, count)

	info, err = svc.Stage.Blockers(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, info.CanStart)
	assert.Empty(t, info.Blockers)

	_, err = svc.Stage.UpdateStatus(ctx, c.ID, entity.StatusInProgress, "u1")
	assert.NoError(t, err)
}
