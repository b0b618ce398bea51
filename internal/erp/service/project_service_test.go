package service

import (
	"context"
	"testing"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectFromInvoice(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	doc, err := svc.Document.Create(ctx, invoiceRequest(), "u1")
	require.NoError(t, err)

	project, err := svc.Project.CreateFromDocument(ctx, doc.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ООО Берёза", project.ClientName)
	require.NotNil(t, project.DocumentID)
	assert.Equal(t, doc.ID, *project.DocumentID)
	assert.Equal(t, 0, project.Progress)
	assert.Equal(t, 15, project.DurationDays)

	items, err := svc.Project.ListItems(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	stages, err := svc.Stage.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, stages, 6, "three template stages per item")

	byItem := make(map[string][]entity.ProjectStage)
	for _, st := range stages {
		require.NotNil(t, st.ItemID)
		byItem[*st.ItemID] = append(byItem[*st.ItemID], st)
	}
	for _, chain := range byItem {
		require.Len(t, chain, 3)
		assert.Equal(t, "设计", chain[0].Name)
		assert.Empty(t, chain[0].DependsOn)
		assert.True(t, *chain[0].CanStart)
		assert.Equal(t, []string{chain[0].ID}, chain[1].DependsOn)
		assert.False(t, *chain[1].CanStart)
		assert.Equal(t, []string{chain[1].ID}, chain[2].DependsOn)

		start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
		require.NotNil(t, chain[2].PlannedStartDate)
		assert.True(t, chain[2].PlannedStartDate.Equal(start.AddDate(0, 0, 10)))
	}

	// 门禁对生成的阶段同样生效
	_, err = svc.Stage.UpdateStatus(ctx, byItem[items[0].ID][1].ID, entity.StatusInProgress, "u1")
	var blocked *DependencyBlockedError
	assert.ErrorAs(t, err, &blocked)
}

func TestCreateProjectFromDocumentRejectsNonInvoice(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	req := invoiceRequest()
	req.Type = entity.DocTypeQuote
	quote, err := svc.Document.Create(ctx, req, "u1")
	require.NoError(t, err)
	_, err = svc.Project.CreateFromDocument(ctx, quote.ID, "u1")
	assert.ErrorIs(t, err, ErrValidation)

	empty, err := svc.Document.Create(ctx, &CreateDocumentRequest{Type: entity.DocTypeInvoice}, "u1")
	require.NoError(t, err)
	_, err = svc.Project.CreateFromDocument(ctx, empty.ID, "u1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Project.CreateFromDocument(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectUpdateKeepsDerivedProgress(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "Гостиная")

	st, err := svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: "A", Status: entity.StatusCompleted}, "u1")
	require.NoError(t, err)
	assert.NotNil(t, st.ActualEndDate)

	name := "Гостиная 2"
	p, err := svc.Project.Update(ctx, projectID, &UpdateProjectRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Гостиная 2", p.Name)
	assert.Equal(t, 100, p.Progress)
}

func TestDeleteItemRecomputesProgress(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	projectID := mustCreateProject(t, svc, "P")

	item, err := svc.Project.CreateItem(ctx, projectID, &ItemRequest{Name: "Шкаф"})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	_, err = svc.Stage.Create(ctx, projectID, &CreateStageRequest{ItemID: &item.ID, Name: "A"}, "u1")
	require.NoError(t, err)
	_, err = svc.Stage.Create(ctx, projectID, &CreateStageRequest{Name: "Общий", Status: entity.StatusCompleted}, "u1")
	require.NoError(t, err)

	p, err := svc.Project.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Progress)

	require.NoError(t, svc.Project.DeleteItem(ctx, item.ID))
	p, err = svc.Project.Get(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Progress)
}

func TestProjectDeleteCascades(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	doc, err := svc.Document.Create(ctx, invoiceRequest(), "u1")
	require.NoError(t, err)
	project, err := svc.Project.CreateFromDocument(ctx, doc.ID, "u1")
	require.NoError(t, err)

	otherID := mustCreateProject(t, svc, "Соседний")
	first, err := svc.Stage.Create(ctx, otherID, &CreateStageRequest{Name: "A"}, "u1")
	require.NoError(t, err)
	_, err = svc.Stage.Create(ctx, otherID, &CreateStageRequest{Name: "B", DependsOn: []string{first.ID}}, "u1")
	require.NoError(t, err)

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	require.EqualValues(t, 2, count(&entity.ProjectItem{}))
	require.EqualValues(t, 8, count(&entity.ProjectStage{}))
	require.EqualValues(t, 5, count(&entity.StageDependency{}))

	require.NoError(t, svc.Project.Delete(ctx, project.ID))

	_, err = svc.Project.Get(ctx, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 0, count(&entity.ProjectItem{}))
	assert.EqualValues(t, 2, count(&entity.ProjectStage{}), "other project's stages survive")
	assert.EqualValues(t, 1, count(&entity.StageDependency{}), "other project's edge survives")
}
