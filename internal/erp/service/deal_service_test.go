package service

import (
	"context"
	"testing"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealBoardGroupsAndSums(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Deal.Create(ctx, &DealRequest{Title: "Кухня", Amount: decimal.NewFromInt(200000)})
	require.NoError(t, err)
	_, err = svc.Deal.Create(ctx, &DealRequest{Title: "Шкаф", Amount: decimal.NewFromInt(80000)})
	require.NoError(t, err)
	won, err := svc.Deal.Create(ctx, &DealRequest{Title: "Офис", Amount: decimal.NewFromInt(500000), Stage: entity.DealStageWon})
	require.NoError(t, err)

	board, err := svc.Deal.Board(ctx)
	require.NoError(t, err)
	require.Len(t, board, len(entity.DealStages))

	assert.Equal(t, entity.DealStageNew, board[0].Stage)
	assert.Len(t, board[0].Deals, 2)
	assert.True(t, board[0].Amount.Equal(decimal.NewFromInt(280000)))

	var wonCol entity.DealColumn
	for _, col := range board {
		if col.Stage == entity.DealStageWon {
			wonCol = col
		}
	}
	require.Len(t, wonCol.Deals, 1)
	assert.Equal(t, won.ID, wonCol.Deals[0].ID)
}

func TestDealMoveReordersColumn(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	a, err := svc.Deal.Create(ctx, &DealRequest{Title: "A", Stage: entity.DealStageMeeting})
	require.NoError(t, err)
	b, err := svc.Deal.Create(ctx, &DealRequest{Title: "B", Stage: entity.DealStageMeeting})
	require.NoError(t, err)
	c, err := svc.Deal.Create(ctx, &DealRequest{Title: "C"})
	require.NoError(t, err)

	moved, err := svc.Deal.Move(ctx, c.ID, &MoveDealRequest{Stage: entity.DealStageMeeting, Position: 0})
	require.NoError(t, err)
	assert.Equal(t, entity.DealStageMeeting, moved.Stage)

	deals, err := svc.Deal.List(ctx, entity.DealStageMeeting, "")
	require.NoError(t, err)
	require.Len(t, deals, 3)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{deals[0].ID, deals[1].ID, deals[2].ID})

	_, err = svc.Deal.Move(ctx, c.ID, &MoveDealRequest{Stage: "archive"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Deal.Move(ctx, "missing", &MoveDealRequest{Stage: entity.DealStageWon})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDealValidation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Deal.Create(ctx, &DealRequest{Title: ""})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Deal.Create(ctx, &DealRequest{Title: "X", Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, svc.Deal.Delete(ctx, "missing"), ErrNotFound)
}
