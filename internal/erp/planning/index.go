// Package planning 阶段依赖索引、进度与延期计算，不访问存储。
package planning

import (
	"strings"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
)

// Index 单个项目的阶段依赖索引，每个请求构建一次
type Index struct {
	stages        map[string]*entity.ProjectStage
	order         []string
	prerequisites map[string][]string
	dependents    map[string][]string
}

// NewIndex 根据阶段与依赖边构建索引
func NewIndex(stages []entity.ProjectStage, deps []entity.StageDependency) *Index {
	ix := &Index{
		stages:        make(map[string]*entity.ProjectStage, len(stages)),
		order:         make([]string, 0, len(stages)),
		prerequisites: make(map[string][]string),
		dependents:    make(map[string][]string),
	}
	for i := range stages {
		s := &stages[i]
		ix.stages[s.ID] = s
		ix.order = append(ix.order, s.ID)
	}
	for _, d := range deps {
		ix.prerequisites[d.StageID] = append(ix.prerequisites[d.StageID], d.DependsOnStageID)
		ix.dependents[d.DependsOnStageID] = append(ix.dependents[d.DependsOnStageID], d.StageID)
	}
	return ix
}

// Stage 按ID取阶段
func (ix *Index) Stage(id string) (*entity.ProjectStage, bool) {
	s, ok := ix.stages[id]
	return s, ok
}

// Stages 按构建顺序返回全部阶段
func (ix *Index) Stages() []*entity.ProjectStage {
	out := make([]*entity.ProjectStage, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.stages[id])
	}
	return out
}

// Prerequisites 直接前置阶段ID
func (ix *Index) Prerequisites(stageID string) []string {
	return ix.prerequisites[stageID]
}

// Dependents 直接后继阶段ID
func (ix *Index) Dependents(stageID string) []string {
	return ix.dependents[stageID]
}

// IncompleteRequired 同一条目内尚未完成的前置阶段。跨条目的依赖边不参与计算。
func (ix *Index) IncompleteRequired(stageID string) []*entity.ProjectStage {
	stage, ok := ix.stages[stageID]
	if !ok {
		return nil
	}
	var out []*entity.ProjectStage
	seen := make(map[string]bool)
	for _, preID := range ix.prerequisites[stageID] {
		if seen[preID] {
			continue
		}
		seen[preID] = true
		pre, ok := ix.stages[preID]
		if !ok || !stage.SameItem(pre) {
			continue
		}
		if pre.Status != entity.StatusCompleted {
			out = append(out, pre)
		}
	}
	return out
}

// CanStart 没有未完成的同条目前置阶段
func (ix *Index) CanStart(stageID string) bool {
	return len(ix.IncompleteRequired(stageID)) == 0
}

// WouldCycle 新增 stageID -> dependsOnID 的依赖边是否会形成环（含自环）
func (ix *Index) WouldCycle(stageID, dependsOnID string) bool {
	if stageID == dependsOnID {
		return true
	}
	// dependsOnID 已经（间接）依赖 stageID 时成环
	visited := make(map[string]bool)
	stack := []string{dependsOnID}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == stageID {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, ix.prerequisites[cur]...)
	}
	return false
}

// StageNames 阶段名称，逗号分隔
func StageNames(stages []*entity.ProjectStage) string {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

// RequiresGate 只有离开 pending 的状态变更需要检查依赖
func RequiresGate(status string) bool {
	return status != entity.StatusPending
}
