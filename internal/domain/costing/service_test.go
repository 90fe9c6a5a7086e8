package costing

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/core/types"
	"obraplan/internal/domain/catalogs/project"
	"obraplan/internal/domain/catalogs/task"
	"obraplan/pkg/logger"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeTaskRepo overrides only the methods the costing service touches;
// embedding the interface leaves the rest to panic if called.
type fakeTaskRepo struct {
	task.Repository

	tasks map[id.ID]*task.Task
	lines map[id.ID][]task.ServiceLine

	updateCostsCalls int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks: make(map[id.ID]*task.Task),
		lines: make(map[id.ID][]task.ServiceLine),
	}
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, taskID id.ID) (*task.Task, error) {
	t, ok := r.tasks[taskID]
	if !ok {
		return nil, apperror.NewNotFound("task", taskID.String())
	}
	return t, nil
}

func (r *fakeTaskRepo) GetLines(ctx context.Context, taskID id.ID) ([]task.ServiceLine, error) {
	return r.lines[taskID], nil
}

func (r *fakeTaskRepo) ListByProject(ctx context.Context, projectID id.ID) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range r.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) UpdateCosts(ctx context.Context, taskID id.ID, labor, material, equipment types.Money) error {
	t, ok := r.tasks[taskID]
	if !ok {
		return apperror.NewNotFound("task", taskID.String())
	}
	t.LaborCost = labor
	t.MaterialCost = material
	t.EquipmentCost = equipment
	r.updateCostsCalls++
	return nil
}

type fakeProjectRepo struct {
	project.Repository

	realized map[id.ID]types.Money
	progress map[id.ID]decimal.Decimal
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		realized: make(map[id.ID]types.Money),
		progress: make(map[id.ID]decimal.Decimal),
	}
}

func (r *fakeProjectRepo) UpdateCostSummary(ctx context.Context, projectID id.ID, realizedCost types.Money, progress decimal.Decimal) error {
	r.realized[projectID] = realizedCost
	r.progress[projectID] = progress
	return nil
}

func money(t *testing.T, s string) types.Money {
	t.Helper()
	m, err := types.NewMoneyFromString(s)
	require.NoError(t, err)
	return m
}

func quantity(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.NewQuantityFromString(s)
	require.NoError(t, err)
	return q
}

func newService(taskRepo *fakeTaskRepo, projectRepo *fakeProjectRepo) *Service {
	log, _ := logger.New(logger.Config{Level: "error"})
	return NewService(taskRepo, projectRepo, passthroughTx{}, log)
}

func TestRecalculateTaskCosts_FromLines(t *testing.T) {
	ctx := context.Background()
	taskRepo := newFakeTaskRepo()
	projectRepo := newFakeProjectRepo()
	svc := newService(taskRepo, projectRepo)

	projectID := id.New()
	tk := task.NewTask("TRF-001", "Alvenaria bloco", projectID)
	taskRepo.tasks[tk.ID] = tk

	// 10 m2 of a service priced 4.00 labor / 1.00 material / 0.20 equipment
	// per unit gives buckets of 40 / 10 / 2.
	taskRepo.lines[tk.ID] = []task.ServiceLine{
		{
			LineID:            id.New(),
			LineNo:            1,
			ServiceID:         id.New(),
			Quantity:          quantity(t, "10"),
			LaborUnitCost:     money(t, "4.00"),
			MaterialUnitCost:  money(t, "1.00"),
			EquipmentUnitCost: money(t, "0.20"),
		},
	}

	require.NoError(t, svc.RecalculateTaskCosts(ctx, tk.ID))

	assert.True(t, tk.LaborCost.Equal(money(t, "40")), "labor = %s", tk.LaborCost)
	assert.True(t, tk.MaterialCost.Equal(money(t, "10")), "material = %s", tk.MaterialCost)
	assert.True(t, tk.EquipmentCost.Equal(money(t, "2")), "equipment = %s", tk.EquipmentCost)
	assert.True(t, tk.TotalCost().Equal(money(t, "52")), "total = %s", tk.TotalCost())
}

func TestRecalculateTaskCosts_LaborOverride(t *testing.T) {
	ctx := context.Background()
	taskRepo := newFakeTaskRepo()
	projectRepo := newFakeProjectRepo()
	svc := newService(taskRepo, projectRepo)

	projectID := id.New()
	tk := task.NewTask("TRF-001", "Reboco interno", projectID)
	taskRepo.tasks[tk.ID] = tk

	override := money(t, "6.00")
	taskRepo.lines[tk.ID] = []task.ServiceLine{
		{
			LineID:            id.New(),
			LineNo:            1,
			ServiceID:         id.New(),
			Quantity:          quantity(t, "10"),
			LaborUnitCost:     money(t, "4.00"),
			MaterialUnitCost:  money(t, "1.00"),
			EquipmentUnitCost: money(t, "0.20"),
			LaborCostOverride: &override,
		},
	}

	require.NoError(t, svc.RecalculateTaskCosts(ctx, tk.ID))

	assert.True(t, tk.LaborCost.Equal(money(t, "60")), "labor = %s", tk.LaborCost)
	assert.True(t, tk.MaterialCost.Equal(money(t, "10")))
}

func TestRecalculateTaskCosts_LinelessTaskKeepsDirectCosts(t *testing.T) {
	ctx := context.Background()
	taskRepo := newFakeTaskRepo()
	projectRepo := newFakeProjectRepo()
	svc := newService(taskRepo, projectRepo)

	projectID := id.New()
	tk := task.NewTask("TRF-001", "Limpeza final", projectID)
	tk.LaborCost = money(t, "500")
	taskRepo.tasks[tk.ID] = tk

	require.NoError(t, svc.RecalculateTaskCosts(ctx, tk.ID))

	assert.Zero(t, taskRepo.updateCostsCalls)
	assert.True(t, tk.LaborCost.Equal(money(t, "500")))
	// The project rollup still runs.
	_, ok := projectRepo.realized[projectID]
	assert.True(t, ok)
}

func TestRecalculateProject_RealizedCostFromCompletedOnly(t *testing.T) {
	ctx := context.Background()
	taskRepo := newFakeTaskRepo()
	projectRepo := newFakeProjectRepo()
	svc := newService(taskRepo, projectRepo)

	projectID := id.New()

	done := task.NewTask("TRF-001", "Fundação", projectID)
	done.Status = task.StatusCompleted
	done.LaborCost = money(t, "40")
	done.MaterialCost = money(t, "10")
	done.EquipmentCost = money(t, "2")
	taskRepo.tasks[done.ID] = done

	running := task.NewTask("TRF-002", "Estrutura", projectID)
	running.Status = task.StatusInProgress
	running.LaborCost = money(t, "1000")
	taskRepo.tasks[running.ID] = running

	require.NoError(t, svc.RecalculateProject(ctx, projectID))

	realized, ok := projectRepo.realized[projectID]
	require.True(t, ok)
	assert.True(t, realized.Equal(money(t, "52")), "realized = %s", realized)
}

func TestRecalculateProject_ProgressIsMeanOfTasks(t *testing.T) {
	ctx := context.Background()
	taskRepo := newFakeTaskRepo()
	projectRepo := newFakeProjectRepo()
	svc := newService(taskRepo, projectRepo)

	projectID := id.New()
	for i, progress := range []int{100, 50, 0} {
		tk := task.NewTask(fmt.Sprintf("TRF-00%d", i+1), "Etapa", projectID)
		tk.Progress = progress
		taskRepo.tasks[tk.ID] = tk
	}

	require.NoError(t, svc.RecalculateProject(ctx, projectID))

	progress := projectRepo.progress[projectID]
	assert.True(t, progress.Equal(decimal.NewFromInt(50)), "progress = %s", progress)
}

func TestRecalculateProject_NoTasks(t *testing.T) {
	ctx := context.Background()
	taskRepo := newFakeTaskRepo()
	projectRepo := newFakeProjectRepo()
	svc := newService(taskRepo, projectRepo)

	projectID := id.New()
	require.NoError(t, svc.RecalculateProject(ctx, projectID))

	assert.True(t, projectRepo.realized[projectID].IsZero())
	assert.True(t, projectRepo.progress[projectID].IsZero())
}

type txScopeKey struct{}

// markingTx tags the context so repo fakes can tell whether a call
// happened inside the transaction.
type markingTx struct{}

func (markingTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(context.WithValue(ctx, txScopeKey{}, true))
}

type txScopedTaskRepo struct {
	*fakeTaskRepo
	t *testing.T
}

func (r *txScopedTaskRepo) requireInTx(ctx context.Context, method string) {
	r.t.Helper()
	inTx, _ := ctx.Value(txScopeKey{}).(bool)
	require.True(r.t, inTx, "%s called outside transaction", method)
}

func (r *txScopedTaskRepo) GetByID(ctx context.Context, taskID id.ID) (*task.Task, error) {
	r.requireInTx(ctx, "GetByID")
	return r.fakeTaskRepo.GetByID(ctx, taskID)
}

func (r *txScopedTaskRepo) GetLines(ctx context.Context, taskID id.ID) ([]task.ServiceLine, error) {
	r.requireInTx(ctx, "GetLines")
	return r.fakeTaskRepo.GetLines(ctx, taskID)
}

func (r *txScopedTaskRepo) ListByProject(ctx context.Context, projectID id.ID) ([]*task.Task, error) {
	r.requireInTx(ctx, "ListByProject")
	return r.fakeTaskRepo.ListByProject(ctx, projectID)
}

func (r *txScopedTaskRepo) UpdateCosts(ctx context.Context, taskID id.ID, labor, material, equipment types.Money) error {
	r.requireInTx(ctx, "UpdateCosts")
	return r.fakeTaskRepo.UpdateCosts(ctx, taskID, labor, material, equipment)
}

func TestRecalculateTaskCosts_ReadsAndWritesShareTransaction(t *testing.T) {
	ctx := context.Background()
	taskRepo := newFakeTaskRepo()
	projectRepo := newFakeProjectRepo()
	log, _ := logger.New(logger.Config{Level: "error"})
	svc := NewService(&txScopedTaskRepo{fakeTaskRepo: taskRepo, t: t}, projectRepo, markingTx{}, log)

	projectID := id.New()
	tk := task.NewTask("TRF-001", "Alvenaria bloco", projectID)
	taskRepo.tasks[tk.ID] = tk
	taskRepo.lines[tk.ID] = []task.ServiceLine{
		{
			LineID:        id.New(),
			LineNo:        1,
			ServiceID:     id.New(),
			Quantity:      quantity(t, "10"),
			LaborUnitCost: money(t, "4.00"),
		},
	}

	require.NoError(t, svc.RecalculateTaskCosts(ctx, tk.ID))
	assert.Equal(t, 1, taskRepo.updateCostsCalls)
}

func TestRecalculate_Idempotent(t *testing.T) {
	ctx := context.Background()
	taskRepo := newFakeTaskRepo()
	projectRepo := newFakeProjectRepo()
	svc := newService(taskRepo, projectRepo)

	projectID := id.New()
	tk := task.NewTask("TRF-001", "Alvenaria", projectID)
	tk.Status = task.StatusCompleted
	tk.Progress = 80
	taskRepo.tasks[tk.ID] = tk
	taskRepo.lines[tk.ID] = []task.ServiceLine{
		{
			LineID:            id.New(),
			LineNo:            1,
			ServiceID:         id.New(),
			Quantity:          quantity(t, "7.5"),
			LaborUnitCost:     money(t, "12.40"),
			MaterialUnitCost:  money(t, "3.10"),
			EquipmentUnitCost: money(t, "0.55"),
		},
	}

	require.NoError(t, svc.RecalculateTaskCosts(ctx, tk.ID))
	firstRealized := projectRepo.realized[projectID]
	firstProgress := projectRepo.progress[projectID]
	firstTotal := tk.TotalCost()

	require.NoError(t, svc.RecalculateTaskCosts(ctx, tk.ID))

	assert.True(t, tk.TotalCost().Equal(firstTotal))
	assert.True(t, projectRepo.realized[projectID].Equal(firstRealized))
	assert.True(t, projectRepo.progress[projectID].Equal(firstProgress))
}
