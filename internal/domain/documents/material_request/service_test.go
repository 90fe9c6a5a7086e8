package material_request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/core/security"
	"obraplan/internal/core/types"
	"obraplan/internal/domain"
	"obraplan/internal/domain/auth"
	"obraplan/internal/domain/catalogs/material"
	"obraplan/internal/domain/catalogs/project"
	"obraplan/internal/domain/registers/stock"
	"obraplan/pkg/numerator"
)

// passthroughTx runs the function directly. The fakes keep their own state,
// so there is nothing to commit or roll back.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRequestRepo struct {
	requests map[id.ID]*MaterialRequest
	items    map[id.ID][]Item
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests: make(map[id.ID]*MaterialRequest),
		items:    make(map[id.ID][]Item),
	}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *MaterialRequest) error {
	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, requestID id.ID) (*MaterialRequest, error) {
	req, ok := r.requests[requestID]
	if !ok {
		return nil, apperror.NewNotFound("material_request", requestID.String())
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRequestRepo) GetForUpdate(ctx context.Context, requestID id.ID) (*MaterialRequest, error) {
	return r.GetByID(ctx, requestID)
}

func (r *fakeRequestRepo) GetByNumber(ctx context.Context, number string) (*MaterialRequest, error) {
	for _, req := range r.requests {
		if req.Number == number {
			copied := *req
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("material_request", number)
}

func (r *fakeRequestRepo) Update(ctx context.Context, req *MaterialRequest) error {
	if _, ok := r.requests[req.ID]; !ok {
		return apperror.NewNotFound("material_request", req.ID.String())
	}
	stored := *req
	r.requests[req.ID] = &stored
	return nil
}

func (r *fakeRequestRepo) Delete(ctx context.Context, requestID id.ID) error {
	delete(r.requests, requestID)
	delete(r.items, requestID)
	return nil
}

func (r *fakeRequestRepo) GetItems(ctx context.Context, requestID id.ID) ([]Item, error) {
	return append([]Item(nil), r.items[requestID]...), nil
}

func (r *fakeRequestRepo) SaveItems(ctx context.Context, requestID id.ID, items []Item) error {
	r.items[requestID] = append([]Item(nil), items...)
	return nil
}

func (r *fakeRequestRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*MaterialRequest], error) {
	result := domain.ListResult[*MaterialRequest]{}
	for _, req := range r.requests {
		copied := *req
		result.Items = append(result.Items, &copied)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

// fakeStockRepo keeps balances in memory and enforces the same decrement
// guard the database does.
type fakeStockRepo struct {
	balances  map[id.ID]types.Quantity
	movements []entity.StockMovement
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{balances: make(map[id.ID]types.Quantity)}
}

func (r *fakeStockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *fakeStockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) GetMovementHistory(ctx context.Context, materialID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.MaterialID == materialID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) GetBalance(ctx context.Context, materialID id.ID) (entity.StockBalance, error) {
	return entity.StockBalance{MaterialID: materialID, Quantity: r.balances[materialID]}, nil
}

func (r *fakeStockRepo) GetBalanceForUpdate(ctx context.Context, materialID id.ID) (entity.StockBalance, error) {
	return r.GetBalance(ctx, materialID)
}

func (r *fakeStockRepo) GetBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	var out []entity.StockBalance
	for materialID, qty := range r.balances {
		out = append(out, entity.StockBalance{MaterialID: materialID, Quantity: qty})
	}
	return out, nil
}

func (r *fakeStockRepo) DecreaseBalance(ctx context.Context, materialID id.ID, quantity types.Quantity) error {
	current := r.balances[materialID]
	if current < quantity {
		return apperror.NewInsufficientStock(materialID.String(), quantity.String(), current.String())
	}
	r.balances[materialID] = current - quantity
	return nil
}

func (r *fakeStockRepo) IncreaseBalance(ctx context.Context, materialID id.ID, quantity types.Quantity) error {
	r.balances[materialID] += quantity
	return nil
}

type fakeProjects struct {
	projects map[id.ID]*project.Project
}

func (f *fakeProjects) GetByID(ctx context.Context, projectID id.ID) (*project.Project, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return nil, apperror.NewNotFound("project", projectID.String())
	}
	return p, nil
}

type fakeMaterials struct {
	materials map[id.ID]*material.Material
}

func (f *fakeMaterials) GetByID(ctx context.Context, materialID id.ID) (*material.Material, error) {
	m, ok := f.materials[materialID]
	if !ok {
		return nil, apperror.NewNotFound("material", materialID.String())
	}
	return m, nil
}

type fakeUsers struct {
	users map[id.ID]*auth.User
}

func (f *fakeUsers) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return u, nil
}

type denyPolicy struct{}

func (denyPolicy) Authorize(ctx context.Context, in security.ApprovalInput) error {
	return apperror.NewForbidden("approval denied by policy")
}

// fixture wires a service over in-memory fakes with one active project,
// a requester, an approver, and the given materials with opening balances.
type fixture struct {
	service   *Service
	repo      *fakeRequestRepo
	stockRepo *fakeStockRepo
	project   *project.Project
	requester *auth.User
	approver  *auth.User
}

type fixtureMaterial struct {
	material *material.Material
	balance  string
}

func newFixture(t *testing.T, policy security.ApprovalPolicy, mats ...fixtureMaterial) *fixture {
	t.Helper()

	proj := project.NewProject("OBR-001", "Residencial Aurora", mustMoney(t, "500000"))
	proj.Status = project.StatusInProgress

	requester := &auth.User{ID: id.New(), Email: "pedro@obraplan.io", Name: "Pedro", IsActive: true}
	approver := &auth.User{ID: id.New(), Email: "ana@obraplan.io", Name: "Ana", IsActive: true, Roles: []string{"approver"}}

	stockRepo := newFakeStockRepo()
	materials := make(map[id.ID]*material.Material, len(mats))
	for _, fm := range mats {
		materials[fm.material.ID] = fm.material
		if fm.balance != "" {
			stockRepo.balances[fm.material.ID] = mustQty(t, fm.balance)
		}
	}

	repo := newFakeRequestRepo()
	num := &numerator.MockGenerator{
		GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			return "SM-2026-00001", nil
		},
	}

	svc := NewService(
		repo,
		&fakeProjects{projects: map[id.ID]*project.Project{proj.ID: proj}},
		&fakeMaterials{materials: materials},
		&fakeUsers{users: map[id.ID]*auth.User{requester.ID: requester, approver.ID: approver}},
		stock.NewService(stockRepo),
		policy,
		passthroughTx{},
		num,
	)

	return &fixture{
		service:   svc,
		repo:      repo,
		stockRepo: stockRepo,
		project:   proj,
		requester: requester,
		approver:  approver,
	}
}

func newTestMaterial(t *testing.T, code, name string, unit material.Unit, price string) *material.Material {
	t.Helper()
	return material.NewMaterial(code, name, unit, mustMoney(t, price))
}

func TestServiceCreate_SnapshotsPrices(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, nil, fixtureMaterial{material: cement, balance: "100"})

	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items: []ItemInput{
			{MaterialID: cement.ID, Quantity: "30"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "SM-2026-00001", req.Number)
	assert.Equal(t, StatusPending, req.Status)
	require.Len(t, req.Items, 1)
	assert.True(t, req.Items[0].UnitPrice.Equal(mustMoney(t, "32.90")))
	assert.True(t, req.TotalAmount.Equal(mustMoney(t, "987.00")))

	// No stock interaction before approval.
	balance, err := fx.stockRepo.GetBalance(ctx, cement.ID)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "100"), balance.Quantity)
}

func TestServiceCreate_RejectsInactiveProject(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, nil, fixtureMaterial{material: cement, balance: "100"})
	fx.project.Status = project.StatusCompleted

	_, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items:       []ItemInput{{MaterialID: cement.ID, Quantity: "1"}},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestServiceApprove_DecrementsStock(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, nil, fixtureMaterial{material: cement, balance: "100"})

	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items:       []ItemInput{{MaterialID: cement.ID, Quantity: "30"}},
	})
	require.NoError(t, err)

	approved, err := fx.service.Approve(ctx, req.ID, fx.approver.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, fx.approver.ID, *approved.ApprovedBy)

	balance, err := fx.stockRepo.GetBalance(ctx, cement.ID)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "70"), balance.Quantity)

	movements, err := fx.stockRepo.GetMovementsByRecorder(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.RecordTypeExpense, movements[0].RecordType)
	assert.Equal(t, "MaterialRequest", movements[0].RecorderType)
	assert.Equal(t, mustQty(t, "30"), movements[0].Quantity)
}

func TestServiceApprove_InsufficientStockAbortsWhole(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	sand := newTestMaterial(t, "MAT-002", "Areia média", material.UnitM3, "120.00")
	fx := newFixture(t, nil,
		fixtureMaterial{material: cement, balance: "100"},
		fixtureMaterial{material: sand, balance: "10"},
	)

	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items: []ItemInput{
			{MaterialID: cement.ID, Quantity: "30"},
			{MaterialID: sand.ID, Quantity: "15"},
		},
	})
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, req.ID, fx.approver.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing changed: both balances intact, no movements, still pending.
	cementBalance, _ := fx.stockRepo.GetBalance(ctx, cement.ID)
	sandBalance, _ := fx.stockRepo.GetBalance(ctx, sand.ID)
	assert.Equal(t, mustQty(t, "100"), cementBalance.Quantity)
	assert.Equal(t, mustQty(t, "10"), sandBalance.Quantity)
	assert.Empty(t, fx.stockRepo.movements)

	stored, err := fx.repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestServiceApprove_DuplicateMaterialLinesSummed(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, nil, fixtureMaterial{material: cement, balance: "50"})

	// Two lines of 30 each need 60 in total; 50 on hand must fail even
	// though each line alone would pass.
	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items: []ItemInput{
			{MaterialID: cement.ID, Quantity: "30"},
			{MaterialID: cement.ID, Quantity: "30"},
		},
	})
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, req.ID, fx.approver.ID)
	assert.True(t, apperror.IsInsufficientStock(err))

	balance, _ := fx.stockRepo.GetBalance(ctx, cement.ID)
	assert.Equal(t, mustQty(t, "50"), balance.Quantity)
}

func TestServiceApprove_OnlyFromPending(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, nil, fixtureMaterial{material: cement, balance: "100"})

	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items:       []ItemInput{{MaterialID: cement.ID, Quantity: "30"}},
	})
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, req.ID, fx.approver.ID)
	require.NoError(t, err)

	// Second approval must not decrement again.
	_, err = fx.service.Approve(ctx, req.ID, fx.approver.ID)
	assert.True(t, apperror.IsInvalidRequestState(err))

	balance, _ := fx.stockRepo.GetBalance(ctx, cement.ID)
	assert.Equal(t, mustQty(t, "70"), balance.Quantity)
}

func TestServiceApprove_PolicyDenied(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, denyPolicy{}, fixtureMaterial{material: cement, balance: "100"})

	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items:       []ItemInput{{MaterialID: cement.ID, Quantity: "30"}},
	})
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, req.ID, fx.approver.ID)
	require.Error(t, err)

	balance, _ := fx.stockRepo.GetBalance(ctx, cement.ID)
	assert.Equal(t, mustQty(t, "100"), balance.Quantity)

	stored, err := fx.repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestServiceReject_NoStockInteraction(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, nil, fixtureMaterial{material: cement, balance: "100"})

	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items:       []ItemInput{{MaterialID: cement.ID, Quantity: "30"}},
	})
	require.NoError(t, err)

	rejected, err := fx.service.Reject(ctx, req.ID, fx.approver.ID, "fora do orçamento")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "fora do orçamento", *rejected.RejectionReason)

	balance, _ := fx.stockRepo.GetBalance(ctx, cement.ID)
	assert.Equal(t, mustQty(t, "100"), balance.Quantity)
	assert.Empty(t, fx.stockRepo.movements)

	// A rejected request accepts no further decisions.
	_, err = fx.service.Reject(ctx, req.ID, fx.approver.ID, "de novo")
	assert.True(t, apperror.IsInvalidRequestState(err))
	_, err = fx.service.Approve(ctx, req.ID, fx.approver.ID)
	assert.True(t, apperror.IsInvalidRequestState(err))
}

func TestServiceUpdate_OnlyPending(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, nil, fixtureMaterial{material: cement, balance: "100"})

	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items:       []ItemInput{{MaterialID: cement.ID, Quantity: "30"}},
	})
	require.NoError(t, err)

	updated, err := fx.service.Update(ctx, req.ID, UpdateInput{
		Observations: "entrega na obra",
		Items:        []ItemInput{{MaterialID: cement.ID, Quantity: "10"}},
	})
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(mustMoney(t, "329.00")))

	_, err = fx.service.Approve(ctx, req.ID, fx.approver.ID)
	require.NoError(t, err)

	_, err = fx.service.Update(ctx, req.ID, UpdateInput{
		Items: []ItemInput{{MaterialID: cement.ID, Quantity: "1"}},
	})
	assert.True(t, apperror.IsInvalidRequestState(err))
}

func TestServiceDelete_OnlyPending(t *testing.T) {
	ctx := context.Background()
	cement := newTestMaterial(t, "MAT-001", "Cimento CP-II 50kg", material.UnitSC, "32.90")
	fx := newFixture(t, nil, fixtureMaterial{material: cement, balance: "100"})

	req, err := fx.service.Create(ctx, CreateInput{
		ProjectID:   fx.project.ID,
		RequesterID: fx.requester.ID,
		Items:       []ItemInput{{MaterialID: cement.ID, Quantity: "30"}},
	})
	require.NoError(t, err)

	_, err = fx.service.Approve(ctx, req.ID, fx.approver.ID)
	require.NoError(t, err)

	err = fx.service.Delete(ctx, req.ID)
	assert.True(t, apperror.IsInvalidRequestState(err))
}
