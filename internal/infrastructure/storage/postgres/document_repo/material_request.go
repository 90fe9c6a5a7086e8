package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/domain"
	"obraplan/internal/domain/documents/material_request"
	"obraplan/internal/infrastructure/storage/postgres"
)

const (
	materialRequestsTable     = "doc_material_requests"
	materialRequestItemsTable = "doc_material_request_items"
)

// MaterialRequestRepo implements material_request.Repository.
type MaterialRequestRepo struct {
	*BaseDocumentRepo[*material_request.MaterialRequest]
}

// NewMaterialRequestRepo creates a new material request repository.
func NewMaterialRequestRepo(txm *postgres.TxManager) *MaterialRequestRepo {
	return &MaterialRequestRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*material_request.MaterialRequest](
			txm,
			materialRequestsTable,
			func() *material_request.MaterialRequest { return &material_request.MaterialRequest{} },
		),
	}
}

// Delete removes the request header and its items. Callers enforce that
// only undecided requests are deleted.
func (r *MaterialRequestRepo) Delete(ctx context.Context, requestID id.ID) error {
	querier := r.querier(ctx)

	deleteItemsSQL := "DELETE FROM " + materialRequestItemsTable + " WHERE request_id = $1"
	if _, err := querier.Exec(ctx, deleteItemsSQL, requestID); err != nil {
		return fmt.Errorf("delete request items: %w", err)
	}

	deleteSQL := "DELETE FROM " + materialRequestsTable + " WHERE id = $1"
	result, err := querier.Exec(ctx, deleteSQL, requestID)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("material_request", requestID.String())
	}

	return nil
}

func (r *MaterialRequestRepo) GetItems(ctx context.Context, requestID id.ID) ([]material_request.Item, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "material_id",
			"quantity", "unit_price", "observations",
		).
		From(materialRequestItemsTable).
		Where(squirrel.Eq{"request_id": requestID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []material_request.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get request items: %w", err)
	}

	return items, nil
}

func (r *MaterialRequestRepo) SaveItems(ctx context.Context, requestID id.ID, items []material_request.Item) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + materialRequestItemsTable + " WHERE request_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, requestID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(materialRequestItemsTable).
		Columns(
			"line_id", "request_id", "line_no", "material_id",
			"quantity", "unit_price", "observations",
		)

	for _, item := range items {
		q = q.Values(
			item.LineID, requestID, item.LineNo, item.MaterialID,
			item.Quantity, item.UnitPrice, item.Observations,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

func (r *MaterialRequestRepo) List(ctx context.Context, filter material_request.ListFilter) (domain.ListResult[*material_request.MaterialRequest], error) {
	result := domain.ListResult[*material_request.MaterialRequest]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.ProjectID != nil {
		q = q.Where(squirrel.Eq{"project_id": *filter.ProjectID})
	}

	if filter.RequesterID != nil {
		q = q.Where(squirrel.Eq{"requester_id": *filter.RequesterID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}

	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.ToDate})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": searchPattern},
			squirrel.ILike{"observations": searchPattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}

	return result, nil
}
