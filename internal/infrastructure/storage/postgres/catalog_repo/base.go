package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/entity"
	"obraplan/internal/core/id"
	"obraplan/internal/domain"
	"obraplan/internal/domain/filter"
	"obraplan/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides generic CRUD for catalog entities. Concrete
// repositories embed it and add entity-specific queries on top.
type BaseCatalogRepo[T entity.Validatable] struct {
	txm        *postgres.TxManager
	tableName  string
	selectCols []string
	newFn      func() T
}

func NewBaseCatalogRepo[T entity.Validatable](txm *postgres.TxManager, tableName string, newFn func() T) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: postgres.ExtractDBColumns[T](),
		newFn:      newFn,
	}
}

func (r *BaseCatalogRepo[T]) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *BaseCatalogRepo[T]) Create(ctx context.Context, e T) error {
	values := postgres.StructToMap(e)
	if len(values) == 0 {
		return apperror.NewInternal(fmt.Errorf("%s: no db tags found in entity", r.tableName))
	}

	// Only persist columns the table actually has.
	insertValues := make(map[string]interface{}, len(r.selectCols))
	for _, col := range r.selectCols {
		if v, ok := values[col]; ok {
			insertValues[col] = v
		}
	}

	query, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(insertValues).
		ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build insert query: %w", err))
	}

	if _, err := r.querier(ctx).Exec(ctx, query, args...); err != nil {
		return r.mapWriteError(err)
	}
	return nil
}

// Update performs an optimistic-lock update: the WHERE clause matches both
// id and the version the caller loaded. Zero rows affected means somebody
// else changed the row in between.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, e T) error {
	values := postgres.StructToMap(e)
	if len(values) == 0 {
		return apperror.NewInternal(fmt.Errorf("%s: no db tags found in entity", r.tableName))
	}

	entityID, ok := values["id"]
	if !ok {
		return apperror.NewInternal(fmt.Errorf("%s: entity has no id column", r.tableName))
	}
	version, ok := values["version"]
	if !ok {
		return apperror.NewInternal(fmt.Errorf("%s: entity has no version column", r.tableName))
	}

	update := r.Builder().Update(r.tableName)
	for _, col := range r.selectCols {
		if col == "id" || col == "version" {
			continue
		}
		if v, ok := values[col]; ok {
			update = update.Set(col, v)
		}
	}
	update = update.
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": entityID, "version": version})

	query, args, err := update.ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build update query: %w", err))
	}

	tag, err := r.querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return r.mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) baseSelect() sq.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(sq.Eq{"id": entityID}))
}

func (r *BaseCatalogRepo[T]) GetByCode(ctx context.Context, code string) (T, error) {
	return r.FindOne(ctx, r.baseSelect().Where(sq.Eq{"code": code, "deletion_mark": false}))
}

// FindOne runs the given select and scans a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, query sq.SelectBuilder) (T, error) {
	var zero T

	sql, args, err := query.ToSql()
	if err != nil {
		return zero, apperror.NewInternal(fmt.Errorf("build select query: %w", err))
	}

	e := r.newFn()
	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return zero, apperror.NewNotFound(r.tableName, "")
		}
		return zero, apperror.NewInternal(fmt.Errorf("query %s: %w", r.tableName, err))
	}
	return e, nil
}

// GetForUpdate loads the entity with a row lock held for the rest of the
// transaction. Must run inside a transaction to be of any use.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, r.baseSelect().
		Where(sq.Eq{"id": entityID}).
		Suffix("FOR UPDATE"))
}

func (r *BaseCatalogRepo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	query := r.baseSelect()

	if !f.IncludeDeleted {
		query = query.Where(sq.Eq{"deletion_mark": false})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"code": pattern},
		})
	}
	if len(f.IDs) > 0 {
		query = query.Where(sq.Eq{"id": f.IDs})
	}

	var result domain.ListResult[T]

	query, err := r.applyAdvancedFilters(query, f.AdvancedFilters)
	if err != nil {
		return result, err
	}

	countQuery, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(query, "sub").
		ToSql()
	if err != nil {
		return result, apperror.NewInternal(fmt.Errorf("build count query: %w", err))
	}

	var total int64
	if err := r.querier(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return result, apperror.NewInternal(fmt.Errorf("count %s: %w", r.tableName, err))
	}

	query = query.OrderBy(r.parseOrderBy(f.OrderBy))
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		query = query.Offset(uint64(f.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return result, apperror.NewInternal(fmt.Errorf("build list query: %w", err))
	}

	items := make([]T, 0, f.Limit)
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return result, apperror.NewInternal(fmt.Errorf("list %s: %w", r.tableName, err))
	}

	result.Items = items
	result.TotalCount = total
	result.Limit = f.Limit
	result.Offset = f.Offset
	return result, nil
}

func (r *BaseCatalogRepo[T]) applyAdvancedFilters(query sq.SelectBuilder, filters []filter.Item) (sq.SelectBuilder, error) {
	if len(filters) == 0 {
		return query, nil
	}

	allowed := make(map[string]bool, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = true
	}

	for _, f := range filters {
		if !allowed[f.Field] {
			return query, apperror.NewValidation(fmt.Sprintf("unknown filter field: %s", f.Field))
		}

		switch f.Operator {
		case filter.Equal:
			query = query.Where(sq.Eq{f.Field: f.Value})
		case filter.NotEqual:
			query = query.Where(sq.NotEq{f.Field: f.Value})
		case filter.Less:
			query = query.Where(sq.Lt{f.Field: f.Value})
		case filter.Greater:
			query = query.Where(sq.Gt{f.Field: f.Value})
		case filter.LessOrEqual:
			query = query.Where(sq.LtOrEq{f.Field: f.Value})
		case filter.GreaterOrEqual:
			query = query.Where(sq.GtOrEq{f.Field: f.Value})
		case filter.InList:
			query = query.Where(sq.Eq{f.Field: f.Value})
		case filter.NotInList:
			query = query.Where(sq.NotEq{f.Field: f.Value})
		case filter.Contains:
			query = query.Where(sq.ILike{f.Field: fmt.Sprintf("%%%v%%", f.Value)})
		case filter.NotContains:
			query = query.Where(sq.NotILike{f.Field: fmt.Sprintf("%%%v%%", f.Value)})
		case filter.IsNull:
			query = query.Where(sq.Eq{f.Field: nil})
		case filter.IsNotNull:
			query = query.Where(sq.NotEq{f.Field: nil})
		default:
			return query, apperror.NewValidation(fmt.Sprintf("unknown filter operator: %s", f.Operator))
		}
	}
	return query, nil
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) string {
	if orderBy == "" {
		return "name ASC"
	}

	field := orderBy
	direction := "ASC"
	if strings.HasPrefix(orderBy, "-") {
		field = orderBy[1:]
		direction = "DESC"
	}

	for _, col := range r.selectCols {
		if col == field {
			return field + " " + direction
		}
	}
	return "name ASC"
}

func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return r.exists(ctx, sq.Eq{"id": entityID})
}

func (r *BaseCatalogRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, sq.Eq{"code": code, "deletion_mark": false})
}

func (r *BaseCatalogRepo[T]) exists(ctx context.Context, where sq.Eq) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return false, apperror.NewInternal(fmt.Errorf("build exists query: %w", err))
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperror.NewInternal(fmt.Errorf("exists %s: %w", r.tableName, err))
	}
	return true, nil
}

func (r *BaseCatalogRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, mark bool) error {
	query, args, err := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", mark).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("build deletion mark query: %w", err))
	}

	tag, err := r.querier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return r.mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

func (r *BaseCatalogRepo[T]) mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperror.NewDuplicate(r.tableName, "code", pgErr.ConstraintName)
		case "23503":
			return apperror.NewConflict("entity is referenced by other records")
		}
	}
	return apperror.NewInternal(fmt.Errorf("write %s: %w", r.tableName, err))
}
