package catalog_repo

import (
	"reflect"
	"testing"

	"obraplan/internal/domain/catalogs/material"
	"obraplan/internal/domain/filter"
)

func newTestRepo() *BaseCatalogRepo[*material.Material] {
	return NewBaseCatalogRepo(nil, "cat_materials", func() *material.Material {
		return &material.Material{}
	})
}

func TestApplyAdvancedFilters(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		name     string
		filters  []filter.Item
		wantSQL  string
		wantArgs []any
		wantErr  bool
	}{
		{
			name:    "no filters",
			filters: nil,
			wantSQL: "SELECT code FROM cat_materials",
		},
		{
			name:     "equal",
			filters:  []filter.Item{{Field: "unit", Operator: filter.Equal, Value: "SC"}},
			wantSQL:  "SELECT code FROM cat_materials WHERE unit = $1",
			wantArgs: []any{"SC"},
		},
		{
			name:     "not equal",
			filters:  []filter.Item{{Field: "unit", Operator: filter.NotEqual, Value: "SC"}},
			wantSQL:  "SELECT code FROM cat_materials WHERE unit <> $1",
			wantArgs: []any{"SC"},
		},
		{
			name:     "less than",
			filters:  []filter.Item{{Field: "unit_price", Operator: filter.Less, Value: 100}},
			wantSQL:  "SELECT code FROM cat_materials WHERE unit_price < $1",
			wantArgs: []any{100},
		},
		{
			name:     "greater or equal",
			filters:  []filter.Item{{Field: "unit_price", Operator: filter.GreaterOrEqual, Value: 10}},
			wantSQL:  "SELECT code FROM cat_materials WHERE unit_price >= $1",
			wantArgs: []any{10},
		},
		{
			name:     "in list",
			filters:  []filter.Item{{Field: "unit", Operator: filter.InList, Value: []string{"SC", "KG"}}},
			wantSQL:  "SELECT code FROM cat_materials WHERE unit IN ($1,$2)",
			wantArgs: []any{"SC", "KG"},
		},
		{
			name:     "contains",
			filters:  []filter.Item{{Field: "name", Operator: filter.Contains, Value: "cimento"}},
			wantSQL:  "SELECT code FROM cat_materials WHERE name ILIKE $1",
			wantArgs: []any{"%cimento%"},
		},
		{
			name:    "is null",
			filters: []filter.Item{{Field: "description", Operator: filter.IsNull}},
			wantSQL: "SELECT code FROM cat_materials WHERE description IS NULL",
		},
		{
			name:    "is not null",
			filters: []filter.Item{{Field: "description", Operator: filter.IsNotNull}},
			wantSQL: "SELECT code FROM cat_materials WHERE description IS NOT NULL",
		},
		{
			name: "multiple conditions ANDed",
			filters: []filter.Item{
				{Field: "unit", Operator: filter.Equal, Value: "SC"},
				{Field: "unit_price", Operator: filter.LessOrEqual, Value: 50},
			},
			wantSQL:  "SELECT code FROM cat_materials WHERE unit = $1 AND unit_price <= $2",
			wantArgs: []any{"SC", 50},
		},
		{
			name:    "unknown field rejected",
			filters: []filter.Item{{Field: "password; DROP TABLE users", Operator: filter.Equal, Value: 1}},
			wantErr: true,
		},
		{
			name:    "unknown operator rejected",
			filters: []filter.Item{{Field: "unit", Operator: "regex", Value: ".*"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := repo.Builder().Select("code").From("cat_materials")

			query, err := repo.applyAdvancedFilters(base, tt.filters)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			gotSQL, gotArgs, err := query.ToSql()
			if err != nil {
				t.Fatalf("ToSql: %v", err)
			}
			if gotSQL != tt.wantSQL {
				t.Errorf("sql mismatch:\n got:  %s\n want: %s", gotSQL, tt.wantSQL)
			}
			if len(tt.wantArgs) > 0 && !reflect.DeepEqual(gotArgs, tt.wantArgs) {
				t.Errorf("args mismatch:\n got:  %v\n want: %v", gotArgs, tt.wantArgs)
			}
		})
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "name ASC"},
		{in: "name", want: "name ASC"},
		{in: "-name", want: "name DESC"},
		{in: "unit_price", want: "unit_price ASC"},
		{in: "-unit_price", want: "unit_price DESC"},
		// Unknown columns fall back to the default instead of reaching SQL.
		{in: "evil; DROP TABLE", want: "name ASC"},
		{in: "-nonexistent", want: "name ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := repo.parseOrderBy(tt.in); got != tt.want {
				t.Errorf("parseOrderBy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
