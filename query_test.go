package apisvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryParams_Encode(t *testing.T) {
	var missing *int
	tests := []struct {
		name   string
		params QueryParams
		want   string
	}{
		{
			name:   "empty",
			params: nil,
			want:   "",
		},
		{
			name: "objects are JSON and nil is omitted",
			params: QueryParams{
				{Key: "a", Value: 1},
				{Key: "b", Value: nil},
				{Key: "c", Value: map[string]int{"x": 1}},
			},
			want: "a=1&c=%7B%22x%22%3A1%7D",
		},
		{
			name: "insertion order is kept",
			params: QueryParams{
				{Key: "z", Value: "last"},
				{Key: "a", Value: "first"},
			},
			want: "z=last&a=first",
		},
		{
			name: "nil pointer, map and slice are omitted",
			params: QueryParams{
				{Key: "p", Value: missing},
				{Key: "m", Value: map[string]any(nil)},
				{Key: "s", Value: []string(nil)},
				{Key: "keep", Value: true},
			},
			want: "keep=true",
		},
		{
			name: "multi-select is a JSON array",
			params: QueryParams{
				{Key: "status", Value: []string{"dirty", "inspected"}},
			},
			want: "status=%5B%22dirty%22%2C%22inspected%22%5D",
		},
		{
			name: "scalars",
			params: QueryParams{
				{Key: "f", Value: 1.5},
				{Key: "u", Value: uint8(7)},
				{Key: "s", Value: "a b&c"},
			},
			want: "f=1.5&u=7&s=a+b%26c",
		},
		{
			name: "text marshaler",
			params: QueryParams{
				{Key: "since", Value: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
			},
			want: "since=2024-03-01T08%3A00%3A00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.params.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryParams_EncodeUnsupported(t *testing.T) {
	params := QueryParams{{Key: "fn", Value: func() {}}}
	_, err := params.Encode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"fn"`)
}

func TestQueryParams_SetAndMerge(t *testing.T) {
	var q QueryParams
	q.Set("page", 1)
	q.Set("search", "ana")
	q.Set("page", 2)

	require.Len(t, q, 2)
	page, _ := q.Get("page")
	assert.Equal(t, 2, page)

	merged := q.Merge(QueryParams{{Key: "search", Value: "bo"}, {Key: "size", Value: 20}})
	got, err := merged.Encode()
	require.NoError(t, err)
	assert.Equal(t, "page=2&search=bo&size=20", got)
	search, _ := q.Get("search")
	assert.Equal(t, "ana", search, "Merge does not modify the receiver")
}

func TestFromStruct(t *testing.T) {
	type filter struct {
		Search       string   `schema:"search,omitempty"`
		Page         int      `schema:"page,omitempty"`
		DepartmentID int64    `schema:"departmentId,omitempty"`
		Roles        []string `schema:"roles,omitempty"`
	}

	params, err := FromStruct(filter{Search: "ana", DepartmentID: 4, Roles: []string{"manager", "staff"}})
	require.NoError(t, err)
	got, err := params.Encode()
	require.NoError(t, err)
	assert.Equal(t, "departmentId=4&roles=%5B%22manager%22%2C%22staff%22%5D&search=ana", got)
}

func TestFromStruct_NotAStruct(t *testing.T) {
	_, err := FromStruct(42)
	assert.Error(t, err)

	params, err := FromStruct(nil)
	assert.NoError(t, err)
	assert.Nil(t, params)
}
