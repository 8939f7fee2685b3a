package response

import "testing"

func TestCalculatePagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		total       int64
		want        PaginationMeta
	}{
		{"defaults", 0, 0, 45, PaginationMeta{CurrentPage: 1, PerPage: DefaultPageSize, Total: 45, TotalPages: 3}},
		{"exact multiple", 2, 15, 45, PaginationMeta{CurrentPage: 2, PerPage: 15, Total: 45, TotalPages: 3}},
		{"capped limit", 1, 500, 250, PaginationMeta{CurrentPage: 1, PerPage: MaxPageSize, Total: 250, TotalPages: 3}},
		{"empty", 3, 10, 0, PaginationMeta{CurrentPage: 3, PerPage: 10, Total: 0, TotalPages: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculatePagination(tt.page, tt.limit, tt.total); got != tt.want {
				t.Errorf("CalculatePagination(%d, %d, %d) = %+v, want %+v", tt.page, tt.limit, tt.total, got, tt.want)
			}
		})
	}
}
