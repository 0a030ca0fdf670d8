package pm

import "testing"

func TestNewPageRequestDefaults(t *testing.T) {
	cases := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"zero values", 0, 0, 1, 10},
		{"negative values", -3, -7, 1, 10},
		{"limit above cap", 2, 1000, 2, 100},
		{"in range", 3, 25, 3, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewPageRequest(tc.page, tc.limit)
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("NewPageRequest(%d, %d) = %+v", tc.page, tc.limit, got)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := NewPageRequest(1, 10).Offset(); got != 0 {
		t.Fatalf("first page offset = %d", got)
	}
	if got := NewPageRequest(3, 25).Offset(); got != 50 {
		t.Fatalf("third page offset = %d", got)
	}
}

func TestPaginateEdges(t *testing.T) {
	// A total landing exactly on a page boundary has no next page.
	info := Paginate(NewPageRequest(2, 10), 20)
	if info.Next != nil {
		t.Fatalf("boundary next = %+v, want nil", info.Next)
	}
	if info.Prev == nil || info.Prev.Page != 1 {
		t.Fatalf("boundary prev = %+v", info.Prev)
	}

	// Empty collection has neither cursor.
	info = Paginate(NewPageRequest(1, 10), 0)
	if info.Next != nil || info.Prev != nil {
		t.Fatalf("empty collection cursors = %+v", info)
	}
}
