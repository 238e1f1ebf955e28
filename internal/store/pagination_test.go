package store

import "testing"

func TestPageParamsNormalize(t *testing.T) {
	cases := []struct {
		in       PageParams
		number   int
		size     int
		offset   int
		scenario string
	}{
		{PageParams{}, 1, 100, 0, "zero values"},
		{PageParams{Number: -3, Size: 0}, 1, 100, 0, "negative page"},
		{PageParams{Number: 2, Size: 50}, 2, 50, 50, "explicit"},
		{PageParams{Number: 1, Size: 99999}, 1, 1000, 0, "capped size"},
	}

	for _, tc := range cases {
		p := tc.in
		p.Normalize()
		if p.Number != tc.number || p.Size != tc.size {
			t.Errorf("%s: got number=%d size=%d, want %d/%d", tc.scenario, p.Number, p.Size, tc.number, tc.size)
		}
		if p.Offset() != tc.offset {
			t.Errorf("%s: offset got %d, want %d", tc.scenario, p.Offset(), tc.offset)
		}
	}
}

func TestNewPage(t *testing.T) {
	params := PageParams{Number: 2, Size: 10}
	page := NewPage([]string{"a", "b"}, params, 25)

	if page.Pages != 3 {
		t.Errorf("Pages: got %d, want 3", page.Pages)
	}
	if page.Count != 25 {
		t.Errorf("Count: got %d, want 25", page.Count)
	}
	if page.Number != 2 {
		t.Errorf("Number: got %d, want 2", page.Number)
	}
}

func TestNewPage_Empty(t *testing.T) {
	params := PageParams{Number: 1, Size: 100}
	page := NewPage([]string{}, params, 0)

	if page.Pages != 1 {
		t.Errorf("Pages: got %d, want 1 for empty result", page.Pages)
	}
}
