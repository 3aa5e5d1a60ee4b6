package domain

import "testing"

func TestMembershipInfo_ReadRanges(t *testing.T) {
	tests := []struct {
		name   string
		ranges []ReadRange
		first  int
		read   []int
		unread []int
	}{
		{"nothing read", nil, 1, nil, []int{1, 2}},
		{"prefix read", []ReadRange{{1, 4}, {7, 7}}, 5, []int{1, 4, 7}, []int{5, 6, 8}},
		{"gap at start", []ReadRange{{3, 5}}, 1, []int{3, 5}, []int{1, 2, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MembershipInfo{ReadRanges: tt.ranges}
			if got := m.FirstUnread(); got != tt.first {
				t.Errorf("FirstUnread() = %d, want %d", got, tt.first)
			}
			for _, n := range tt.read {
				if !m.Read(n) {
					t.Errorf("Read(%d) = false", n)
				}
			}
			for _, n := range tt.unread {
				if m.Read(n) {
					t.Errorf("Read(%d) = true", n)
				}
			}
		})
	}
}
