package web

import (
	"slices"
	"testing"
)

func TestSnapshotIndexing(t *testing.T) {
	s := newStore(30, 10, 20)
	s.AddLink(Link{Source: 10, Target: 20})
	s.AddLink(Link{Source: 20, Target: 30})

	snap := s.Snapshot()

	if !slices.Equal(snap.IDs, []int{10, 20, 30}) {
		t.Fatalf("IDs = %v, want sorted", snap.IDs)
	}
	if snap.Index[20] != 1 {
		t.Errorf("Index[20] = %d, want 1", snap.Index[20])
	}
	if !slices.Equal(snap.Out[0], []int{1}) || !slices.Equal(snap.In[2], []int{1}) {
		t.Errorf("Out/In mismatch: %v %v", snap.Out, snap.In)
	}
	if !slices.Equal(snap.Undirected[1], []int{0, 2}) {
		t.Errorf("Undirected[1] = %v, want [0 2]", snap.Undirected[1])
	}
	if !slices.Equal(snap.Basal(), []int{0}) {
		t.Errorf("Basal() = %v, want [0]", snap.Basal())
	}
	if snap.LinkCount() != 2 {
		t.Errorf("LinkCount() = %d, want 2", snap.LinkCount())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newStore(1, 2)
	snap := s.Snapshot()
	s.AddLink(Link{Source: 1, Target: 2})
	s.AddNode(Node{ID: 3})

	if snap.Len() != 2 || snap.LinkCount() != 0 {
		t.Error("snapshot must not observe later mutations")
	}
}

func TestBFS(t *testing.T) {
	// 0 -> 1 -> 2, 3 isolated
	snap := NewSnapshot([]int{0, 1, 2, 3}, []Link{{Source: 0, Target: 1}, {Source: 1, Target: 2}})

	tests := []struct {
		name string
		src  int
		dir  Direction
		want []int
	}{
		{"Forward", 0, Forward, []int{0, 1, 2, Unreachable}},
		{"Backward", 2, Backward, []int{2, 1, 0, Unreachable}},
		{"BackwardFromRoot", 0, Backward, []int{0, Unreachable, Unreachable, Unreachable}},
		{"Undirected", 1, Undirected, []int{1, 0, 1, Unreachable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snap.Distances(tt.src, tt.dir, nil); !slices.Equal(got, tt.want) {
				t.Errorf("Distances() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBFSKeep(t *testing.T) {
	snap := NewSnapshot([]int{0, 1, 2}, []Link{{Source: 0, Target: 1}, {Source: 1, Target: 2}})
	keep := []bool{true, false, true}
	got := BFS(snap.Out, []int{0}, nil, keep)
	if !slices.Equal(got, []int{0, Unreachable, Unreachable}) {
		t.Errorf("BFS with keep = %v", got)
	}
}

func TestReach(t *testing.T) {
	snap := NewSnapshot([]int{0, 1, 2, 3}, []Link{
		{Source: 0, Target: 1},
		{Source: 1, Target: 2},
		{Source: 2, Target: 0},
		{Source: 2, Target: 3},
	})
	mark := make([]bool, snap.Len())
	if n := Reach(snap.Out, 0, mark, nil); n != 4 {
		t.Errorf("forward reach = %d, want 4", n)
	}
	if n := Reach(snap.In, 0, mark, nil); n != 3 || mark[3] {
		t.Errorf("backward reach = %d (mark %v), want 3 without node 3", n, mark)
	}
}
