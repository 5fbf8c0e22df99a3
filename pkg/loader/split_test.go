package loader

import (
	"math/rand"
	"sort"
	"testing"
)

func TestKFoldDisjointAndCovering(t *testing.T) {
	splits, err := KFold(23, 5, 42)
	if err != nil {
		t.Fatalf("KFold failed: %v", err)
	}
	if len(splits) != 5 {
		t.Fatalf("expected 5 folds, got %d", len(splits))
	}
	seen := map[int]int{}
	for f, s := range splits {
		if len(s.Train)+len(s.Val) != 23 {
			t.Fatalf("fold %d does not partition the rows", f)
		}
		inVal := map[int]bool{}
		for _, i := range s.Val {
			seen[i]++
			inVal[i] = true
		}
		for _, i := range s.Train {
			if inVal[i] {
				t.Fatalf("fold %d: row %d in both train and val", f, i)
			}
		}
	}
	if len(seen) != 23 {
		t.Fatalf("validation folds cover %d rows, want 23", len(seen))
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("row %d appears in %d validation folds", i, c)
		}
	}
	if len(splits[0].Val) != 5 || len(splits[4].Val) != 4 {
		t.Fatalf("unexpected fold sizes %d %d", len(splits[0].Val), len(splits[4].Val))
	}
}

func TestKFoldIsReproducible(t *testing.T) {
	a, _ := KFold(30, 3, 7)
	b, _ := KFold(30, 3, 7)
	for f := range a {
		for i := range a[f].Val {
			if a[f].Val[i] != b[f].Val[i] {
				t.Fatalf("same seed gave different folds")
			}
		}
	}
	if _, err := KFold(3, 5, 1); err != ErrFolds {
		t.Fatalf("expected ErrFolds, got %v", err)
	}
}

func TestStratifiedSplitKeepsProportions(t *testing.T) {
	labels := make([]int, 0, 100)
	for i := 0; i < 80; i++ {
		labels = append(labels, 1)
	}
	for i := 0; i < 20; i++ {
		labels = append(labels, 2)
	}
	s := StratifiedSplit(labels, 0.25, 3)
	counts := map[int]int{}
	for _, i := range s.Val {
		counts[labels[i]]++
	}
	if counts[1] != 20 || counts[2] != 5 {
		t.Fatalf("unexpected validation counts: %v", counts)
	}
	all := append(append([]int(nil), s.Train...), s.Val...)
	sort.Ints(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("split is not a partition")
		}
	}
}

func TestTrainTestSplitAndBatches(t *testing.T) {
	s := TrainTestSplit(10, 0.3, 1)
	if len(s.Val) != 3 || len(s.Train) != 7 {
		t.Fatalf("unexpected split sizes %d/%d", len(s.Train), len(s.Val))
	}
	b := Batches(Shuffled(s.Train, rand.New(rand.NewSource(1))), 3)
	if len(b) != 3 || len(b[2]) != 1 {
		t.Fatalf("unexpected batches: %v", b)
	}
}
