package scl

import "testing"

func expectPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s should panic", name)
		}
	}()
	f()
}

func TestWeightArena(t *testing.T) {
	arena := newWeightArena(4)
	arena.put(0, []float64{1}, []float64{2})
	arena.put(1, []float64{3}, []float64{4})
	if arena.liveNodes() != 2 {
		t.Fatalf("expected 2 live nodes, got %d", arena.liveNodes())
	}

	neg, pos := arena.get(1)
	if neg[0] != 3 || pos[0] != 4 {
		t.Fatalf("unexpected weights %v %v", neg, pos)
	}

	arena.retire(0)
	if arena.liveNodes() != 1 {
		t.Fatalf("expected 1 live node, got %d", arena.liveNodes())
	}
	expectPanic(t, "get of a retired node", func() { arena.get(0) })
	expectPanic(t, "double retire", func() { arena.retire(0) })
	expectPanic(t, "put out of order", func() { arena.put(5, nil, nil) })
}

func TestTreeBuilderRetiresEveryNode(t *testing.T) {
	set := CreateRandomSampleSet(t, 5, 4, 40, 40)
	params := TreeParams{NBins: 256, MaxDepth: 3, MinWeight: 0, FracFtrs: 1, NThreads: 1}

	_, nNeg, nPos, err := set.validatedDimensions(params.NBins)
	if err != nil {
		t.Fatalf("validatedDimensions: %v", err)
	}
	builder := newTreeBuilder(set, params, 4, nNeg, nPos)
	tree, err := builder.build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if builder.weights.liveNodes() != 0 {
		t.Fatalf("%d nodes still hold weights", builder.weights.liveNodes())
	}
	if len(builder.weights.retired) != len(tree.Nodes) {
		t.Fatalf("%d weight entries for %d nodes", len(builder.weights.retired), len(tree.Nodes))
	}
}
