package scl

import (
	"bytes"
	"errors"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/goccy/go-graphviz"
)

func TestDrawGraph(t *testing.T) {
	set := CreateTestSampleSet(t, column(0, 1, 2, 3, 4, 5, 6, 7, 8, 9), column(10, 11, 12, 13, 14, 15, 16, 17, 18, 19))
	tree, err := NewTree(set, testParams())
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	graphViz, graph, err := tree.DrawGraph()
	if err != nil {
		t.Fatalf("DrawGraph: %v", err)
	}
	defer func() {
		graph.Close()
		graphViz.Close()
	}()

	var buf bytes.Buffer
	if err := graphViz.Render(graph, graphviz.XDOT, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	dot := buf.String()
	if !strings.Contains(dot, "f_0 < 9.50000") {
		t.Fatalf("split label is missing in\n%s", dot)
	}
	if strings.Count(dot, "box") < 2 {
		t.Fatalf("leaves should be drawn as boxes in\n%s", dot)
	}
}

func TestRenderTrees(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 2)
	dir := t.TempDir()

	if err := cascade.RenderTrees("tree", "dot", dir); err != nil {
		t.Fatalf("RenderTrees: %v", err)
	}
	for _, name := range []string{"tree_00000.dot", "tree_00001.dot"} {
		if _, err := os.Stat(path.Join(dir, name)); err != nil {
			t.Fatalf("%s is not rendered: %v", name, err)
		}
	}

	if err := cascade.RenderTrees("tree", "bmp", dir); !errors.Is(err, ErrConfig) {
		t.Fatalf("unknown figure type should be a config error, got %v", err)
	}
}
