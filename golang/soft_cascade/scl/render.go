package scl

import (
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

//graphvizFormats maps file extensions to graphviz output formats.
var graphvizFormats = map[string]graphviz.Format{
	"png": graphviz.PNG,
	"svg": graphviz.SVG,
	"jpg": graphviz.JPG,
	"dot": graphviz.XDOT,
}

//GraphDescription returns the description of a node for tree rendering as a graph.
func (node TreeNode) GraphDescription(id int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("id: ", id))
	sb.WriteString(fmt.Sprintf("w: %.4g  e: %.4g\n", node.Weight, node.Error))
	if node.IsLeaf() {
		sb.WriteString(fmt.Sprintf("h: %6.3f (%+d)", node.LogOdds, node.Label()))
	} else {
		sb.WriteString(fmt.Sprintf("f_%d < %6.5f", node.FeatureIndex, node.Threshold.Value))
	}
	return sb.String()
}

func recurrentDraw(g *cgraph.Graph, tree *Tree, nodeNumber int, parentNode *cgraph.Node) error {
	currentNode, err := g.CreateNode(fmt.Sprint(nodeNumber))
	if err != nil {
		return err
	}

	if parentNode != nil {
		if _, err = g.CreateEdge("", parentNode, currentNode); err != nil {
			return err
		}
	}

	currentNode.Set("label", tree.Nodes[nodeNumber].GraphDescription(nodeNumber))
	if tree.Nodes[nodeNumber].IsLeaf() {
		currentNode.SetShape(cgraph.BoxShape)
		return nil
	}
	if err = recurrentDraw(g, tree, tree.Nodes[nodeNumber].Child, currentNode); err != nil {
		return err
	}
	return recurrentDraw(g, tree, tree.Nodes[nodeNumber].Child+1, currentNode)
}

//DrawGraph builds a graphviz graph of the tree. The caller closes both returned objects.
func (tree *Tree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	if err := tree.check(); err != nil {
		return nil, nil, err
	}
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		return nil, nil, err
	}
	if err = recurrentDraw(graph, tree, 0, nil); err != nil {
		graph.Close()
		graphViz.Close()
		return nil, nil, err
	}
	return graphViz, graph, nil
}

//RenderTrees draws every tree into picturesDirectory as <dumpPrefix>_<index>.<figureType>.
//figureType is one of png, svg, jpg and dot.
func (cascade *Cascade) RenderTrees(dumpPrefix, figureType, picturesDirectory string) error {
	graphvizType, ok := graphvizFormats[figureType]
	if !ok {
		return &ConfigError{Field: "FigureType", Reason: "unknown figure type " + figureType}
	}

	for graphInd := range cascade.Trees {
		filename := fmt.Sprintf("%s_%05d.%s", dumpPrefix, graphInd, figureType)
		graphViz, graph, err := cascade.Trees[graphInd].DrawGraph()
		if err != nil {
			return err
		}
		err = graphViz.RenderFilename(graph, graphvizType, path.Join(picturesDirectory, filename))
		graph.Close()
		graphViz.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
