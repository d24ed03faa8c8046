package scl

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/sbinet/npyio"
)

//NodeTable is the column layout of a cascade. Nodes of all trees are concatenated; Nodes holds
//the number of nodes of every tree and Child indices are local to their tree.
type NodeTable struct {
	Fids       []int32   `json:"fids"`
	Thrs       []float64 `json:"thrs"`
	Child      []int32   `json:"child"`
	Hs         []float64 `json:"hs"`
	Weights    []float64 `json:"weights"`
	Depth      []int32   `json:"depth"`
	Nodes      []int32   `json:"nodes"`
	NTrees     int       `json:"n_trees"`
	FeatureDim int       `json:"feature_dim"`
	Mode       ScoreMode `json:"mode"`
}

//Table converts the cascade into columns. Bin thresholds and node errors are not kept.
func (cascade *Cascade) Table() NodeTable {
	table := NodeTable{NTrees: len(cascade.Trees), FeatureDim: cascade.FeatureDim(), Mode: cascade.Mode}
	for _, tree := range cascade.Trees {
		table.Nodes = append(table.Nodes, int32(len(tree.Nodes)))
		for _, node := range tree.Nodes {
			table.Fids = append(table.Fids, int32(node.FeatureIndex))
			table.Thrs = append(table.Thrs, node.Threshold.Value)
			table.Child = append(table.Child, int32(node.Child))
			table.Hs = append(table.Hs, node.LogOdds)
			table.Weights = append(table.Weights, node.Weight)
			table.Depth = append(table.Depth, int32(node.Depth))
		}
	}
	return table
}

//CascadeFromTable rebuilds a cascade from columns and checks it.
func CascadeFromTable(table NodeTable) (*Cascade, error) {
	if len(table.Nodes) != table.NTrees {
		return nil, dataErrorf("%d node counts for %d trees", len(table.Nodes), table.NTrees)
	}
	total := 0
	for _, n := range table.Nodes {
		if n <= 0 {
			return nil, dataErrorf("tree with %d nodes", n)
		}
		total += int(n)
	}
	for _, column := range []int{len(table.Fids), len(table.Thrs), len(table.Child), len(table.Hs), len(table.Weights), len(table.Depth)} {
		if column != total {
			return nil, dataErrorf("column of %d entries, trees have %d nodes", column, total)
		}
	}

	cascade := &Cascade{Mode: table.Mode}
	offset := 0
	for _, n := range table.Nodes {
		tree := Tree{Nodes: make([]TreeNode, n), FeatureDim: table.FeatureDim}
		for k := range tree.Nodes {
			q := offset + k
			tree.Nodes[k] = TreeNode{
				FeatureIndex: int(table.Fids[q]),
				Threshold:    Threshold{Value: table.Thrs[q]},
				Child:        int(table.Child[q]),
				LogOdds:      table.Hs[q],
				Weight:       table.Weights[q],
				Depth:        int(table.Depth[q]),
			}
		}
		cascade.Append(tree)
		offset += int(n)
	}

	if err := cascade.CheckModel(); err != nil {
		return nil, err
	}
	return cascade, nil
}

//SaveModel writes the cascade as indented JSON.
func (cascade *Cascade) SaveModel(filename string) (err error) {
	dest, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dest.Close(); err == nil {
			err = closeErr
		}
	}()

	modelByteRepr, err := json.MarshalIndent(cascade, "", "  ")
	if err != nil {
		return err
	}
	_, err = dest.Write(modelByteRepr)
	return err
}

//LoadModel reads a cascade written by SaveModel.
func LoadModel(filename string) (*Cascade, error) {
	source, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	cascade := &Cascade{}
	if err = json.NewDecoder(source).Decode(cascade); err != nil {
		return nil, err
	}
	if err = cascade.CheckModel(); err != nil {
		return nil, err
	}
	return cascade, nil
}

//npy file names of the node table columns.
const (
	fidsFile    = "fids.npy"
	thrsFile    = "thrs.npy"
	childFile   = "child.npy"
	hsFile      = "hs.npy"
	weightsFile = "weights.npy"
	depthFile   = "depth.npy"
	nodesFile   = "nodes.npy"
	headerFile  = "header.npy"
)

func writeNpy(filename string, value interface{}) (err error) {
	dest, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dest.Close(); err == nil {
			err = closeErr
		}
	}()
	return npyio.Write(dest, value)
}

func readNpy(filename string, ptr interface{}) error {
	source, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer source.Close()
	return npyio.Read(source, ptr)
}

//SaveNpy writes every column of the node table into its own npy file in dir. header.npy keeps
//the number of trees, the feature dimension and the score mode.
func (cascade *Cascade) SaveNpy(dir string) error {
	if err := cascade.CheckModel(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	table := cascade.Table()
	columns := []struct {
		name  string
		value interface{}
	}{
		{fidsFile, table.Fids},
		{thrsFile, table.Thrs},
		{childFile, table.Child},
		{hsFile, table.Hs},
		{weightsFile, table.Weights},
		{depthFile, table.Depth},
		{nodesFile, table.Nodes},
		{headerFile, []int32{int32(table.NTrees), int32(table.FeatureDim), int32(table.Mode)}},
	}
	for _, column := range columns {
		if err := writeNpy(filepath.Join(dir, column.name), column.value); err != nil {
			return err
		}
	}
	return nil
}

//LoadNpy reads a cascade written by SaveNpy.
func LoadNpy(dir string) (*Cascade, error) {
	var table NodeTable
	var header []int32
	columns := []struct {
		name string
		ptr  interface{}
	}{
		{fidsFile, &table.Fids},
		{thrsFile, &table.Thrs},
		{childFile, &table.Child},
		{hsFile, &table.Hs},
		{weightsFile, &table.Weights},
		{depthFile, &table.Depth},
		{nodesFile, &table.Nodes},
		{headerFile, &header},
	}
	for _, column := range columns {
		if err := readNpy(filepath.Join(dir, column.name), column.ptr); err != nil {
			return nil, err
		}
	}
	if len(header) != 3 {
		return nil, dataErrorf("%s has %d entries instead of 3", headerFile, len(header))
	}
	table.NTrees, table.FeatureDim, table.Mode = int(header[0]), int(header[1]), ScoreMode(header[2])
	return CascadeFromTable(table)
}
