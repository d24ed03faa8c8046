package scl

import "fmt"

//weightArena owns per-node weight vectors during tree growth. Buffers are addressed by node
//index; a node's buffers are stored once, when the node is created, and retired once, when the
//node is resolved into a leaf or a split.
type weightArena struct {
	neg, pos [][]float64
	retired  []bool
	live     int
}

func newWeightArena(capacity int) *weightArena {
	return &weightArena{
		neg:     make([][]float64, 0, capacity),
		pos:     make([][]float64, 0, capacity),
		retired: make([]bool, 0, capacity),
	}
}

//put stores weights of the node with index k. Nodes are put in index order.
func (a *weightArena) put(k int, neg, pos []float64) {
	if k != len(a.neg) {
		panic(fmt.Sprintf("weight arena: node %d stored out of order, expected %d", k, len(a.neg)))
	}
	a.neg = append(a.neg, neg)
	a.pos = append(a.pos, pos)
	a.retired = append(a.retired, false)
	a.live++
}

//get returns weights of a pending node.
func (a *weightArena) get(k int) (neg, pos []float64) {
	if a.retired[k] {
		panic(fmt.Sprintf("weight arena: node %d is already retired", k))
	}
	return a.neg[k], a.pos[k]
}

//retire releases weights of node k.
func (a *weightArena) retire(k int) {
	if a.retired[k] {
		panic(fmt.Sprintf("weight arena: node %d is retired twice", k))
	}
	a.neg[k], a.pos[k] = nil, nil
	a.retired[k] = true
	a.live--
}

//liveNodes returns the number of nodes whose weights are still held.
func (a *weightArena) liveNodes() int {
	return a.live
}
