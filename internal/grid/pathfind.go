package grid

import "container/heap"

// --- A* pathfinding ---
//
// Every move costs 1, diagonals included, and the heuristic is Manhattan
// distance. That heuristic overestimates under diagonal moves, so the search
// is not guaranteed optimal around obstacles. On open ground diagonal steps
// always lower f and the path comes out at Chebyshev length.

type pathNode struct {
	id    int
	g, h  int
	seq   int // insertion order, breaks f ties
	index int // heap index
}

type openList []*pathNode

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	fi, fj := ol[i].g+ol[i].h, ol[j].g+ol[j].h
	if fi != fj {
		return fi < fj
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int) { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x any)   { n := x.(*pathNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

// FindPath returns the cells from start (exclusive) to goal (inclusive) along
// an A* path over open cells. It returns nil when start or goal is blocked,
// when no path exists, or when start == goal.
func (t *Topology) FindPath(start, goal Cell) []Cell {
	if !t.IsOpen(start) || !t.IsOpen(goal) || start == goal {
		return nil
	}

	size := t.Size()
	best := make([]int, size)
	for i := range best {
		best[i] = -1
	}
	parent := make([]int, size)
	closed := make([]bool, size)

	startID, goalID := t.Index(start), t.Index(goal)
	seq := 0
	ol := &openList{{id: startID, g: 0, h: Manhattan(start, goal), seq: seq}}
	heap.Init(ol)
	best[startID] = 0
	parent[startID] = -1

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.id == goalID {
			return t.buildPath(parent, goalID)
		}
		if closed[cur.id] {
			continue
		}
		closed[cur.id] = true

		cell := t.CellAt(cur.id)
		for _, d := range Directions {
			nb := cell.Add(d)
			if !t.IsOpen(nb) {
				continue
			}
			nid := t.Index(nb)
			if closed[nid] {
				continue
			}
			g := cur.g + 1
			if prev := best[nid]; prev >= 0 && g >= prev {
				continue
			}
			best[nid] = g
			parent[nid] = cur.id
			seq++
			heap.Push(ol, &pathNode{id: nid, g: g, h: Manhattan(nb, goal), seq: seq})
		}
	}
	return nil
}

func (t *Topology) buildPath(parent []int, goalID int) []Cell {
	var cells []Cell
	for id := goalID; parent[id] != -1; id = parent[id] {
		cells = append(cells, t.CellAt(id))
	}
	// Reverse
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

// BFSDistance returns the fewest eight-way unit steps from start to goal over
// open cells, or -1 if goal is unreachable.
func (t *Topology) BFSDistance(start, goal Cell) int {
	if !t.IsOpen(start) || !t.IsOpen(goal) {
		return -1
	}
	dist := make([]int, t.Size())
	for i := range dist {
		dist[i] = -1
	}
	queue := []int{t.Index(start)}
	dist[queue[0]] = 0
	goalID := t.Index(goal)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == goalID {
			return dist[id]
		}
		for _, nb := range t.OpenNeighbors(t.CellAt(id)) {
			nid := t.Index(nb)
			if dist[nid] >= 0 {
				continue
			}
			dist[nid] = dist[id] + 1
			queue = append(queue, nid)
		}
	}
	return -1
}
