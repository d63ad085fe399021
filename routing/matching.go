package routing

import "math"

// NoPair marks two vertices that cannot be matched with each other
const NoPair int64 = -1

// dpLimit is the largest vertex count solved by exhaustive subset search
const dpLimit = 12

// MinWeightPerfectMatching pairs up every vertex of the complete graph
// described by cost at minimum total cost. cost must be symmetric; entries
// equal to NoPair are missing edges. mate[i] is the partner of vertex i. ok
// is false when no perfect matching exists.
func MinWeightPerfectMatching(cost [][]int64) (mate []int, ok bool) {
	n := len(cost)
	if n%2 != 0 {
		return nil, false
	}
	if n == 0 {
		return []int{}, true
	}
	if n <= dpLimit {
		return matchSubsets(cost)
	}
	return matchBlossom(cost)
}

// matchSubsets solves the matching by dynamic programming over vertex
// subsets, always pairing the lowest unmatched vertex first.
func matchSubsets(cost [][]int64) ([]int, bool) {
	n := len(cost)
	full := 1<<uint(n) - 1

	best := make([]int64, full+1)
	choice := make([][2]int, full+1)
	for i := range best {
		best[i] = math.MaxInt64
	}
	best[0] = 0

	for mask := 0; mask < full; mask++ {
		if best[mask] == math.MaxInt64 {
			continue
		}
		i := 0
		for mask&(1<<uint(i)) != 0 {
			i++
		}
		for j := i + 1; j < n; j++ {
			if mask&(1<<uint(j)) != 0 || cost[i][j] == NoPair {
				continue
			}
			next := mask | 1<<uint(i) | 1<<uint(j)
			if total := best[mask] + cost[i][j]; total < best[next] {
				best[next] = total
				choice[next] = [2]int{i, j}
			}
		}
	}
	if best[full] == math.MaxInt64 {
		return nil, false
	}

	mate := make([]int, n)
	for mask := full; mask != 0; {
		pair := choice[mask]
		mate[pair[0]], mate[pair[1]] = pair[1], pair[0]
		mask &^= 1<<uint(pair[0]) | 1<<uint(pair[1])
	}
	return mate, true
}

// matchBlossom turns the minimum-cost problem into a maximum-weight,
// maximum-cardinality one and solves it with Edmonds' blossom algorithm.
func matchBlossom(cost [][]int64) ([]int, bool) {
	n := len(cost)

	var maxCost int64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if cost[i][j] > maxCost {
				maxCost = cost[i][j]
			}
		}
	}

	var edges []weightedEdge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if cost[i][j] == NoPair {
				continue
			}
			edges = append(edges, weightedEdge{i: i, j: j, w: maxCost + 1 - cost[i][j]})
		}
	}

	mate := maxWeightMatching(n, edges, true)
	for _, m := range mate {
		if m < 0 {
			return nil, false
		}
	}
	return mate, true
}

type weightedEdge struct {
	i, j int
	w    int64
}

// at indexes s the way a cyclic blossom list is walked: negative positions
// count from the end.
func at(s []int, idx int) int {
	n := len(s)
	return s[((idx%n)+n)%n]
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// blossomMatcher holds the state of one run of the primal-dual blossom
// algorithm. Vertices are 0..n-1, non-trivial blossoms n..2n-1. Edge k has
// endpoints 2k and 2k+1.
type blossomMatcher struct {
	n     int
	edges []weightedEdge

	endpoint         []int
	neighbend        [][]int
	mate             []int
	label            []int
	labelend         []int
	inblossom        []int
	blossomparent    []int
	blossomchilds    [][]int
	blossombase      []int
	blossomendps     [][]int
	bestedge         []int
	blossombestedges [][]int
	unusedblossoms   []int
	dualvar          []int64
	allowedge        []bool
	queue            []int
}

// maxWeightMatching computes a maximum-weight matching over n vertices.
// With maxCardinality set only maximum-cardinality matchings are
// considered. The result maps each vertex to its partner, or -1.
func maxWeightMatching(n int, edges []weightedEdge, maxCardinality bool) []int {
	mate := make([]int, n)
	for i := range mate {
		mate[i] = -1
	}
	if len(edges) == 0 {
		return mate
	}

	m := newBlossomMatcher(n, edges)
	m.run(maxCardinality)

	for v := 0; v < n; v++ {
		if m.mate[v] >= 0 {
			mate[v] = m.endpoint[m.mate[v]]
		}
	}
	return mate
}

func newBlossomMatcher(n int, edges []weightedEdge) *blossomMatcher {
	m := &blossomMatcher{n: n, edges: edges}

	var maxWeight int64
	for _, e := range edges {
		if e.w > maxWeight {
			maxWeight = e.w
		}
	}

	m.endpoint = make([]int, 2*len(edges))
	for p := range m.endpoint {
		if p%2 == 0 {
			m.endpoint[p] = edges[p/2].i
		} else {
			m.endpoint[p] = edges[p/2].j
		}
	}
	m.neighbend = make([][]int, n)
	for k, e := range edges {
		m.neighbend[e.i] = append(m.neighbend[e.i], 2*k+1)
		m.neighbend[e.j] = append(m.neighbend[e.j], 2*k)
	}

	m.mate = filled(n, -1)
	m.label = make([]int, 2*n)
	m.labelend = filled(2*n, -1)
	m.inblossom = make([]int, n)
	for i := range m.inblossom {
		m.inblossom[i] = i
	}
	m.blossomparent = filled(2*n, -1)
	m.blossomchilds = make([][]int, 2*n)
	m.blossombase = filled(2*n, -1)
	for i := 0; i < n; i++ {
		m.blossombase[i] = i
	}
	m.blossomendps = make([][]int, 2*n)
	m.bestedge = filled(2*n, -1)
	m.blossombestedges = make([][]int, 2*n)
	for b := n; b < 2*n; b++ {
		m.unusedblossoms = append(m.unusedblossoms, b)
	}
	m.dualvar = make([]int64, 2*n)
	for i := 0; i < n; i++ {
		m.dualvar[i] = maxWeight
	}
	m.allowedge = make([]bool, len(edges))
	return m
}

func filled(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func (m *blossomMatcher) slack(k int) int64 {
	e := m.edges[k]
	return m.dualvar[e.i] + m.dualvar[e.j] - 2*e.w
}

func (m *blossomMatcher) leaves(b int) []int {
	if b < m.n {
		return []int{b}
	}
	var result []int
	for _, t := range m.blossomchilds[b] {
		if t < m.n {
			result = append(result, t)
		} else {
			result = append(result, m.leaves(t)...)
		}
	}
	return result
}

// assignLabel labels the top-level blossom containing w with t, reached
// through endpoint p. T-blossoms pass label S on to their mate.
func (m *blossomMatcher) assignLabel(w, t, p int) {
	b := m.inblossom[w]
	m.label[w], m.label[b] = t, t
	m.labelend[w], m.labelend[b] = p, p
	m.bestedge[w], m.bestedge[b] = -1, -1
	if t == 1 {
		m.queue = append(m.queue, m.leaves(b)...)
	} else if t == 2 {
		base := m.blossombase[b]
		m.assignLabel(m.endpoint[m.mate[base]], 1, m.mate[base]^1)
	}
}

// scanBlossom traces back from v and w to find a new blossom base, or -1
// when the paths reach two different roots (an augmenting path).
func (m *blossomMatcher) scanBlossom(v, w int) int {
	var path []int
	base := -1
	for v != -1 || w != -1 {
		b := m.inblossom[v]
		if m.label[b]&4 != 0 {
			base = m.blossombase[b]
			break
		}
		path = append(path, b)
		m.label[b] = 5
		if m.labelend[b] == -1 {
			v = -1
		} else {
			v = m.endpoint[m.labelend[b]]
			b = m.inblossom[v]
			v = m.endpoint[m.labelend[b]]
		}
		if w != -1 {
			v, w = w, v
		}
	}
	for _, b := range path {
		m.label[b] = 1
	}
	return base
}

// addBlossom contracts the odd cycle closed by edge k into a new S-blossom
func (m *blossomMatcher) addBlossom(base, k int) {
	v, w := m.edges[k].i, m.edges[k].j
	bb := m.inblossom[base]
	bv := m.inblossom[v]
	bw := m.inblossom[w]

	b := m.unusedblossoms[len(m.unusedblossoms)-1]
	m.unusedblossoms = m.unusedblossoms[:len(m.unusedblossoms)-1]
	m.blossombase[b] = base
	m.blossomparent[b] = -1
	m.blossomparent[bb] = b

	var path, endps []int
	for bv != bb {
		m.blossomparent[bv] = b
		path = append(path, bv)
		endps = append(endps, m.labelend[bv])
		v = m.endpoint[m.labelend[bv]]
		bv = m.inblossom[v]
	}
	path = append(path, bb)
	reverseInts(path)
	reverseInts(endps)
	endps = append(endps, 2*k)
	for bw != bb {
		m.blossomparent[bw] = b
		path = append(path, bw)
		endps = append(endps, m.labelend[bw]^1)
		w = m.endpoint[m.labelend[bw]]
		bw = m.inblossom[w]
	}
	m.blossomchilds[b] = path
	m.blossomendps[b] = endps

	m.label[b] = 1
	m.labelend[b] = m.labelend[bb]
	m.dualvar[b] = 0
	for _, leaf := range m.leaves(b) {
		if m.label[m.inblossom[leaf]] == 2 {
			m.queue = append(m.queue, leaf)
		}
		m.inblossom[leaf] = b
	}

	bestedgeto := filled(2*m.n, -1)
	for _, child := range path {
		var nblists [][]int
		if m.blossombestedges[child] == nil {
			for _, leaf := range m.leaves(child) {
				list := make([]int, 0, len(m.neighbend[leaf]))
				for _, p := range m.neighbend[leaf] {
					list = append(list, p/2)
				}
				nblists = append(nblists, list)
			}
		} else {
			nblists = [][]int{m.blossombestedges[child]}
		}
		for _, nblist := range nblists {
			for _, kk := range nblist {
				j := m.edges[kk].j
				if m.inblossom[j] == b {
					j = m.edges[kk].i
				}
				bj := m.inblossom[j]
				if bj != b && m.label[bj] == 1 &&
					(bestedgeto[bj] == -1 || m.slack(kk) < m.slack(bestedgeto[bj])) {
					bestedgeto[bj] = kk
				}
			}
		}
		m.blossombestedges[child] = nil
		m.bestedge[child] = -1
	}

	var best []int
	for _, kk := range bestedgeto {
		if kk != -1 {
			best = append(best, kk)
		}
	}
	m.blossombestedges[b] = best
	if best == nil {
		m.blossombestedges[b] = []int{}
	}
	m.bestedge[b] = -1
	for _, kk := range best {
		if m.bestedge[b] == -1 || m.slack(kk) < m.slack(m.bestedge[b]) {
			m.bestedge[b] = kk
		}
	}
}

// expandBlossom dissolves blossom b into its children. Outside the end of a
// stage, a T-blossom relabels the children on its alternating path.
func (m *blossomMatcher) expandBlossom(b int, endStage bool) {
	for _, s := range m.blossomchilds[b] {
		m.blossomparent[s] = -1
		if s < m.n {
			m.inblossom[s] = s
		} else if endStage && m.dualvar[s] == 0 {
			m.expandBlossom(s, endStage)
		} else {
			for _, leaf := range m.leaves(s) {
				m.inblossom[leaf] = s
			}
		}
	}

	if !endStage && m.label[b] == 2 {
		childs := m.blossomchilds[b]
		endps := m.blossomendps[b]

		entrychild := m.inblossom[m.endpoint[m.labelend[b]^1]]
		j := indexOf(childs, entrychild)
		var jstep, endptrick int
		if j&1 != 0 {
			j -= len(childs)
			jstep = 1
			endptrick = 0
		} else {
			jstep = -1
			endptrick = 1
		}

		p := m.labelend[b]
		for j != 0 {
			m.label[m.endpoint[p^1]] = 0
			m.label[m.endpoint[at(endps, j-endptrick)^endptrick^1]] = 0
			m.assignLabel(m.endpoint[p^1], 2, p)
			m.allowedge[at(endps, j-endptrick)/2] = true
			j += jstep
			p = at(endps, j-endptrick) ^ endptrick
			m.allowedge[p/2] = true
			j += jstep
		}

		bv := at(childs, j)
		m.label[m.endpoint[p^1]], m.label[bv] = 2, 2
		m.labelend[m.endpoint[p^1]], m.labelend[bv] = p, p
		m.bestedge[bv] = -1
		j += jstep
		for at(childs, j) != entrychild {
			bv = at(childs, j)
			if m.label[bv] == 1 {
				j += jstep
				continue
			}
			found := -1
			for _, leaf := range m.leaves(bv) {
				if m.label[leaf] != 0 {
					found = leaf
					break
				}
			}
			if found >= 0 {
				m.label[found] = 0
				m.label[m.endpoint[m.mate[m.blossombase[bv]]]] = 0
				m.assignLabel(found, 2, m.labelend[found])
			}
			j += jstep
		}
	}

	m.label[b], m.labelend[b] = -1, -1
	m.blossomchilds[b], m.blossomendps[b] = nil, nil
	m.blossombase[b] = -1
	m.blossombestedges[b] = nil
	m.bestedge[b] = -1
	m.unusedblossoms = append(m.unusedblossoms, b)
}

// augmentBlossom swaps matched and unmatched edges along the even path from
// vertex v to the base of blossom b, making v the new base.
func (m *blossomMatcher) augmentBlossom(b, v int) {
	t := v
	for m.blossomparent[t] != b {
		t = m.blossomparent[t]
	}
	if t >= m.n {
		m.augmentBlossom(t, v)
	}

	childs := m.blossomchilds[b]
	endps := m.blossomendps[b]
	i := indexOf(childs, t)
	j := i
	var jstep, endptrick int
	if i&1 != 0 {
		j -= len(childs)
		jstep = 1
		endptrick = 0
	} else {
		jstep = -1
		endptrick = 1
	}

	for j != 0 {
		j += jstep
		t = at(childs, j)
		p := at(endps, j-endptrick) ^ endptrick
		if t >= m.n {
			m.augmentBlossom(t, m.endpoint[p])
		}
		j += jstep
		t = at(childs, j)
		if t >= m.n {
			m.augmentBlossom(t, m.endpoint[p^1])
		}
		m.mate[m.endpoint[p]] = p ^ 1
		m.mate[m.endpoint[p^1]] = p
	}

	m.blossomchilds[b] = append(append([]int(nil), childs[i:]...), childs[:i]...)
	m.blossomendps[b] = append(append([]int(nil), endps[i:]...), endps[:i]...)
	m.blossombase[b] = m.blossombase[m.blossomchilds[b][0]]
}

// augmentMatching flips the augmenting path through edge k
func (m *blossomMatcher) augmentMatching(k int) {
	v, w := m.edges[k].i, m.edges[k].j
	for _, start := range [2][2]int{{v, 2*k + 1}, {w, 2 * k}} {
		s, p := start[0], start[1]
		for {
			bs := m.inblossom[s]
			if bs >= m.n {
				m.augmentBlossom(bs, s)
			}
			m.mate[s] = p
			if m.labelend[bs] == -1 {
				break
			}
			t := m.endpoint[m.labelend[bs]]
			bt := m.inblossom[t]
			s = m.endpoint[m.labelend[bt]]
			j := m.endpoint[m.labelend[bt]^1]
			if bt >= m.n {
				m.augmentBlossom(bt, j)
			}
			m.mate[j] = m.labelend[bt]
			p = m.labelend[bt] ^ 1
		}
	}
}

func (m *blossomMatcher) run(maxCardinality bool) {
	n := m.n
	for stage := 0; stage < n; stage++ {
		for i := range m.label {
			m.label[i] = 0
			m.bestedge[i] = -1
		}
		for b := n; b < 2*n; b++ {
			m.blossombestedges[b] = nil
		}
		for k := range m.allowedge {
			m.allowedge[k] = false
		}
		m.queue = m.queue[:0]

		for v := 0; v < n; v++ {
			if m.mate[v] == -1 && m.label[m.inblossom[v]] == 0 {
				m.assignLabel(v, 1, -1)
			}
		}

		augmented := false
		for {
			for len(m.queue) > 0 && !augmented {
				v := m.queue[len(m.queue)-1]
				m.queue = m.queue[:len(m.queue)-1]

				for _, p := range m.neighbend[v] {
					k := p / 2
					w := m.endpoint[p]
					if m.inblossom[v] == m.inblossom[w] {
						continue
					}

					var kslack int64
					if !m.allowedge[k] {
						kslack = m.slack(k)
						if kslack <= 0 {
							m.allowedge[k] = true
						}
					}

					if m.allowedge[k] {
						if m.label[m.inblossom[w]] == 0 {
							m.assignLabel(w, 2, p^1)
						} else if m.label[m.inblossom[w]] == 1 {
							base := m.scanBlossom(v, w)
							if base >= 0 {
								m.addBlossom(base, k)
							} else {
								m.augmentMatching(k)
								augmented = true
								break
							}
						} else if m.label[w] == 0 {
							m.label[w] = 2
							m.labelend[w] = p ^ 1
						}
					} else if m.label[m.inblossom[w]] == 1 {
						b := m.inblossom[v]
						if m.bestedge[b] == -1 || kslack < m.slack(m.bestedge[b]) {
							m.bestedge[b] = k
						}
					} else if m.label[w] == 0 {
						if m.bestedge[w] == -1 || kslack < m.slack(m.bestedge[w]) {
							m.bestedge[w] = k
						}
					}
				}
			}
			if augmented {
				break
			}

			deltatype := -1
			var delta int64
			deltaedge, deltablossom := -1, -1

			if !maxCardinality {
				deltatype = 1
				delta = m.minVertexDual()
			}
			for v := 0; v < n; v++ {
				if m.label[m.inblossom[v]] == 0 && m.bestedge[v] != -1 {
					d := m.slack(m.bestedge[v])
					if deltatype == -1 || d < delta {
						delta = d
						deltatype = 2
						deltaedge = m.bestedge[v]
					}
				}
			}
			for b := 0; b < 2*n; b++ {
				if m.blossomparent[b] == -1 && m.label[b] == 1 && m.bestedge[b] != -1 {
					d := m.slack(m.bestedge[b]) / 2
					if deltatype == -1 || d < delta {
						delta = d
						deltatype = 3
						deltaedge = m.bestedge[b]
					}
				}
			}
			for b := n; b < 2*n; b++ {
				if m.blossombase[b] >= 0 && m.blossomparent[b] == -1 && m.label[b] == 2 &&
					(deltatype == -1 || m.dualvar[b] < delta) {
					delta = m.dualvar[b]
					deltatype = 4
					deltablossom = b
				}
			}
			if deltatype == -1 {
				// No further improvement possible; optimum reached
				deltatype = 1
				delta = m.minVertexDual()
				if delta < 0 {
					delta = 0
				}
			}

			for v := 0; v < n; v++ {
				switch m.label[m.inblossom[v]] {
				case 1:
					m.dualvar[v] -= delta
				case 2:
					m.dualvar[v] += delta
				}
			}
			for b := n; b < 2*n; b++ {
				if m.blossombase[b] >= 0 && m.blossomparent[b] == -1 {
					switch m.label[b] {
					case 1:
						m.dualvar[b] += delta
					case 2:
						m.dualvar[b] -= delta
					}
				}
			}

			if deltatype == 1 {
				break
			} else if deltatype == 2 {
				m.allowedge[deltaedge] = true
				i := m.edges[deltaedge].i
				if m.label[m.inblossom[i]] == 0 {
					i = m.edges[deltaedge].j
				}
				m.queue = append(m.queue, i)
			} else if deltatype == 3 {
				m.allowedge[deltaedge] = true
				m.queue = append(m.queue, m.edges[deltaedge].i)
			} else if deltatype == 4 {
				m.expandBlossom(deltablossom, false)
			}
		}

		if !augmented {
			break
		}

		for b := n; b < 2*n; b++ {
			if m.blossomparent[b] == -1 && m.blossombase[b] >= 0 && m.label[b] == 1 && m.dualvar[b] == 0 {
				m.expandBlossom(b, true)
			}
		}
	}
}

func (m *blossomMatcher) minVertexDual() int64 {
	minDual := m.dualvar[0]
	for v := 1; v < m.n; v++ {
		if m.dualvar[v] < minDual {
			minDual = m.dualvar[v]
		}
	}
	return minDual
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
