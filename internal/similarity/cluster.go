package similarity

import (
	"math"
	"sort"
)

// PairwiseCosine returns the symmetric cosine similarity matrix of the given vectors.
// Values lie in [-1,1]; zero vectors have similarity 0 with everything.
func PairwiseCosine(matrix [][]float32) [][]float64 {
	n := len(matrix)
	norms := make([]float64, n)
	for i, v := range matrix {
		var s float64
		for _, x := range v {
			s += float64(x) * float64(x)
		}
		norms[i] = math.Sqrt(s)
	}

	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if norms[i] == 0 || norms[j] == 0 {
				continue
			}
			var dot float64
			a, b := matrix[i], matrix[j]
			for k := 0; k < len(a) && k < len(b); k++ {
				dot += float64(a[k]) * float64(b[k])
			}
			v := dot / (norms[i] * norms[j])
			v = math.Max(-1, math.Min(1, v))
			sim[i][j] = v
			sim[j][i] = v
		}
	}
	return sim
}

// averageLinkage clusters items given a similarity matrix. Clusters are merged
// while the closest pair's average distance (1 - similarity) is strictly below
// 1 - threshold. Ties go to the lowest index pair. Returned clusters hold sorted
// indices and are ordered by their first member.
func averageLinkage(sim [][]float64, threshold float64) [][]int {
	n := len(sim)
	if n == 0 {
		return [][]int{}
	}
	cutoff := 1 - threshold

	dist := make([][]float64, n)
	members := make([][]int, n)
	active := make([]bool, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			s := math.Max(0, math.Min(1, sim[i][j]))
			dist[i][j] = 1 - s
		}
		members[i] = []int{i}
		active[i] = true
	}

	for {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					best = dist[i][j]
					bi, bj = i, j
				}
			}
		}
		if bi < 0 || best >= cutoff {
			break
		}

		si, sj := float64(len(members[bi])), float64(len(members[bj]))
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			d := (si*dist[bi][k] + sj*dist[bj][k]) / (si + sj)
			dist[bi][k] = d
			dist[k][bi] = d
		}
		members[bi] = append(members[bi], members[bj]...)
		active[bj] = false
	}

	clusters := make([][]int, 0)
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		c := append([]int(nil), members[i]...)
		sort.Ints(c)
		clusters = append(clusters, c)
	}
	sort.SliceStable(clusters, func(a, b int) bool {
		return clusters[a][0] < clusters[b][0]
	})
	return clusters
}
