package routing

import (
	"math"
	"math/rand"
	"testing"
)

// bruteForce returns the cost of the cheapest perfect matching by trying
// every pairing, or -1 when none exists.
func bruteForce(cost [][]int64, used []bool) int64 {
	i := 0
	for i < len(used) && used[i] {
		i++
	}
	if i == len(used) {
		return 0
	}

	best := int64(-1)
	used[i] = true
	for j := i + 1; j < len(used); j++ {
		if used[j] || cost[i][j] == NoPair {
			continue
		}
		used[j] = true
		if rest := bruteForce(cost, used); rest >= 0 {
			if total := rest + cost[i][j]; best < 0 || total < best {
				best = total
			}
		}
		used[j] = false
	}
	used[i] = false
	return best
}

func randomCosts(rng *rand.Rand, n int, missing float64) [][]int64 {
	cost := make([][]int64, n)
	for i := range cost {
		cost[i] = make([]int64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := rng.Int63n(10000)
			if rng.Float64() < missing {
				c = NoPair
			}
			cost[i][j], cost[j][i] = c, c
		}
	}
	return cost
}

func matchingCost(t *testing.T, cost [][]int64, mate []int) int64 {
	t.Helper()
	if len(mate) != len(cost) {
		t.Fatalf("mate has %d entries, want %d", len(mate), len(cost))
	}

	var total int64
	for i, j := range mate {
		if j < 0 || j >= len(mate) || mate[j] != i || i == j {
			t.Fatalf("invalid matching %v", mate)
		}
		if cost[i][j] == NoPair {
			t.Fatalf("matching uses missing pair %d-%d", i, j)
		}
		if i < j {
			total += cost[i][j]
		}
	}
	return total
}

func TestMatchersAgainstBruteForce(t *testing.T) {
	matchers := []struct {
		name  string
		match func([][]int64) ([]int, bool)
	}{
		{"subsets", matchSubsets},
		{"blossom", matchBlossom},
	}

	for _, m := range matchers {
		t.Run(m.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			for trial := 0; trial < 200; trial++ {
				n := 2 * (1 + rng.Intn(4))
				cost := randomCosts(rng, n, 0.2)

				want := bruteForce(cost, make([]bool, n))
				mate, ok := m.match(cost)
				if want < 0 {
					if ok {
						t.Fatalf("trial %d: got matching %v, want none", trial, mate)
					}
					continue
				}
				if !ok {
					t.Fatalf("trial %d: no matching found, want cost %d", trial, want)
				}
				if got := matchingCost(t, cost, mate); got != want {
					t.Fatalf("trial %d: got cost %d, want %d", trial, got, want)
				}
			}
		})
	}
}

func TestBlossomMatchesSubsetsOnLargerSets(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 40; trial++ {
		cost := randomCosts(rng, 12, 0.1)

		wantMate, wantOK := matchSubsets(cost)
		gotMate, gotOK := matchBlossom(cost)
		if gotOK != wantOK {
			t.Fatalf("trial %d: blossom ok = %v, subsets ok = %v", trial, gotOK, wantOK)
		}
		if !wantOK {
			continue
		}
		if got, want := matchingCost(t, cost, gotMate), matchingCost(t, cost, wantMate); got != want {
			t.Fatalf("trial %d: got cost %d, want %d", trial, got, want)
		}
	}
}

func TestMinWeightPerfectMatching(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		mate, ok := MinWeightPerfectMatching(nil)
		if !ok || len(mate) != 0 {
			t.Errorf("got %v, %v, want empty matching", mate, ok)
		}
	})

	t.Run("odd vertex count", func(t *testing.T) {
		cost := [][]int64{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}}
		if _, ok := MinWeightPerfectMatching(cost); ok {
			t.Errorf("matched an odd number of vertices")
		}
	})

	t.Run("unreachable pair", func(t *testing.T) {
		cost := [][]int64{{0, NoPair}, {NoPair, 0}}
		if _, ok := MinWeightPerfectMatching(cost); ok {
			t.Errorf("matched an unreachable pair")
		}
	})

	t.Run("prefers cheaper pairs", func(t *testing.T) {
		cost := [][]int64{
			{0, 1, 10, 10},
			{1, 0, 10, 10},
			{10, 10, 0, 1},
			{10, 10, 1, 0},
		}
		mate, ok := MinWeightPerfectMatching(cost)
		if !ok || mate[0] != 1 || mate[2] != 3 {
			t.Errorf("got %v, want [1 0 3 2]", mate)
		}
	})

	t.Run("large set uses blossom", func(t *testing.T) {
		n := 20
		cost := make([][]int64, n)
		for i := range cost {
			cost[i] = make([]int64, n)
			for j := range cost[i] {
				cost[i][j] = int64(math.Abs(float64(i - j)))
			}
		}
		mate, ok := MinWeightPerfectMatching(cost)
		if !ok {
			t.Fatalf("no matching found")
		}
		if got := matchingCost(t, cost, mate); got != int64(n/2) {
			t.Errorf("got cost %d, want %d", got, n/2)
		}
	})
}
