package exemplars

// Accumulator holds the running counts of one engine.
//
// counts:    occurrences per cluster; values only ever grow.
// firstSeen: index of the cluster in first-appearance order.
// order:     clusters in first-appearance order.
//
// The sum of counts always equals clusters.
type Accumulator struct {
	counts    map[string]int
	firstSeen map[string]int
	order     []string
	fragments int
	clusters  int
}

func newAccumulator() *Accumulator {
	return &Accumulator{
		counts:    make(map[string]int),
		firstSeen: make(map[string]int),
	}
}

// addFragment folds the clusters of one fragment in.
func (a *Accumulator) addFragment(clusters []string) {
	for _, c := range clusters {
		if _, ok := a.counts[c]; !ok {
			a.firstSeen[c] = len(a.order)
			a.order = append(a.order, c)
		}
		a.counts[c]++
	}
	a.fragments++
	a.clusters += len(clusters)
}

func (a *Accumulator) TotalFragments() int { return a.fragments }

func (a *Accumulator) TotalClusters() int { return a.clusters }

// Distinct is the number of different clusters seen.
func (a *Accumulator) Distinct() int { return len(a.order) }

func (a *Accumulator) Count(cluster string) int { return a.counts[cluster] }

// FirstSeen returns the first-appearance index of cluster, or -1.
func (a *Accumulator) FirstSeen(cluster string) int {
	if i, ok := a.firstSeen[cluster]; ok {
		return i
	}
	return -1
}

// Counts returns a copy of the cluster counts.
func (a *Accumulator) Counts() map[string]int {
	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}
