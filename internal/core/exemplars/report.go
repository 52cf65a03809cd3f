package exemplars

import "sort"

// Entry is one ranked cluster.
type Entry struct {
	Cluster    string   `json:"cluster" yaml:"cluster"`
	CodePoints []string `json:"code_points" yaml:"code_points"`
	Class      Class    `json:"class" yaml:"class"`
	Count      int      `json:"count" yaml:"count"`
	FirstSeen  int      `json:"first_seen" yaml:"first_seen"`
}

// Group holds the ranked entries of one class.
type Group struct {
	Class   Class   `json:"class" yaml:"class"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Report is the result of Analyze. Totals always describe the whole accumulator,
// even when MinCount left some clusters out of Entries.
type Report struct {
	TotalFragments int     `json:"total_fragments" yaml:"total_fragments"`
	TotalClusters  int     `json:"total_clusters" yaml:"total_clusters"`
	Distinct       int     `json:"distinct" yaml:"distinct"`
	Ranking        Ranking `json:"ranking" yaml:"ranking"`
	Entries        []Entry `json:"entries" yaml:"entries"`
	Groups         []Group `json:"groups" yaml:"groups"`
}

// Empty reports whether no cluster made it into the report.
func (r Report) Empty() bool { return len(r.Entries) == 0 }

// Group returns the ranked entries of class c, or nil.
func (r Report) Group(c Class) []Entry {
	for _, g := range r.Groups {
		if g.Class == c {
			return g.Entries
		}
	}
	return nil
}

// Clusters returns the ranked cluster strings.
func (r Report) Clusters() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Cluster
	}
	return out
}

// lessFunc orders two entries; every policy falls back to first-seen so the order
// is total.
type lessFunc func(a, b Entry) bool

func rankingLess(r Ranking) lessFunc {
	switch r {
	case RankFirstSeen:
		return func(a, b Entry) bool { return a.FirstSeen < b.FirstSeen }
	case RankCodepoint:
		return func(a, b Entry) bool {
			if a.Cluster != b.Cluster {
				return a.Cluster < b.Cluster
			}
			return a.FirstSeen < b.FirstSeen
		}
	default:
		return func(a, b Entry) bool {
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.FirstSeen < b.FirstSeen
		}
	}
}

func buildReport(acc *Accumulator, opts Options) Report {
	rep := Report{
		TotalFragments: acc.TotalFragments(),
		TotalClusters:  acc.TotalClusters(),
		Distinct:       acc.Distinct(),
		Ranking:        opts.Ranking,
		Entries:        []Entry{},
		Groups:         []Group{},
	}

	for _, c := range acc.order {
		n := acc.counts[c]
		if n < opts.MinCount {
			continue
		}
		rep.Entries = append(rep.Entries, Entry{
			Cluster:    c,
			CodePoints: CodePoints(c),
			Class:      ClassOfCluster(c),
			Count:      n,
			FirstSeen:  acc.firstSeen[c],
		})
	}

	less := rankingLess(opts.Ranking)
	sort.SliceStable(rep.Entries, func(i, j int) bool {
		return less(rep.Entries[i], rep.Entries[j])
	})

	// Groups are stable partitions of the ranked list.
	byClass := make(map[Class][]Entry)
	for _, e := range rep.Entries {
		byClass[e.Class] = append(byClass[e.Class], e)
	}
	for _, c := range Classes {
		if entries := byClass[c]; len(entries) > 0 {
			rep.Groups = append(rep.Groups, Group{Class: c, Entries: entries})
		}
	}
	return rep
}
