package canonical

import (
	"fmt"
	"math"
	"sort"
)

// ComparisonResult reports the first point of divergence between two
// documents compared under a contract. A full diff is deliberately not
// produced: callers act on one discrepancy at a time.
type ComparisonResult struct {
	Match     bool   `json:"match"`
	Path      string `json:"path,omitempty"`
	Baseline  any    `json:"baseline,omitempty"`
	Candidate any    `json:"candidate,omitempty"`
}

// missing marks a key present on only one side.
const missing = "<missing>"

// Compare canonicalizes baseline and candidate under the same contract and
// walks both trees in lock-step by sorted key order, returning the first
// path at which they differ. The contract's tolerance applies to numeric
// leaves here (and only here — hashing stays exact).
func Compare(baseline, candidate any, contract *Contract) (ComparisonResult, error) {
	b, err := normalize(baseline, "$", map[uintptr]bool{})
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("canonicalize baseline: %w", err)
	}
	c, err := normalize(candidate, "$", map[uintptr]bool{})
	if err != nil {
		return ComparisonResult{}, fmt.Errorf("canonicalize candidate: %w", err)
	}
	b = contract.strip(b, nil)
	c = contract.strip(c, nil)

	var tol float64
	if contract != nil {
		tol = contract.Tolerance
	}
	if res, diverged := diverge(b, c, "", tol); diverged {
		return res, nil
	}
	return ComparisonResult{Match: true}, nil
}

// diverge walks both values and reports the deepest path of the first
// difference. path is "" at the root; children extend it with ".key" and
// "[i]" notation.
func diverge(b, c any, path string, tol float64) (ComparisonResult, bool) {
	bm, bIsMap := b.(map[string]any)
	cm, cIsMap := c.(map[string]any)
	if bIsMap && cIsMap {
		keys := unionKeys(bm, cm)
		for _, k := range keys {
			bv, bok := bm[k]
			cv, cok := cm[k]
			childPath := joinKey(path, k)
			if !bok {
				return ComparisonResult{Path: childPath, Baseline: missing, Candidate: cv}, true
			}
			if !cok {
				return ComparisonResult{Path: childPath, Baseline: bv, Candidate: missing}, true
			}
			if res, d := diverge(bv, cv, childPath, tol); d {
				return res, true
			}
		}
		return ComparisonResult{}, false
	}

	bs, bIsSeq := b.([]any)
	cs, cIsSeq := c.([]any)
	if bIsSeq && cIsSeq {
		n := len(bs)
		if len(cs) < n {
			n = len(cs)
		}
		for i := 0; i < n; i++ {
			childPath := fmt.Sprintf("%s[%d]", path, i)
			if res, d := diverge(bs[i], cs[i], childPath, tol); d {
				return res, true
			}
		}
		if len(bs) != len(cs) {
			childPath := fmt.Sprintf("%s[%d]", path, n)
			if len(bs) > n {
				return ComparisonResult{Path: childPath, Baseline: bs[n], Candidate: missing}, true
			}
			return ComparisonResult{Path: childPath, Baseline: missing, Candidate: cs[n]}, true
		}
		return ComparisonResult{}, false
	}

	if leafEqual(b, c, tol) {
		return ComparisonResult{}, false
	}
	return ComparisonResult{Path: rootOr(path), Baseline: b, Candidate: c}, true
}

func leafEqual(b, c any, tol float64) bool {
	bf, bNum := asFloat(b)
	cf, cNum := asFloat(c)
	if bNum && cNum {
		if tol > 0 {
			return math.Abs(bf-cf) <= tol
		}
		return bf == cf
	}
	return b == c
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func unionKeys(a, b map[string]any) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		set[k] = struct{}{}
	}
	for k := range b {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinKey(path, k string) string {
	if path == "" {
		return k
	}
	return path + "." + k
}

func rootOr(path string) string {
	if path == "" {
		return "$"
	}
	return path
}
