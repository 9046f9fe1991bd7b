package docstore

import (
	"encoding/json"
	"sort"
	"strings"
)

// SortDocuments orders docs by the given field. Missing values sort first,
// then booleans, numbers and strings. Ties fall back to the document id so
// the order is stable across snapshots.
func SortDocuments(docs []Document, field string, descending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := compareValues(docs[i].Fields[field], docs[j].Fields[field])
		if c == 0 {
			c = strings.Compare(docs[i].ID, docs[j].ID)
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64, float32, int, int64, int32, json.Number:
		return 2
	case string:
		return 3
	}
	return 4
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ra {
	case 1:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		}
		return 1
	case 2:
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

// toFloat converts any JSON-ish numeric value to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
