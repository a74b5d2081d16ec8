package tui

import (
	"sort"
	"strings"

	"github.com/dm/meshtop-go/internal/model"
)

// sortNodeRows returns a sorted copy of rows.
// Column mapping:
//
//	0=Name, 1=Kind, 2=Namespace, 3=Health, 4=RequestRate, 5=ErrorPct, 6=TCPRate
//
// col -1 means no sort (preserve order).
// Ties are broken by Name ascending.
func sortNodeRows(rows []model.NodeRow, col int, desc bool) []model.NodeRow {
	out := make([]model.NodeRow, len(rows))
	copy(out, rows)

	if col < 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less bool
		switch col {
		case 0:
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case 1:
			if a.Kind != b.Kind {
				less = a.Kind < b.Kind
			} else {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
		case 2:
			if a.Namespace != b.Namespace {
				less = a.Namespace < b.Namespace
			} else {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
		case 3:
			if a.Health != b.Health {
				less = a.Health < b.Health
			} else {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
		case 4:
			if a.RequestRate != b.RequestRate {
				less = a.RequestRate < b.RequestRate
			} else {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
		case 5:
			if a.ErrorPct != b.ErrorPct {
				less = a.ErrorPct < b.ErrorPct
			} else {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
		case 6:
			if a.TCPRate != b.TCPRate {
				less = a.TCPRate < b.TCPRate
			} else {
				return strings.ToLower(a.Name) < strings.ToLower(b.Name)
			}
		default:
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

// sortEdgeRows returns a sorted copy of rows.
// Column mapping:
//
//	0=Source, 1=Target, 2=Health, 3=RequestRate, 4=ErrorPct,
//	5=ResponseTime, 6=MTLSPercent, 7=TCPRate
//
// Ties are broken by Source then Target ascending.
func sortEdgeRows(rows []model.EdgeRow, col int, desc bool) []model.EdgeRow {
	out := make([]model.EdgeRow, len(rows))
	copy(out, rows)

	if col < 0 {
		return out
	}

	byRoute := func(a, b model.EdgeRow) bool {
		if a.Source != b.Source {
			return strings.ToLower(a.Source) < strings.ToLower(b.Source)
		}
		return strings.ToLower(a.Target) < strings.ToLower(b.Target)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less bool
		switch col {
		case 0:
			less = strings.ToLower(a.Source) < strings.ToLower(b.Source)
		case 1:
			if a.Target != b.Target {
				less = strings.ToLower(a.Target) < strings.ToLower(b.Target)
			} else {
				return byRoute(a, b)
			}
		case 2:
			if a.Health != b.Health {
				less = a.Health < b.Health
			} else {
				return byRoute(a, b)
			}
		case 3:
			if a.RequestRate != b.RequestRate {
				less = a.RequestRate < b.RequestRate
			} else {
				return byRoute(a, b)
			}
		case 4:
			if a.ErrorPct != b.ErrorPct {
				less = a.ErrorPct < b.ErrorPct
			} else {
				return byRoute(a, b)
			}
		case 5:
			if a.ResponseTime != b.ResponseTime {
				less = a.ResponseTime < b.ResponseTime
			} else {
				return byRoute(a, b)
			}
		case 6:
			if a.MTLSPercent != b.MTLSPercent {
				less = a.MTLSPercent < b.MTLSPercent
			} else {
				return byRoute(a, b)
			}
		case 7:
			if a.TCPRate != b.TCPRate {
				less = a.TCPRate < b.TCPRate
			} else {
				return byRoute(a, b)
			}
		default:
			less = byRoute(a, b)
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

// filterNodeRows returns rows whose Name or Namespace contains search
// (case-insensitive). Returns all rows when search is empty.
func filterNodeRows(rows []model.NodeRow, search string) []model.NodeRow {
	if search == "" {
		return rows
	}
	lower := strings.ToLower(search)
	out := rows[:0:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), lower) ||
			strings.Contains(strings.ToLower(r.Namespace), lower) {
			out = append(out, r)
		}
	}
	return out
}

// filterEdgeRows returns rows whose Source or Target contains search
// (case-insensitive). Returns all rows when search is empty.
func filterEdgeRows(rows []model.EdgeRow, search string) []model.EdgeRow {
	if search == "" {
		return rows
	}
	lower := strings.ToLower(search)
	out := rows[:0:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Source), lower) ||
			strings.Contains(strings.ToLower(r.Target), lower) {
			out = append(out, r)
		}
	}
	return out
}
