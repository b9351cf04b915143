package firestore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	cartdom "brihaspati/internal/domain/cart"
)

func asString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(v)
	}
}

func asInt(v any) int {
	if v == nil {
		return 0
	}
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		// best-effort
		n, _ := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v)))
		return n
	}
}

// asFloat accepts the numeric shapes Firestore returns (int64 for whole
// numbers written from JS, float64 otherwise) and numeric strings.
func asFloat(v any) float64 {
	if v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}

// asTime returns (time, ok)
func asTime(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		tt, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		return tt, err == nil
	default:
		return time.Time{}, false
	}
}

// asLines decodes an items array written by any client. Rows that are not
// maps are skipped; invalid rows are dropped by cart.Normalize.
func asLines(v any) []cartdom.Line {
	raw, ok := v.([]any)
	if !ok {
		return []cartdom.Line{}
	}
	out := make([]cartdom.Line, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, cartdom.Line{
			ProductID: strings.TrimSpace(asString(m["id"])),
			Name:      asString(m["name"]),
			UnitPrice: asFloat(m["price"]),
			ImageRef:  asString(m["image"]),
			Quantity:  asInt(m["quantity"]),
		})
	}
	return cartdom.Normalize(out)
}

// linesToDocs is the inverse of asLines.
func linesToDocs(lines []cartdom.Line) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, map[string]any{
			"id":       l.ProductID,
			"name":     l.Name,
			"price":    l.UnitPrice,
			"image":    l.ImageRef,
			"quantity": l.Quantity,
		})
	}
	return out
}
