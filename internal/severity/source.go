// Package severity derives normalized congestion severity from vector-tile
// feature properties and projects samples into geographic space.
package severity

import (
	"strings"
)

// SourceKind tags which upstream property family produced a severity value.
// Tile property dictionaries are schema-less across flow styles, so the
// source is resolved explicitly instead of probing ad hoc downstream.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceJamFactor
	SourceTrafficLevelNumeric
	SourceTrafficLevelLabel
	SourceSpeedPair
)

// Source is the resolved severity input for one feature.
type Source struct {
	Kind    SourceKind
	Jam     float64 // SourceJamFactor: raw jam factor, 0..10
	Level   float64 // SourceTrafficLevelNumeric
	Label   string  // SourceTrafficLevelLabel
	Current float64 // SourceSpeedPair
	Free    float64 // SourceSpeedPair
}

var levelLabels = map[string]float64{
	"free":     0.0,
	"low":      0.2,
	"light":    0.2,
	"moderate": 0.5,
	"medium":   0.5,
	"high":     0.8,
	"heavy":    0.8,
	"severe":   0.9,
	"critical": 1.0,
}

// Resolve inspects a feature's properties and picks the severity source,
// first match wins: jam factor, then traffic level, then a speed pair.
func Resolve(props map[string]interface{}) Source {
	if jam, ok := findJamFactor(props); ok {
		return Source{Kind: SourceJamFactor, Jam: jam}
	}
	if v, ok := props["traffic_level"]; ok {
		if f, ok := toFloat(v); ok {
			return Source{Kind: SourceTrafficLevelNumeric, Level: f}
		}
		if s, ok := v.(string); ok {
			return Source{Kind: SourceTrafficLevelLabel, Label: s}
		}
	}
	if cur, free, ok := findSpeedPair(props); ok {
		return Source{Kind: SourceSpeedPair, Current: cur, Free: free}
	}
	return Source{Kind: SourceNone}
}

// Severity converts the source to a normalized value in [0,1]. ok is false
// when the source cannot yield a severity (unknown label, zero free-flow
// speed, no source).
func (s Source) Severity() (float64, bool) {
	switch s.Kind {
	case SourceJamFactor:
		return clamp01(clamp(s.Jam, 0, 10) / 10.0), true
	case SourceTrafficLevelNumeric:
		v := s.Level
		switch {
		case v >= 0 && v <= 1:
			return v, true
		case v <= 5:
			return clamp01(v / 5.0), true
		default:
			return clamp01(v / 10.0), true
		}
	case SourceTrafficLevelLabel:
		v, ok := levelLabels[strings.ToLower(strings.TrimSpace(s.Label))]
		return v, ok
	case SourceSpeedPair:
		if s.Free <= 0 {
			return 0, false
		}
		return 1.0 - clamp01(s.Current/s.Free), true
	default:
		return 0, false
	}
}

func findJamFactor(props map[string]interface{}) (float64, bool) {
	for k, v := range props {
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		lk := strings.ToLower(k)
		if strings.Contains(lk, "jam") || lk == "jf" {
			return f, true
		}
	}
	return 0, false
}

func findSpeedPair(props map[string]interface{}) (cur, free float64, ok bool) {
	currentKeys := []string{"currentSpeed", "current_speed", "cs"}
	freeKeys := []string{"freeFlowSpeed", "free_flow_speed", "ffs"}

	curOK := false
	for _, k := range currentKeys {
		if v, present := props[k]; present {
			if f, isNum := toFloat(v); isNum {
				cur, curOK = f, true
				break
			}
		}
	}
	if !curOK {
		return 0, 0, false
	}
	for _, k := range freeKeys {
		if v, present := props[k]; present {
			if f, isNum := toFloat(v); isNum {
				return cur, f, true
			}
		}
	}
	return 0, 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
