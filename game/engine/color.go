package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultColorThreshold is the RGB distance under which two colors are "close"
const DefaultColorThreshold = 0.2

const whiteColor = 0xFFFFFF

// CanonicalColors maps the program color names to their representative hex values
var CanonicalColors = map[string]string{
	"red":     "#EF4444",
	"green":   "#22C55E",
	"blue":    "#3B82F6",
	"yellow":  "#EAB308",
	"orange":  "#F97316",
	"purple":  "#A855F7",
	"cyan":    "#06B6D4",
	"magenta": "#EC4899",
	"black":   "#000000",
	"white":   "#FFFFFF",
}

// canonicalOrder is the order in which a sensed hex is matched against names
var canonicalOrder = []string{"red", "blue", "green", "yellow", "orange", "purple", "cyan", "magenta", "black", "white"}

// ParseHexColor converts "#RRGGBB", "RRGGBB" or "0xRRGGBB" to an integer
func ParseHexColor(s string) (uint32, error) {
	h := strings.TrimSpace(strings.ToLower(s))
	h = strings.TrimPrefix(h, "#")
	h = strings.TrimPrefix(h, "0x")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}

// FormatHexColor renders a 24-bit color as "#RRGGBB"
func FormatHexColor(c uint32) string {
	return fmt.Sprintf("#%06X", c&0xFFFFFF)
}

// resolveColor maps a canonical name or hex string to RGB in [0,1]. The
// components are the hex bytes over 255, with no sRGB to linear decoding.
func resolveColor(s string) (r, g, b float64, ok bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if hex, found := CanonicalColors[key]; found {
		key = hex
	}
	v, err := ParseHexColor(key)
	if err != nil {
		return 0, 0, 0, false
	}
	return float64((v>>16)&0xFF) / 255, float64((v>>8)&0xFF) / 255, float64(v&0xFF) / 255, true
}

// IsColorClose reports whether two colors (names or hex) are within threshold in RGB space
func IsColorClose(a, b string, threshold float64) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.EqualFold(a, b) {
		return true
	}
	r1, g1, b1, ok := resolveColor(a)
	if !ok {
		return false
	}
	r2, g2, b2, ok := resolveColor(b)
	if !ok {
		return false
	}
	dr, dg, db := r1-r2, g1-g2, b1-b2
	return math.Sqrt(dr*dr+dg*dg+db*db) < threshold
}

// ColorName returns the first canonical name close to hex, or hex itself
func ColorName(hex string) string {
	for _, name := range canonicalOrder {
		if IsColorClose(hex, CanonicalColors[name], DefaultColorThreshold) {
			return name
		}
	}
	return hex
}

// zoneContains tests whether a world point lies on a zone's footprint
func zoneContains(zone Zone, px, pz float64) bool {
	lx, lz := toLocal(px, pz, zone.X, zone.Z, zone.Rotation)
	xTol := zone.Width/2 + ZoneTolerance
	zTol := zone.Length/2 + ZoneTolerance

	if zone.Type == Ramp {
		return math.Abs(lx) <= xTol && math.Abs(lz) <= zTol
	}

	switch zone.Shape {
	case Corner:
		arm := zone.Width/2 + ZoneTolerance
		horizontal := math.Abs(lx) <= xTol && lz >= -ZoneTolerance && lz <= arm
		vertical := math.Abs(lz) <= zTol && lx >= -ZoneTolerance && lx <= arm
		return horizontal || vertical
	case Curved:
		radius := zone.Length / 2
		if radius <= 0 {
			return false
		}
		sx := lx + radius
		dist := math.Hypot(sx, lz)
		angle := math.Atan2(lz, sx)
		return math.Abs(dist-radius) <= zone.Width/2+ZoneTolerance &&
			angle >= -ZoneTolerance && angle <= math.Pi/2+ZoneTolerance
	default:
		return math.Abs(lx) <= xTol && math.Abs(lz) <= zTol
	}
}

// ClassifyColor resolves the color under a sensed point.
// Generic zones win in registration order; scenario markers apply only when none matched.
func ClassifyColor(env *Environment, px, pz float64) (name, hex string) {
	if env != nil {
		for _, zone := range env.Zones {
			if zoneContains(zone, px, pz) {
				hex = FormatHexColor(zone.Color)
				return ColorName(hex), hex
			}
		}
		if marker, ok := scenarioMarkers[env.ScenarioID]; ok {
			if name, color, hit := marker(px, pz); hit {
				return name, FormatHexColor(color)
			}
		}
	}
	return "white", FormatHexColor(whiteColor)
}
