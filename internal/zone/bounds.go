package zone

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BoundsMapper classifies by face position against configured rectangular
// zone bounds. The first zone (in configuration order) containing the face
// center wins; anything else is "Unknown".
type BoundsMapper struct {
	zones []Zone
}

type boundsConfig struct {
	Zones []Zone `json:"zones"`
}

// LoadBoundsMapper reads a JSON zone layout. The file must have a .json
// extension; zones without bounds are kept for display purposes but never
// matched.
func LoadBoundsMapper(path string) (*BoundsMapper, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("zone config must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone config: %w", err)
	}

	var cfg boundsConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse zone config: %w", err)
	}
	if len(cfg.Zones) == 0 {
		return nil, fmt.Errorf("zone config %s defines no zones", cleanPath)
	}

	return &BoundsMapper{zones: cfg.Zones}, nil
}

// NewBoundsMapper builds a mapper directly from zone definitions.
func NewBoundsMapper(zones []Zone) *BoundsMapper {
	return &BoundsMapper{zones: append([]Zone(nil), zones...)}
}

// MapToZone returns the first configured zone whose bounds contain the face
// center, or "Unknown".
func (m *BoundsMapper) MapToZone(ctx GazeContext) string {
	for _, z := range m.zones {
		if z.Bounds == nil {
			continue
		}
		b := *z.Bounds
		if ctx.CenterX >= b.X && ctx.CenterX <= b.X+b.W &&
			ctx.CenterY >= b.Y && ctx.CenterY <= b.Y+b.H {
			return z.Name
		}
	}
	return ZoneUnknown
}

// Zones returns a copy of the configured zones.
func (m *BoundsMapper) Zones() []Zone {
	return append([]Zone(nil), m.zones...)
}
