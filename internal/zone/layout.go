package zone

import "fmt"

// LayoutMapper implements the rule-based classifier for the default retail
// floor layout: the person's horizontal position in the frame is banded into
// left/right, the yaw angle into left/forward/right, and the pair indexes a
// rule table. Ambiguous cells split on the vertical face position.
type LayoutMapper struct {
	zones []Zone

	// Position band boundary as a fraction of frame width.
	leftBoundary float64
	// Yaw angles within [forwardMin, forwardMax] degrees count as forward.
	forwardMin float64
	forwardMax float64
	// Vertical split (fraction of frame height) for ambiguous cells.
	upperSplit float64
}

// Default layout zone names.
const (
	ZonePastryShelves = "Left_sandwich_and_croissant_shelves"
	ZoneCakeDisplay   = "Cake_Display"
	ZoneCookieShelves = "Cookie_Shelves"
	ZoneBreadShelves  = "Right_sandwich_and_bread_shelves"
	ZoneEntrance      = "Entrance"
	ZoneUnknown       = "Unknown"
)

// NewLayoutMapper returns the mapper for the default store layout.
func NewLayoutMapper() *LayoutMapper {
	return &LayoutMapper{
		zones: []Zone{
			{Name: ZonePastryShelves, DisplayName: "PASTRY/SANDWICH", Color: [3]uint8{255, 150, 100}, Category: "food_display"},
			{Name: ZoneCakeDisplay, DisplayName: "CAKES", Color: [3]uint8{100, 255, 100}, Category: "food_display"},
			{Name: ZoneCookieShelves, DisplayName: "COOKIES", Color: [3]uint8{100, 150, 255}, Category: "food_display"},
			{Name: ZoneBreadShelves, DisplayName: "BREAD", Color: [3]uint8{255, 100, 255}, Category: "food_display"},
			{Name: ZoneEntrance, DisplayName: "ENTRANCE", Color: [3]uint8{200, 200, 200}, Category: "navigation"},
			{Name: ZoneUnknown, DisplayName: "UNKNOWN", Color: [3]uint8{128, 128, 128}, Category: "other"},
		},
		leftBoundary: 0.33,
		forwardMin:   -25,
		forwardMax:   25,
		upperSplit:   0.45,
	}
}

// MapToZone resolves the context to a zone name. Unmapped combinations fall
// back to "Unknown_<position>_<direction>".
func (m *LayoutMapper) MapToZone(ctx GazeContext) string {
	position := m.position(ctx)
	direction := m.direction(ctx)

	switch {
	case position == "left" && direction == "forward":
		return ZonePastryShelves
	case position == "left" && direction == "right":
		return ZoneCakeDisplay
	case position == "left" && direction == "left":
		return ZoneEntrance
	case position == "right" && direction == "left":
		if m.isUpper(ctx) {
			return ZoneCakeDisplay
		}
		return ZonePastryShelves
	case position == "right" && direction == "forward":
		if m.isUpper(ctx) {
			return ZoneCookieShelves
		}
		return ZoneBreadShelves
	case position == "right" && direction == "right":
		return ZoneBreadShelves
	}
	return fmt.Sprintf("Unknown_%s_%s", position, direction)
}

func (m *LayoutMapper) position(ctx GazeContext) string {
	if ctx.FrameWidth > 0 && ctx.CenterX/ctx.FrameWidth < m.leftBoundary {
		return "left"
	}
	return "right"
}

func (m *LayoutMapper) direction(ctx GazeContext) string {
	switch {
	case ctx.Yaw >= m.forwardMin && ctx.Yaw <= m.forwardMax:
		return "forward"
	case ctx.Yaw > m.forwardMax:
		return "right"
	default:
		return "left"
	}
}

func (m *LayoutMapper) isUpper(ctx GazeContext) bool {
	return ctx.FrameHeight > 0 && ctx.CenterY < ctx.FrameHeight*m.upperSplit
}

// Zones returns a copy of the layout's zone definitions.
func (m *LayoutMapper) Zones() []Zone {
	return append([]Zone(nil), m.zones...)
}

// ZoneByName returns the zone definition with the given name, or nil.
func (m *LayoutMapper) ZoneByName(name string) *Zone {
	for i := range m.zones {
		if m.zones[i].Name == name {
			return &m.zones[i]
		}
	}
	return nil
}
