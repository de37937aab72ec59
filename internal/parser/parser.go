// Package parser turns command arguments into layout settings changes.
package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fastwaymarks/overlay/internal/config"
	"github.com/fastwaymarks/overlay/internal/geo"
	"github.com/fastwaymarks/overlay/internal/geometry"
	"github.com/fastwaymarks/overlay/internal/util"
)

// MaxRadius is the largest radius the settings accept.
const MaxRadius = 50.0

var (
	// ErrUnknownSetting is returned for a setting name no field matches.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrMissingValue is returned when a setting is given without a value.
	ErrMissingValue = errors.New("missing value")
)

// ParseFloat parses a finite float, tolerating surrounding quotes.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(util.CleanArg(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parsing %q: not a finite number", s)
	}
	return v, nil
}

// ParseUint32 parses a string that may be an integer ("32") or a whole float
// ("32.00") into uint32.
func ParseUint32(s string) (uint32, error) {
	s = util.CleanArg(s)
	if v, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0, fmt.Errorf("ParseUint32: %q is not a valid uint32", s)
	}
	return uint32(f), nil
}

// ParseBool accepts the usual strconv forms plus on/off and yes/no.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(util.CleanArg(s)) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	return strconv.ParseBool(util.CleanArg(s))
}

// ClampRadius limits a radius to [0, MaxRadius].
func ClampRadius(r float64) float64 {
	return math.Max(0, math.Min(MaxRadius, r))
}

// NormalizeRotation wraps a rotation offset in degrees into [0, 360).
func NormalizeRotation(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -0 and values a hair below 0 that round back up to 360
	if deg == 0 || deg >= 360 {
		return 0
	}
	return deg
}

type setter func(s *config.Settings, value string) error

func floatSetter(field func(*config.Settings) *float64, clamp func(float64) float64) setter {
	return func(s *config.Settings, value string) error {
		v, err := ParseFloat(value)
		if err != nil {
			return err
		}
		if clamp != nil {
			v = clamp(v)
		}
		*field(s) = v
		return nil
	}
}

func boolSetter(field func(*config.Settings) *bool) setter {
	return func(s *config.Settings, value string) error {
		v, err := ParseBool(value)
		if err != nil {
			return err
		}
		*field(s) = v
		return nil
	}
}

var setters = map[string]setter{
	"shape": func(s *config.Settings, value string) error {
		shape, err := geometry.ParseShape(util.CleanArg(value))
		if err != nil {
			return err
		}
		s.Shape = int(shape)
		return nil
	},
	"order": func(s *config.Settings, value string) error {
		order, err := geometry.ParseOrder(util.CleanArg(value))
		if err != nil {
			return err
		}
		s.Order = int(order)
		return nil
	},
	"center": func(s *config.Settings, value string) error {
		p, err := geo.Position2DFromString(util.CleanArg(value))
		if err != nil {
			return err
		}
		s.WaymarksCenterX, s.WaymarksCenterZ = p.X, p.Y
		return nil
	},
	"centerx":  floatSetter(func(s *config.Settings) *float64 { return &s.WaymarksCenterX }, nil),
	"centery":  floatSetter(func(s *config.Settings) *float64 { return &s.WaymarksCenterY }, nil),
	"centerz":  floatSetter(func(s *config.Settings) *float64 { return &s.WaymarksCenterZ }, nil),
	"radius":   floatSetter(func(s *config.Settings) *float64 { return &s.WaymarksRadius }, ClampRadius),
	"radiusb":  floatSetter(func(s *config.Settings) *float64 { return &s.WaymarksRadiusB }, ClampRadius),
	"rotation": floatSetter(func(s *config.Settings) *float64 { return &s.WaymarksRotationOffset }, NormalizeRotation),

	"autocenter":     boolSetter(func(s *config.Settings) *bool { return &s.AutoCenterOnLoad }),
	"displayy":       boolSetter(func(s *config.Settings) *bool { return &s.DisplayWaymarkY }),
	"centeronplayer": boolSetter(func(s *config.Settings) *bool { return &s.CenterOnPlayer }),
}

// aliases map the persisted key names onto the short names above.
var aliases = map[string]string{
	"waymarkscenterx":        "centerx",
	"waymarkscentery":        "centery",
	"waymarkscenterz":        "centerz",
	"waymarksradius":         "radius",
	"waymarksradiusb":        "radiusb",
	"waymarksrotationoffset": "rotation",
	"rotationoffset":         "rotation",
	"autocenteronload":       "autocenter",
	"displaywaymarky":        "displayy",
}

// SettingNames lists the short setting names ApplySetting understands.
func SettingNames() []string {
	return []string{
		"shape", "order", "center", "centerx", "centery", "centerz",
		"radius", "radiusb", "rotation", "autocenter", "displayy", "centeronplayer",
	}
}

// ApplySetting parses value and stores it in the named field of s. Names are
// matched case-insensitively; dashes and underscores are ignored. On error s
// is left unchanged.
func ApplySetting(s *config.Settings, key, value string) error {
	name := util.NormalizeKey(key)
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", name, ErrMissingValue)
	}
	next := *s
	if err := set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*s = next
	return nil
}

// ApplyArgs applies "key value" pairs taken from a command line, e.g.
// ["radius", "12", "shape", "star"].
func ApplyArgs(s *config.Settings, args []string) error {
	if len(args)%2 != 0 {
		return fmt.Errorf("%s: %w", args[len(args)-1], ErrMissingValue)
	}
	next := *s
	for i := 0; i < len(args); i += 2 {
		if err := ApplySetting(&next, args[i], args[i+1]); err != nil {
			return err
		}
	}
	*s = next
	return nil
}
