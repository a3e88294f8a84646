package errors

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Size limits for the drawing surface, in pixels.
const (
	MinSurfaceSize = 50
	MaxSurfaceSize = 20000
)

// ParseSize parses a drawing-surface size of the form "<width>px,<height>px".
// The "px" suffix is optional and surrounding whitespace is ignored.
//
// The validation rules are:
//   - Exactly two comma-separated parts
//   - Each part is a positive integer, optionally followed by "px"
//   - Each dimension lies within [MinSurfaceSize, MaxSurfaceSize]
func ParseSize(size string) (width, height int, err error) {
	parts := strings.Split(size, ",")
	if len(parts) != 2 {
		return 0, 0, New(ErrCodeInvalidSize, "size must be \"<width>px,<height>px\", got %q", size)
	}
	dims := make([]int, 2)
	for i, p := range parts {
		p = strings.TrimSuffix(strings.TrimSpace(p), "px")
		n, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil {
			return 0, 0, Wrap(ErrCodeInvalidSize, convErr, "invalid dimension %q in size %q", parts[i], size)
		}
		if n < MinSurfaceSize || n > MaxSurfaceSize {
			return 0, 0, New(ErrCodeInvalidSize, "dimension %d out of range [%d, %d]", n, MinSurfaceSize, MaxSurfaceSize)
		}
		dims[i] = n
	}
	return dims[0], dims[1], nil
}

// ValidateSize validates a drawing-surface size string.
func ValidateSize(size string) error {
	_, _, err := ParseSize(size)
	return err
}

// ValidatePropertyKey validates a property key named in an exclusion list or a
// configuration entry. Keys are matched verbatim, so only emptiness, length
// and control characters are rejected.
func ValidatePropertyKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "property key cannot be empty")
	}
	if len(key) > 256 {
		return New(ErrCodeInvalidKey, "property key too long (max 256 characters)")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "property key contains invalid control characters")
		}
	}
	return nil
}

var (
	hexColorRegex  = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	funcColorRegex = regexp.MustCompile(`^(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\)$`)
	namedColor     = regexp.MustCompile(`^[a-zA-Z]{3,30}$`)
)

// ValidateColor validates a CSS color value used in configuration overrides.
// Accepted forms are hex (#rgb, #rrggbb, with optional alpha), rgb()/hsl()
// functions and bare color names. Anything that could break out of an SVG
// attribute is rejected.
func ValidateColor(color string) error {
	if color == "" {
		return New(ErrCodeInvalidColor, "color cannot be empty")
	}
	if hexColorRegex.MatchString(color) || funcColorRegex.MatchString(color) || namedColor.MatchString(color) {
		return nil
	}
	return New(ErrCodeInvalidColor, "invalid color: %q", color)
}

var datasetIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

// ValidateDatasetID validates a stored dataset identifier.
func ValidateDatasetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidDataset, "dataset id cannot be empty")
	}
	if !datasetIDRegex.MatchString(id) {
		return New(ErrCodeInvalidDataset, "invalid dataset id: %q", id)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
