package enums

import "fmt"

// CategoryType separates objective venue features from reviewer impressions.
type CategoryType string

const (
	CategoryTypeStructural CategoryType = "structural"
	CategoryTypePerceptual CategoryType = "perceptual"
)

func (c CategoryType) String() string {
	return string(c)
}

func (c CategoryType) IsValid() bool {
	return c == CategoryTypeStructural || c == CategoryTypePerceptual
}

// ParseCategoryType converts raw input into a CategoryType.
func ParseCategoryType(value string) (CategoryType, error) {
	t := CategoryType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid category type %q", value)
	}
	return t, nil
}
