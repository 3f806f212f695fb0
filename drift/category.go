package drift

import "fmt"

// OutlierType is the first digit of a category code
type OutlierType uint8

const (
	TypeInlier   OutlierType = 0
	TypeDistance OutlierType = 1
	TypeBearing  OutlierType = 2
	TypeBoth     OutlierType = 3
)

// combineTypes maps independent distance and bearing flags to one type digit
func combineTypes(distance, bearing bool) OutlierType {
	switch {
	case distance && bearing:
		return TypeBoth
	case distance:
		return TypeDistance
	case bearing:
		return TypeBearing
	default:
		return TypeInlier
	}
}

// Category is the two-character outlier code {type}{confidence}.
//
//	00  inlier, too few neighbors
//	01  inlier, min_neighbors met
//	10  distance outlier, too few neighbors
//	11  distance outlier, min_neighbors met
//	20  bearing outlier, too few neighbors
//	21  bearing outlier, min_neighbors met
//	30  distance and bearing outlier, too few neighbors
//	31  distance and bearing outlier, min_neighbors met
//
// The zero value is an unset category.
type Category string

const (
	CategoryUnset Category = ""
	Category00    Category = "00"
	Category01    Category = "01"
	Category10    Category = "10"
	Category11    Category = "11"
	Category20    Category = "20"
	Category21    Category = "21"
	Category30    Category = "30"
	Category31    Category = "31"
)

// AllCategories lists every valid code in ascending order
var AllCategories = []Category{
	Category00, Category01, Category10, Category11,
	Category20, Category21, Category30, Category31,
}

// NewCategory builds a category from its type and confidence
func NewCategory(t OutlierType, confident bool) Category {
	c := byte('0')
	if confident {
		c = '1'
	}
	return Category([]byte{'0' + byte(t), c})
}

// ParseCategory validates a two-character code
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return CategoryUnset, fmt.Errorf("invalid outlier category %q", s)
	}
	return c, nil
}

// Valid reports whether c is one of the eight defined codes
func (c Category) Valid() bool {
	if len(c) != 2 {
		return false
	}
	return c[0] >= '0' && c[0] <= '3' && (c[1] == '0' || c[1] == '1')
}

// Type returns the outlier type digit. Unset categories report TypeInlier.
func (c Category) Type() OutlierType {
	if !c.Valid() {
		return TypeInlier
	}
	return OutlierType(c[0] - '0')
}

// Confident reports whether the neighborhood met min_neighbors
func (c Category) Confident() bool {
	return c.Valid() && c[1] == '1'
}

// IsInlier reports a set category whose type digit is 0, regardless of confidence
func (c Category) IsInlier() bool {
	return c.Valid() && c[0] == '0'
}

func (c Category) String() string {
	return string(c)
}
