package types

// Location is a plain WGS84 coordinate, stored as two columns.
type Location struct {
	Lat float64 `json:"lat" gorm:"column:lat"`
	Lng float64 `json:"lng" gorm:"column:lng"`
}
