package entity

// Setting describes one key held by the store.
type Setting struct {
	Key      string `json:"key"`
	Category string `json:"category"`
	Size     int64  `json:"size"`
}

// NewSetting creates a Setting for key.
func NewSetting(key, category string, size int64) *Setting {
	return &Setting{Key: key, Category: category, Size: size}
}
