package dto

type OrderRequest struct {
	Order []int `json:"order" validate:"required,min=1"`
}

type SKURequest struct {
	SKU string `json:"sku" validate:"required"`
}

type GenerateAllResponse struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SettingsPayload is the wire form of the watermark configuration; colors
// travel as hex strings.
type SettingsPayload struct {
	Enabled         bool   `json:"enabled"`
	Type            string `json:"type" validate:"oneof=text image"`
	Position        string `json:"position" validate:"omitempty,oneof=top-left top-right bottom-left bottom-right center"`
	Opacity         int    `json:"opacity" validate:"min=0,max=100"`
	Padding         int    `json:"padding" validate:"min=0"`
	Quality         int    `json:"quality" validate:"min=0,max=100"`
	Text            string `json:"text"`
	FontSize        int    `json:"font_size" validate:"min=1"`
	FontColor       string `json:"font_color"`
	BackgroundColor string `json:"background_color"`
	ImagePath       string `json:"image_path"`
	ImageScale      int    `json:"image_scale" validate:"min=1,max=100"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
