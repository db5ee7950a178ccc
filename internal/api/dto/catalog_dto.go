package dto

// StatusResponse reference row.
type StatusResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	ColorHex string `json:"color_hex"`
}

// PriorityResponse reference row.
type PriorityResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	ColorHex string `json:"color_hex"`
}

// CategoryResponse reference row.
type CategoryResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// DepartmentResponse reference row.
type DepartmentResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortCode string `json:"short_code"`
}
