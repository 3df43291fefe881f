package api

// ViewerResponse describes the authenticated viewer.
type ViewerResponse struct {
	Id   int64  `json:"id"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}
