package models

// MCollectionStats is returned by the stats operation.
type MCollectionStats struct {
	Success        bool   `json:"success"`
	CollectionName string `json:"collection_name"`
	DisplayName    string `json:"display_name,omitempty"`
	TotalCount     int64  `json:"total_count"`
	LastUpdate     string `json:"last_update,omitempty"`
	Error          string `json:"error,omitempty"`
}

// MClearResult is returned by the clear operation.
type MClearResult struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deleted_count"`
	Message      string `json:"message"`
}

// MPage is one page of the read side.
type MPage struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message,omitempty"`
	Data       []MRecord `json:"data"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int64     `json:"total_pages"`
}
