package dto

type Filter struct {
	Limit  int    `query:"limit"`
	Page   int    `query:"page"`
	Status string `query:"status"`
}

type PaginationMetadata struct {
	TotalCount uint64 `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

type Pagination struct {
	Metadata PaginationMetadata `json:"_metadata"`
	Records  interface{}        `json:"records"`
}
