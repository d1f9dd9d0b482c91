package models

// SearchResult is one ranked document.
type SearchResult struct {
	Rank      int     `json:"rank"`
	URL       string  `json:"url"`
	DocID     string  `json:"doc_id"`
	Relevance float64 `json:"relevance"`
	// Missing is the number of active query terms absent from the document.
	Missing  int      `json:"missing"`
	Snippets []string `json:"snippets"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query string `json:"query"`
	// ActiveTerms are the query words found in the index, in query order.
	ActiveTerms []string        `json:"active_terms"`
	Results     []*SearchResult `json:"results"`
	Total       int             `json:"total"`
	QueryTime   int64           `json:"query_time_ms"`
}
