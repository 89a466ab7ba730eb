package models

// PageResponse is one page of search results plus the page count the server
// reported alongside it.
type PageResponse struct {
	Page       int
	TotalPages int
	Records    []Record
}

// SearchMetadata is the result of the search-begin call.
type SearchMetadata struct {
	TotalRecords int
	TotalPages   int
}
