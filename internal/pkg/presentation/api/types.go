package api

import (
	"encoding/json"
	"fmt"

	"github.com/diwise/hydroponic-mgmt/pkg/types"
)

type meta struct {
	TotalRecords uint64  `json:"totalRecords"`
	Offset       *uint64 `json:"offset,omitempty"`
	Limit        *uint64 `json:"limit,omitempty"`
	Count        uint64  `json:"count"`
}

type links struct {
	Self  *string `json:"self,omitempty"`
	First *string `json:"first,omitempty"`
	Prev  *string `json:"prev,omitempty"`
	Next  *string `json:"next,omitempty"`
	Last  *string `json:"last,omitempty"`
}

type ApiResponse struct {
	Meta  *meta  `json:"meta,omitempty"`
	Data  any    `json:"data"`
	Links *links `json:"links,omitempty"`
}

func (r ApiResponse) Byte() []byte {
	b, _ := json.Marshal(r)
	return b
}

// newCollectionResponse wraps one page of a collection in the response
// envelope. Presence of the prev and next links encodes whether earlier
// and later pages exist.
func newCollectionResponse[T any](basePath string, collection types.Collection[T]) ApiResponse {
	pageLink := func(page uint64) *string {
		s := fmt.Sprintf("%s?page=%d&page_size=%d", basePath, page, collection.Limit)
		return &s
	}

	page := uint64(1)
	lastPage := uint64(1)

	if collection.Limit > 0 {
		page = collection.Offset/collection.Limit + 1
		lastPage = (collection.TotalCount + collection.Limit - 1) / collection.Limit
		if lastPage == 0 {
			lastPage = 1
		}
	}

	l := &links{
		Self:  pageLink(page),
		First: pageLink(1),
		Last:  pageLink(lastPage),
	}

	if page > 1 {
		l.Prev = pageLink(page - 1)
	}

	if page < lastPage {
		l.Next = pageLink(page + 1)
	}

	return ApiResponse{
		Meta: &meta{
			TotalRecords: collection.TotalCount,
			Offset:       &collection.Offset,
			Limit:        &collection.Limit,
			Count:        collection.Count,
		},
		Data:  collection.Data,
		Links: l,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
