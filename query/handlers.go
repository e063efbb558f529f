package query

import (
	"context"

	"github.com/goliatone/go-contact-relay/core"
)

type ListActivityQuery struct {
	reader core.ActivityReader
}

func NewListActivityQuery(reader core.ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) ([]core.ActivityEntry, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: activity reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	entries, err := q.reader.List(ctx, msg.Limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []core.ActivityEntry{}
	}
	return entries, nil
}
