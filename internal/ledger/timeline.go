package ledger

import (
	"context"
	"time"
)

// TimelineFilter narrows the confirmation log.
type TimelineFilter struct {
	OrderID  int64
	ItemID   int64
	Kind     EntryKind
	ActorID  int64
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// ListParams is the raw window handed to the repository.
type ListParams struct {
	OrderID    int64
	ItemID     int64
	Kind       EntryKind
	ActorID    int64
	From       time.Time
	To         time.Time
	LimitRows  int
	OffsetRows int
}

// PagingInfo describes the timeline page that was returned.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
}

// TimelineResult bundles entries with paging information.
type TimelineResult struct {
	Entries []Entry
	Paging  PagingInfo
}

// Timeline returns log entries newest first, with paging.
func (s *Service) Timeline(ctx context.Context, filter TimelineFilter) (TimelineResult, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	params := ListParams{
		OrderID:    filter.OrderID,
		ItemID:     filter.ItemID,
		Kind:       filter.Kind,
		ActorID:    filter.ActorID,
		From:       filter.From,
		To:         filter.To,
		LimitRows:  pageSize + 1,
		OffsetRows: (page - 1) * pageSize,
	}
	entries, err := s.repo.ListEntries(ctx, params)
	if err != nil {
		return TimelineResult{}, err
	}

	hasNext := len(entries) > pageSize
	if hasNext {
		entries = entries[:pageSize]
	}
	return TimelineResult{
		Entries: entries,
		Paging:  PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext},
	}, nil
}
