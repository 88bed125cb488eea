package core

import (
	"context"
	"sort"
)

const (
	// timelineLimit bounds each sub-scan and the merged result.
	timelineLimit = 100
	// autocompleteLimit caps name suggestions per request.
	autocompleteLimit = 10
	// autocompleteMinLen is the shortest motif worth a storage round trip.
	autocompleteMinLen = 3
)

// FeedService computes timelines from the follow graph and serves name
// autocompletion.
type FeedService struct {
	messages MessageRepository
	accounts AccountRepository
}

func NewFeedService(messages MessageRepository, accounts AccountRepository) *FeedService {
	return &FeedService{messages: messages, accounts: accounts}
}

// Timeline merges two independently bounded scans: the newest messages from
// followed authors and the user's own. Bounding each half keeps the own-
// messages cost independent of follow fan-out. The union is not deduplicated,
// so following yourself yields duplicates, and is re-sorted newest first and
// truncated to the overall limit.
func (s *FeedService) Timeline(ctx context.Context, authorID int64) ([]TimeMessage, error) {
	followed, err := s.messages.RecentFromFollowed(ctx, authorID, timelineLimit)
	if err != nil {
		return nil, err
	}
	own, err := s.messages.RecentByAuthor(ctx, authorID, timelineLimit)
	if err != nil {
		return nil, err
	}

	merged := make([]TimeMessage, 0, len(followed)+len(own))
	merged = append(merged, followed...)
	merged = append(merged, own...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time.After(merged[j].Time)
	})
	if len(merged) > timelineLimit {
		merged = merged[:timelineLimit]
	}
	return merged, nil
}

// Autocomplete returns authors whose name starts with motif. Motifs shorter
// than three characters return empty without querying storage.
func (s *FeedService) Autocomplete(ctx context.Context, motif string) ([]Author, error) {
	if len(motif) < autocompleteMinLen {
		return []Author{}, nil
	}
	return s.accounts.Autocomplete(ctx, motif, autocompleteLimit)
}
