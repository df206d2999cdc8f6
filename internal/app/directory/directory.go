package directory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"campuschat/internal/app/live"
	"campuschat/internal/app/policies"
	"campuschat/internal/domain/chat"
	domainlistings "campuschat/internal/domain/listings"
)

const previewWorkers = 8

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}

// Service is the conversation directory for one user at a time: annotated
// summaries, latest-message previews and tab/search filtering.
type Service struct {
	Conversations policies.ConversationRepository
	Messages      policies.MessageLog
	// Listings refreshes listing cards. Without it the creation snapshot is used.
	Listings        domainlistings.Reader
	Signals         policies.ChangeSignals
	PollInterval    time.Duration
	Logger          *slog.Logger
	PreviewFailures Counter
	ActiveStreams   live.Gauge
}

// List returns userID's conversations, most recent activity first. A preview
// that cannot be resolved degrades to chat.NoMessagesPreview for that entry only.
func (s *Service) List(ctx context.Context, userID string, f chat.Filter) ([]chat.Summary, error) {
	userID = strings.TrimSpace(userID)
	convs, err := s.Conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]chat.Summary, 0, len(convs))
	for _, conv := range convs {
		summary, ok := chat.Summarize(conv, userID)
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}

	s.resolve(ctx, summaries)
	chat.SortSummaries(summaries)
	return chat.ApplyFilter(summaries, f), nil
}

// Watch streams List results, reloading when userID's topic is signalled.
func (s *Service) Watch(ctx context.Context, userID string, f chat.Filter) (*live.Stream[[]chat.Summary], error) {
	cfg := live.Config{
		Signals:  s.Signals,
		Topic:    policies.UserTopic(strings.TrimSpace(userID)),
		Interval: s.PollInterval,
		Logger:   s.Logger,
		Active:   s.ActiveStreams,
	}
	return live.Watch(ctx, cfg, func(ctx context.Context) ([]chat.Summary, error) {
		return s.List(ctx, userID, f)
	}, SameSummaries)
}

func (s *Service) resolve(ctx context.Context, summaries []chat.Summary) {
	sem := make(chan struct{}, previewWorkers)
	var wg sync.WaitGroup
	for i := range summaries {
		wg.Add(1)
		sem <- struct{}{}
		go func(item *chat.Summary) {
			defer wg.Done()
			defer func() { <-sem }()
			item.Preview = s.preview(ctx, item.Conversation.ID)
			item.Listing = s.listingCard(ctx, item.Conversation)
		}(&summaries[i])
	}
	wg.Wait()
}

func (s *Service) preview(ctx context.Context, conversationID string) string {
	if s.Messages == nil {
		return chat.NoMessagesPreview
	}
	latest, err := s.Messages.Latest(ctx, conversationID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("resolve conversation preview failed", "conversation_id", conversationID, "error", err)
		}
		if s.PreviewFailures != nil {
			s.PreviewFailures.Inc()
		}
		return chat.NoMessagesPreview
	}
	return chat.PreviewOf(latest)
}

// listingCard keeps the conversation's kind; only the card fields follow the listing.
func (s *Service) listingCard(ctx context.Context, conv chat.Conversation) chat.ListingSnapshot {
	snapshot := conv.Listing
	if snapshot.ID == "" {
		snapshot.ID = conv.ListingID
	}
	snapshot.Kind = conv.Kind
	if s.Listings == nil {
		return snapshot
	}
	listing, err := s.Listings.ByID(ctx, domainlistings.ListingID(conv.ListingID))
	if err != nil {
		if !errors.Is(err, domainlistings.ErrNotFound) && s.Logger != nil {
			s.Logger.Debug("refresh listing card failed", "listing_id", conv.ListingID, "error", err)
		}
		return snapshot
	}
	fresh := listing.Snapshot()
	fresh.Kind = conv.Kind
	return fresh
}

// SameSummaries compares the fields a directory view renders.
func SameSummaries(a, b []chat.Summary) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Conversation.ID != y.Conversation.ID ||
			x.UnreadCount != y.UnreadCount ||
			x.Preview != y.Preview ||
			!x.Conversation.Activity().Equal(y.Conversation.Activity()) ||
			x.Listing != y.Listing ||
			x.Other != y.Other {
			return false
		}
	}
	return true
}
