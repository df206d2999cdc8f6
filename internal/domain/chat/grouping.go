package chat

import "time"

type Entry struct {
	Message    Message
	ShowSender bool
}

type DateGroup struct {
	Date    string
	Entries []Entry
}

// GroupByDate splits an ascending message list into runs that share a calendar
// day in loc. Within a run the sender label is shown on the first message of
// every contiguous block from one sender.
func GroupByDate(msgs []Message, loc *time.Location) []DateGroup {
	if loc == nil {
		loc = time.UTC
	}
	groups := make([]DateGroup, 0)
	var (
		current    *DateGroup
		lastSender string
	)
	for _, msg := range msgs {
		date := msg.CreatedAt.In(loc).Format(time.DateOnly)
		if current == nil || current.Date != date {
			groups = append(groups, DateGroup{Date: date})
			current = &groups[len(groups)-1]
			lastSender = ""
		}
		current.Entries = append(current.Entries, Entry{
			Message:    msg,
			ShowSender: msg.SenderID != lastSender,
		})
		lastSender = msg.SenderID
	}
	return groups
}
