// Package view derives read-only projections for the UI from the topic
// store and conversation cache. Nothing here mutates state.
package view

import (
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/convcache"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/topicstore"
)

// Source is the read surface the projections consume. *sync.Engine
// satisfies it.
type Source interface {
	Topics() *topicstore.Store
	Cache() *convcache.Cache
	ActiveTopic() string
	Topic(topicID string) (chat.Topic, bool)
}

// TopicInfo is one sidebar row.
type TopicInfo struct {
	chat.Topic
	MessageCount int
	Active       bool
}

// TopicList returns the sidebar rows in most-recently-used order.
// Topics without any cached message are omitted, as are topics the
// server marked invisible.
func TopicList(s Source) []TopicInfo {
	active := s.ActiveTopic()
	cache := s.Cache()

	var rows []TopicInfo
	for _, id := range s.Topics().List() {
		count := cache.Len(id)
		if count == 0 {
			continue
		}
		topic, ok := s.Topic(id)
		if !ok {
			topic = chat.Topic{ID: id, Category: chat.DefaultCategory, Visible: true}
		}
		if !topic.Visible {
			continue
		}
		rows = append(rows, TopicInfo{
			Topic:        topic,
			MessageCount: count,
			Active:       id == active,
		})
	}
	return rows
}

// Conversation returns the active topic's message sequence, empty when
// nothing is selected.
func Conversation(s Source) []chat.Message {
	active := s.ActiveTopic()
	if active == "" {
		return nil
	}
	return s.Cache().Messages(active)
}

// Categories groups the visible topic rows by category, preserving the
// most-recently-used order inside each group. The returned slice is
// ordered by first appearance of each category.
func Categories(s Source) []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)
	for _, row := range TopicList(s) {
		i, ok := index[row.Category]
		if !ok {
			i = len(groups)
			index[row.Category] = i
			groups = append(groups, CategoryGroup{Name: row.Category})
		}
		groups[i].Topics = append(groups[i].Topics, row)
	}
	return groups
}

// CategoryGroup is a dashboard section.
type CategoryGroup struct {
	Name   string
	Topics []TopicInfo
}
