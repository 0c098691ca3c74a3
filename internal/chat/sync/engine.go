// Package sync coordinates every mutating user action against the
// remote store: optimistic local mutation, remote call, reconciliation.
// The engine is the sole writer of the topic store and conversation
// cache; a failed round trip rolls back only the entries that operation
// created, nothing more.
package sync

import (
	"context"
	"fmt"
	"strings"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/api"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/attach"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/convcache"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/topicstore"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/logging"
)

// RemoteStore is the slice of the persistence collaborator the engine
// needs. *api.Client satisfies it; tests plug in fakes.
type RemoteStore interface {
	FetchTopics(ctx context.Context) ([]api.TopicRecord, error)
	Ask(ctx context.Context, payload *attach.Payload) (*api.AskResult, error)
	DeleteTopic(ctx context.Context, topicID string) error
}

// Options configures an Engine.
type Options struct {
	Topics   *topicstore.Store
	Cache    *convcache.Cache
	Previews *attach.Previewer
	Remote   RemoteStore

	// StorageBase is prefixed to server-relative attachment paths.
	StorageBase string
	// Model is the optional model selector sent with every question.
	Model string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine is the state machine behind the chat screen.
type Engine struct {
	topics   *topicstore.Store
	cache    *convcache.Cache
	previews *attach.Previewer
	remote   RemoteStore

	storageBase string
	model       string
	now         func() time.Time
	log         zerolog.Logger

	// mu guards active and meta. The stores carry their own locks, so
	// the engine only needs to serialize its own bookkeeping; network
	// calls always run outside any lock.
	mu     stdsync.Mutex
	active string
	meta   map[string]chat.Topic
}

// SendInput describes one send action. At least one of Text and
// FilePath must be set for the action to do anything.
type SendInput struct {
	Text     string
	FilePath string
}

// SendOutcome reports a completed send round trip.
type SendOutcome struct {
	TopicID string
	Answer  string
	// AttachmentURL is the confirmed remote location of the uploaded
	// file, empty when no file was sent.
	AttachmentURL string
}

// NewEngine wires the engine to its collaborators.
func NewEngine(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	previews := opts.Previews
	if previews == nil {
		previews = attach.NewPreviewer()
	}
	return &Engine{
		topics:      opts.Topics,
		cache:       opts.Cache,
		previews:    previews,
		remote:      opts.Remote,
		storageBase: strings.TrimRight(opts.StorageBase, "/"),
		model:       opts.Model,
		now:         now,
		log:         logging.Component("sync"),
		meta:        make(map[string]chat.Topic),
	}
}

// Load performs the initial fetch: every topic with its full message
// history is unpacked into the conversation cache, then the topic store
// merges the remote id list with whatever order was persisted locally.
func (e *Engine) Load(ctx context.Context) error {
	records, err := e.remote.FetchTopics(ctx)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	ids := make([]string, 0, len(records))
	e.mu.Lock()
	for _, record := range records {
		topic := chat.Topic{ID: record.Subject, Category: record.Category, Visible: record.Visible}
		if topic.Category == "" {
			topic.Category = chat.DefaultCategory
		}
		e.meta[topic.ID] = topic
		e.cache.Seed(topic.ID, e.unpackEntries(record.Entries))
		ids = append(ids, topic.ID)
	}
	e.mu.Unlock()

	if err := e.topics.Merge(ids); err != nil {
		return fmt.Errorf("merge topic order: %w", err)
	}
	e.log.Info().Int("topics", len(ids)).Msg("initial load complete")
	return nil
}

// unpackEntries turns the server's interleaved question/answer entries
// into separate user and assistant messages in chronological order.
func (e *Engine) unpackEntries(entries []api.Entry) []chat.Message {
	now := e.now()
	messages := make([]chat.Message, 0, len(entries)*2)
	for _, entry := range entries {
		if entry.Question != "" || entry.File != "" {
			messages = append(messages, chat.Message{
				ServerID:      entry.ID,
				Role:          chat.RoleUser,
				Body:          entry.Question,
				AttachmentURL: e.resolveAttachment(entry.File),
				State:         chat.DeliveryConfirmed,
				CreatedAt:     now,
			})
		}
		if entry.Answer != "" {
			messages = append(messages, chat.Message{
				ServerID:  entry.ID,
				Role:      chat.RoleAssistant,
				Body:      entry.Answer,
				State:     chat.DeliveryConfirmed,
				CreatedAt: now,
			})
		}
	}
	return messages
}

// Send submits a question (text and/or attachment) to the active topic.
// Validation failures make the whole call a no-op with a nil outcome.
// On success the outcome carries the answer; on failure the returned
// error is the one to surface, the user's own message stays visible and
// only the placeholder is rolled back.
func (e *Engine) Send(ctx context.Context, input SendInput) (*SendOutcome, error) {
	text := strings.TrimSpace(input.Text)
	filePath := strings.TrimSpace(input.FilePath)

	e.mu.Lock()
	topicID := e.active
	e.mu.Unlock()

	// Empty input or no selected topic: silently ignore.
	if topicID == "" || (text == "" && filePath == "") {
		return nil, nil
	}

	op, err := e.beginSend(topicID, text, filePath)
	if err != nil {
		return nil, err
	}

	payload, err := attach.BuildPayload(filePath, topicID, text, e.model)
	if err != nil {
		e.rollbackSend(op)
		return nil, err
	}

	result, err := e.remote.Ask(ctx, payload)
	if err != nil {
		e.rollbackSend(op)
		return nil, err
	}

	return e.confirmSend(op, result), nil
}

// sendOp carries the optimistic-entry handles of one in-flight send, so
// concurrent sends never reconcile each other's entries.
type sendOp struct {
	topicID       string
	userHandle    convcache.Handle
	holderHandle  convcache.Handle
	userMessage   chat.Message
	previewHandle string
}

func (e *Engine) beginSend(topicID, text, filePath string) (*sendOp, error) {
	op := &sendOp{topicID: topicID}

	if filePath != "" {
		handle, err := e.previews.Preview(filePath)
		if err != nil {
			return nil, err
		}
		op.previewHandle = handle
	}

	now := e.now()
	op.userMessage = chat.Message{
		Role:          chat.RoleUser,
		Body:          text,
		PreviewHandle: op.previewHandle,
		State:         chat.DeliveryPending,
		CreatedAt:     now,
	}
	op.userHandle = e.cache.Append(topicID, op.userMessage)
	op.holderHandle = e.cache.Append(topicID, chat.Message{
		Role:      chat.RoleAssistant,
		Loading:   true,
		State:     chat.DeliveryPending,
		CreatedAt: now,
	})

	// Reordering reflects user intent, so it happens before the network
	// call resolves.
	if err := e.topics.Touch(topicID); err != nil {
		e.log.Warn().Err(err).Str("topic", topicID).Msg("persist topic order")
	}

	e.mu.Lock()
	if _, ok := e.meta[topicID]; !ok {
		e.meta[topicID] = chat.Topic{ID: topicID, Category: chat.DefaultCategory, Visible: true}
	}
	e.mu.Unlock()

	return op, nil
}

func (e *Engine) confirmSend(op *sendOp, result *api.AskResult) *SendOutcome {
	outcome := &SendOutcome{TopicID: op.topicID, Answer: result.Answer}

	confirmed := op.userMessage
	confirmed.State = chat.DeliveryConfirmed
	if op.previewHandle != "" {
		confirmed.PreviewHandle = ""
		confirmed.AttachmentURL = e.resolveAttachment(result.File)
		outcome.AttachmentURL = confirmed.AttachmentURL
		e.previews.Release(op.previewHandle)
	}
	e.cache.Replace(op.topicID, op.userHandle, confirmed)

	e.cache.Replace(op.topicID, op.holderHandle, chat.Message{
		Role:      chat.RoleAssistant,
		Body:      result.Answer,
		State:     chat.DeliveryConfirmed,
		CreatedAt: e.now(),
	})

	return outcome
}

// rollbackSend drops the assistant placeholder only. The user's message
// stays: it was already typed or attached, and removing it would be
// more confusing than keeping it. Its delivery state flips to failed so
// nothing implies the server recorded it.
func (e *Engine) rollbackSend(op *sendOp) {
	e.cache.Drop(op.topicID, op.holderHandle)

	failed := op.userMessage
	failed.State = chat.DeliveryFailed
	e.cache.Replace(op.topicID, op.userHandle, failed)
}

// CreateTopic registers a new local topic seeded with the greeting
// pair, moves it to the front and makes it active. The remote store
// learns about the topic on the first real message sent to it. Blank
// and duplicate names are rejected with an advisory error.
func (e *Engine) CreateTopic(name string) error {
	name = strings.TrimSpace(name)
	if err := chat.ValidateTopicID(name); err != nil {
		return err
	}
	if e.topics.Contains(name) {
		return fmt.Errorf("%w: %s", chat.ErrDuplicateTopic, name)
	}

	e.cache.Seed(name, chat.GreetingPair(name, e.now()))
	if err := e.topics.Touch(name); err != nil {
		return err
	}

	e.mu.Lock()
	e.meta[name] = chat.Topic{ID: name, Category: chat.DefaultCategory, Visible: true}
	e.active = name
	e.mu.Unlock()

	e.log.Info().Str("topic", name).Msg("topic created")
	return nil
}

// DeleteTopic is confirmed-then-applied: the remote delete goes first
// and local state changes only after it succeeds. On failure everything
// is left untouched and the server's message is surfaced.
func (e *Engine) DeleteTopic(ctx context.Context, topicID string) error {
	if err := e.remote.DeleteTopic(ctx, topicID); err != nil {
		return err
	}

	if err := e.topics.Remove(topicID); err != nil {
		return err
	}
	e.cache.RemoveTopic(topicID)

	e.mu.Lock()
	delete(e.meta, topicID)
	if e.active == topicID {
		e.active = ""
	}
	e.mu.Unlock()

	e.log.Info().Str("topic", topicID).Msg("topic deleted")
	return nil
}

// SwitchTopic sets the active topic. Pure selection: no network call,
// no cache mutation.
func (e *Engine) SwitchTopic(topicID string) []chat.Message {
	e.mu.Lock()
	e.active = topicID
	e.mu.Unlock()
	return e.cache.Messages(topicID)
}

// ActiveTopic returns the current selection, empty if none.
func (e *Engine) ActiveTopic() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// ActiveMessages returns the active topic's sequence.
func (e *Engine) ActiveMessages() []chat.Message {
	return e.cache.Messages(e.ActiveTopic())
}

// Topic returns the metadata for a known topic id.
func (e *Engine) Topic(topicID string) (chat.Topic, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	topic, ok := e.meta[topicID]
	return topic, ok
}

// Cache exposes the conversation cache for read-only consumers.
func (e *Engine) Cache() *convcache.Cache {
	return e.cache
}

// Topics exposes the topic store for read-only consumers.
func (e *Engine) Topics() *topicstore.Store {
	return e.topics
}

// Previews exposes the preview registry so views can resolve handles.
func (e *Engine) Previews() *attach.Previewer {
	return e.previews
}

func (e *Engine) resolveAttachment(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if e.storageBase == "" {
		return path
	}
	return e.storageBase + "/" + strings.TrimLeft(path, "/")
}
