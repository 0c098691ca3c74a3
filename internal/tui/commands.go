package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/sync"
)

type loadedMsg struct {
	err error
}

type sendResultMsg struct {
	outcome *sync.SendOutcome
	err     error
}

type topicDeletedMsg struct {
	topicID string
	err     error
}

func loadCmd(engine *sync.Engine) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: engine.Load(context.Background())}
	}
}

// sendCmd runs the full optimistic round trip off the UI goroutine. The
// optimistic entries appear on the next render because the engine
// mutates the shared cache before the network call.
func sendCmd(engine *sync.Engine, input sync.SendInput) tea.Cmd {
	return func() tea.Msg {
		outcome, err := engine.Send(context.Background(), input)
		return sendResultMsg{outcome: outcome, err: err}
	}
}

func deleteTopicCmd(engine *sync.Engine, topicID string) tea.Cmd {
	return func() tea.Msg {
		return topicDeletedMsg{topicID: topicID, err: engine.DeleteTopic(context.Background(), topicID)}
	}
}
