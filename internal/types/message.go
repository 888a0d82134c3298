package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type MessageKind string

const (
	MessageSubtreeCollapsedStateChanged MessageKind = "subtree-collapsed-state-changed"
	MessageTabCollapsedStateChanged     MessageKind = "tab-collapsed-state-changed"
	MessageTabLevelChanged              MessageKind = "tab-level-changed"
	MessageTabCreated                   MessageKind = "tab-created"
	MessageTabRemoving                  MessageKind = "tab-removing"
	MessageTabShown                     MessageKind = "tab-shown"
	MessageTabHidden                    MessageKind = "tab-hidden"
	MessageChildrenChanged              MessageKind = "children-changed"
)

var (
	ErrUnknownMessageKind = errors.New("unknown message kind")
	ErrInvalidMessage     = errors.New("invalid message")
)

// Message is one synchronization notification sent by the tree owner.
// Concrete types are SubtreeCollapsedStateChanged, TabCollapsedStateChanged,
// TabLevelChanged and TabTopologyChanged.
type Message interface {
	Kind() MessageKind
	Tab() TabID
}

type SubtreeCollapsedStateChanged struct {
	TabID                   TabID   `json:"tabId"`
	Collapsed               bool    `json:"collapsed"`
	VisibilityChangedTabIDs []TabID `json:"visibilityChangedTabIds,omitempty"`
}

func (m SubtreeCollapsedStateChanged) Kind() MessageKind { return MessageSubtreeCollapsedStateChanged }
func (m SubtreeCollapsedStateChanged) Tab() TabID        { return m.TabID }

type TabCollapsedStateChanged struct {
	TabID     TabID  `json:"tabId"`
	Collapsed bool   `json:"collapsed"`
	JustNow   bool   `json:"justNow,omitempty"`
	AnchorID  *TabID `json:"anchorId,omitempty"`
	Last      bool   `json:"last,omitempty"`
}

func (m TabCollapsedStateChanged) Kind() MessageKind { return MessageTabCollapsedStateChanged }
func (m TabCollapsedStateChanged) Tab() TabID        { return m.TabID }

type TabLevelChanged struct {
	TabID TabID `json:"tabId"`
	Level int   `json:"level"`
}

func (m TabLevelChanged) Kind() MessageKind { return MessageTabLevelChanged }
func (m TabLevelChanged) Tab() TabID        { return m.TabID }

// TabTopologyChanged covers the payload-less kinds: tab-created,
// tab-removing, tab-shown, tab-hidden and children-changed.
type TabTopologyChanged struct {
	Type  MessageKind `json:"-"`
	TabID TabID       `json:"tabId"`
}

func (m TabTopologyChanged) Kind() MessageKind { return m.Type }
func (m TabTopologyChanged) Tab() TabID        { return m.TabID }

type messageEnvelope struct {
	Type  MessageKind `json:"type"`
	TabID *TabID      `json:"tabId"`
}

func DecodeMessage(data []byte) (Message, error) {
	var envelope messageEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	kind := MessageKind(strings.TrimSpace(string(envelope.Type)))
	if kind == "" {
		return nil, fmt.Errorf("%w: type is required", ErrInvalidMessage)
	}
	if envelope.TabID == nil {
		return nil, fmt.Errorf("%w: %s: tabId is required", ErrInvalidMessage, kind)
	}
	switch kind {
	case MessageSubtreeCollapsedStateChanged:
		var msg SubtreeCollapsedStateChanged
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, kind, err)
		}
		return msg, nil
	case MessageTabCollapsedStateChanged:
		var msg TabCollapsedStateChanged
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, kind, err)
		}
		return msg, nil
	case MessageTabLevelChanged:
		var msg TabLevelChanged
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, kind, err)
		}
		if msg.Level < 0 {
			return nil, fmt.Errorf("%w: %s: negative level %d", ErrInvalidMessage, kind, msg.Level)
		}
		return msg, nil
	case MessageTabCreated, MessageTabRemoving, MessageTabShown, MessageTabHidden, MessageChildrenChanged:
		return TabTopologyChanged{Type: kind, TabID: *envelope.TabID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageKind, kind)
	}
}

// EncodeMessage is the inverse of DecodeMessage.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	var fields map[string]any
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["type"] = msg.Kind()
	return json.Marshal(fields)
}
