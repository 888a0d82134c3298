package types

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeMessageKinds(t *testing.T) {
	anchor := TabID(3)
	cases := []struct {
		name string
		raw  string
		want Message
	}{
		{
			name: "subtree",
			raw:  `{"type":"subtree-collapsed-state-changed","tabId":1,"collapsed":true,"visibilityChangedTabIds":[2,3]}`,
			want: SubtreeCollapsedStateChanged{TabID: 1, Collapsed: true, VisibilityChangedTabIDs: []TabID{2, 3}},
		},
		{
			name: "tab collapsed",
			raw:  `{"type":"tab-collapsed-state-changed","tabId":2,"collapsed":true,"justNow":true,"anchorId":3,"last":true}`,
			want: TabCollapsedStateChanged{TabID: 2, Collapsed: true, JustNow: true, AnchorID: &anchor, Last: true},
		},
		{
			name: "level",
			raw:  `{"type":"tab-level-changed","tabId":4,"level":2}`,
			want: TabLevelChanged{TabID: 4, Level: 2},
		},
		{
			name: "topology",
			raw:  `{"type":"children-changed","tabId":5}`,
			want: TabTopologyChanged{Type: MessageChildrenChanged, TabID: 5},
		},
		{
			name: "type is trimmed",
			raw:  `{"type":" tab-hidden ","tabId":6}`,
			want: TabTopologyChanged{Type: MessageTabHidden, TabID: 6},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeMessage([]byte(tc.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
			if got.Tab() != tc.want.Tab() || got.Kind() != tc.want.Kind() {
				t.Fatalf("unexpected kind/tab %s/%d", got.Kind(), got.Tab())
			}
		})
	}
}

func TestDecodeMessageRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{`not json`, ErrInvalidMessage},
		{`{"tabId":1}`, ErrInvalidMessage},
		{`{"type":"tab-created"}`, ErrInvalidMessage},
		{`{"type":"tab-level-changed","tabId":1,"level":-2}`, ErrInvalidMessage},
		{`{"type":"tab-collapsed-state-changed","tabId":1,"collapsed":"yes"}`, ErrInvalidMessage},
		{`{"type":"tab-moved","tabId":1}`, ErrUnknownMessageKind},
	}
	for _, tc := range cases {
		_, err := DecodeMessage([]byte(tc.raw))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.raw, tc.want, err)
		}
	}
}

func TestEncodeMessageAddsType(t *testing.T) {
	anchor := TabID(9)
	msgs := []Message{
		TabCollapsedStateChanged{TabID: 2, Collapsed: true, AnchorID: &anchor},
		TabTopologyChanged{Type: MessageTabRemoving, TabID: 7},
		SubtreeCollapsedStateChanged{TabID: 1, VisibilityChangedTabIDs: []TabID{4}},
	}
	for _, msg := range msgs {
		data, err := EncodeMessage(msg)
		if err != nil {
			t.Fatalf("encode %s: %v", msg.Kind(), err)
		}
		decoded, err := DecodeMessage(data)
		if err != nil {
			t.Fatalf("decode %s: %v (%s)", msg.Kind(), err, data)
		}
		if !reflect.DeepEqual(decoded, msg) {
			t.Fatalf("got %#v, want %#v", decoded, msg)
		}
	}

	if _, err := EncodeMessage(nil); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected invalid message error for nil, got %v", err)
	}
}
