package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextChatReq_Texts(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []TextMsg
	}{
		{
			name: "normal",
			body: `{"fromuid":1,"touid":2,"text_array":[{"content":"hi","msgid":"m1"},{"content":"yo","msgid":"m2"}]}`,
			expected: []TextMsg{
				{Content: "hi", MsgId: "m1"},
				{Content: "yo", MsgId: "m2"},
			},
		},
		{
			name:     "missing array",
			body:     `{"fromuid":1,"touid":2}`,
			expected: []TextMsg{},
		},
		{
			name:     "array is not an array",
			body:     `{"fromuid":1,"touid":2,"text_array":"oops"}`,
			expected: []TextMsg{},
		},
		{
			name:     "null array",
			body:     `{"fromuid":1,"touid":2,"text_array":null}`,
			expected: []TextMsg{},
		},
		{
			name: "element missing fields",
			body: `{"text_array":[{"content":"only content"},{"msgid":5},3]}`,
			expected: []TextMsg{
				{Content: "only content"},
				{},
				{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req TextChatReq
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.expected, req.Texts())
		})
	}
}

func TestTextChatRsp_EmptyArrayIsEncoded(t *testing.T) {
	data, err := json.Marshal(TextChatRsp{FromUid: 1, ToUid: 2, TextArray: []TextMsg{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":0,"fromuid":1,"touid":2,"text_array":[]}`, string(data))
}
