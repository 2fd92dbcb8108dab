package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	QueryID int    `json:"query_id"`
	Text    string `json:"text"`
}

func TestEncode(t *testing.T) {
	messages, err := encode([]Event{
		{Key: "1", Value: request{QueryID: 1, Text: "cystic fibrosis"}},
		{Key: "2", Value: map[string]int{"n": 2}},
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, []byte("1"), messages[0].Key)
	assert.JSONEq(t, `{"query_id":1,"text":"cystic fibrosis"}`, string(messages[0].Value))
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	_, err := encode([]Event{{Key: "bad", Value: make(chan int)}})
	assert.ErrorContains(t, err, "marshaling event bad")
}

func TestDecodeJSON(t *testing.T) {
	got, err := DecodeJSON[request]([]byte(`{"query_id":7,"text":"pseudomonas"}`))
	require.NoError(t, err)
	assert.Equal(t, request{QueryID: 7, Text: "pseudomonas"}, got)

	_, err = DecodeJSON[request]([]byte(`{`))
	assert.ErrorContains(t, err, "decoding kafka message")
}
