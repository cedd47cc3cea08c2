package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, q.Publish(ctx, Message{Type: "sms", Body: []byte(`{"to":"+919876543210"}`)}))
	require.NoError(t, q.Publish(ctx, Message{Type: "sms", Body: []byte(`{"to":"+919876543211"}`)}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	first := <-msgs
	second := <-msgs
	assert.Equal(t, `{"to":"+919876543210"}`, string(first.Body))
	assert.Equal(t, `{"to":"+919876543211"}`, string(second.Body))

	cancel()
	for range msgs {
	}
}

func TestInMemory_PublishFull(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Type: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "b"}), context.DeadlineExceeded)
}

func Test_serialize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Message
	}{
		{"typed", "sms|hello|world", Message{Type: "sms", Body: []byte("hello|world")}},
		{"untyped", "hello", Message{Body: []byte("hello")}},
		{"empty body", "sms|", Message{Type: "sms", Body: []byte{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := deserialize(tc.raw)
			assert.Equal(t, tc.want.Type, got.Type)
			assert.Equal(t, string(tc.want.Body), string(got.Body))
		})
	}
	assert.Equal(t, "sms|body", serialize(Message{Type: "sms", Body: []byte("body")}))
}
