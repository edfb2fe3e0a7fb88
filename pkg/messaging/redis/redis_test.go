package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ehr-booking/pkg/messaging"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	// nothing listens on port 1, so every publish fails fast
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	broker := NewRedisBroker(client, BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, zerolog.Nop())
	t.Cleanup(func() { broker.Close() })

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		err := broker.Publish(ctx, messaging.Channel("slot.created"), []byte(`{}`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, messaging.ErrBrokerUnavailable)
	}

	err := broker.Publish(ctx, messaging.Channel("slot.created"), []byte(`{}`))
	assert.ErrorIs(t, err, messaging.ErrBrokerUnavailable)
	assert.Equal(t, "open", broker.State())
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), Config{URL: "not a url"})
	assert.Error(t, err)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "ehr.appointment.booked", messaging.Channel("appointment.booked"))
}
