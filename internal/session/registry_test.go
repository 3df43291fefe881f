package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge-dev/carebridge/internal/chat"
	"github.com/carebridge-dev/carebridge/shared/domain"
)

type countingFactory struct {
	calls int
	creds []*Credentials
}

func (f *countingFactory) build(viewer domain.Viewer, creds *Credentials) *chat.Engine {
	f.calls++
	f.creds = append(f.creds, creds)
	return chat.New(chat.Options{Viewer: viewer})
}

func TestRegistryAcquire(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.build, time.Hour)
	defer r.Close()

	operator := domain.Viewer{Id: 1, Role: domain.ParticipantOperator}
	clinic := domain.Viewer{Id: 1, Role: domain.ParticipantClinic}

	e1, created, err := r.Acquire(operator, "t1")
	require.NoError(t, err)
	assert.True(t, created)

	e2, created, err := r.Acquire(operator, "t2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, e1, e2)

	token, err := f.creds[0].Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2", token, "latest token is used")

	e3, _, err := r.Acquire(clinic, "t3")
	require.NoError(t, err)
	assert.NotSame(t, e1, e3, "same id with another role is another viewer")
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryEvict(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.build, time.Minute)
	defer r.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	_, _, err := r.Acquire(domain.Viewer{Id: 1, Role: domain.ParticipantOperator}, "t")
	require.NoError(t, err)
	now = now.Add(50 * time.Second)
	_, _, err = r.Acquire(domain.Viewer{Id: 2, Role: domain.ParticipantOperator}, "t")
	require.NoError(t, err)

	now = now.Add(20 * time.Second)
	assert.Equal(t, 1, r.Evict())
	assert.Equal(t, 1, r.Len())

	_, created, err := r.Acquire(domain.Viewer{Id: 1, Role: domain.ParticipantOperator}, "t")
	require.NoError(t, err)
	assert.True(t, created, "evicted viewer gets a fresh engine")
}

func TestRegistryBackgroundEviction(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.build, time.Nanosecond)
	defer r.Close()

	_, _, err := r.Acquire(domain.Viewer{Id: 1, Role: domain.ParticipantOperator}, "t")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.StartBackgroundEviction(ctx, 5*time.Millisecond)
	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
}

func TestRegistryClose(t *testing.T) {
	f := &countingFactory{}
	r := NewRegistry(f.build, time.Hour)

	engine, _, err := r.Acquire(domain.Viewer{Id: 1, Role: domain.ParticipantOperator}, "t")
	require.NoError(t, err)
	r.Close()

	assert.Zero(t, r.Len())
	assert.ErrorIs(t, engine.SelectConversation(context.Background(), "clinic:1/operator:1"), chat.ErrEngineClosed)
	_, _, err = r.Acquire(domain.Viewer{Id: 1, Role: domain.ParticipantOperator}, "t")
	assert.ErrorIs(t, err, chat.ErrEngineClosed)
}
