package jwt

import (
	"testing"
	"time"

	"github.com/carebridge-dev/carebridge/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeViewer(t *testing.T) {
	svc := New("secret", time.Hour)
	viewer := domain.Viewer{Id: 12, Role: domain.ParticipantOperator, Name: "Anna"}

	token, err := svc.NewToken(viewer)
	require.NoError(t, err)

	got, err := svc.DecodeViewer(token)
	require.NoError(t, err)
	assert.Equal(t, viewer, got)
}

func TestDecodeViewer_Rejects(t *testing.T) {
	svc := New("secret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		token, err := New("other", time.Hour).NewToken(domain.Viewer{Id: 1, Role: domain.ParticipantClinic})
		require.NoError(t, err)
		_, err = svc.DecodeViewer(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := New("secret", -time.Minute).NewToken(domain.Viewer{Id: 1, Role: domain.ParticipantClinic})
		require.NoError(t, err)
		_, err = svc.DecodeViewer(token)
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		token, err := svc.NewToken(domain.Viewer{Id: 1, Role: "admin"})
		require.NoError(t, err)
		_, err = svc.DecodeViewer(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.DecodeViewer("not-a-token")
		assert.Error(t, err)
	})
}
