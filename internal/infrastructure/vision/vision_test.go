package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNopCamera(t *testing.T) {
	cam := NopCamera{}
	require.ErrorIs(t, cam.Start(context.Background()), ErrNoCamera)
	require.False(t, cam.Active())
	require.NoError(t, cam.Stop())

	_, err := cam.Capture(context.Background())
	require.ErrorIs(t, err, ErrNoCamera)
}

func TestNewGoCVCamera_Defaults(t *testing.T) {
	cam := NewGoCVCamera(0)
	require.Equal(t, 0, cam.DeviceID)
	require.Equal(t, 224, cam.MinImageSide)
	require.False(t, cam.Active())
}
