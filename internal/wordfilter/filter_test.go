package wordfilter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/mocks"
)

type staticSource struct {
	words []string
	err   error
}

func (s *staticSource) ListWords(context.Context) ([]string, error) {
	return s.words, s.err
}

func TestContainsIsCaseInsensitive(t *testing.T) {
	f := New(&staticSource{words: []string{" BadWord ", ""}})
	require.NoError(t, f.Refresh(context.Background()))

	assert.True(t, f.Contains("this has a badword inside"))
	assert.True(t, f.Contains("BADWORD"))
	assert.False(t, f.Contains("clean text"))
	assert.False(t, f.Contains(""))
}

func TestRefreshKeepsSnapshotOnError(t *testing.T) {
	src := &staticSource{words: []string{"spam"}}
	f := New(src)
	require.NoError(t, f.Refresh(context.Background()))

	src.err = errors.New("db down")
	assert.Error(t, f.Refresh(context.Background()))
	assert.True(t, f.Contains("spam"))
}

func TestEmptyFilterAllowsEverything(t *testing.T) {
	f := New(&staticSource{})
	assert.False(t, f.Contains("anything"))
}

func TestRunPicksUpNewWords(t *testing.T) {
	src := new(mocks.SensitiveWordRepositoryMock)
	src.On("ListWords", mock.Anything).Return([]string{"late"}, nil)
	f := New(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.Contains("too late") }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
