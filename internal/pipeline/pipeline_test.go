package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
)

type stubRisk struct {
	pre, post []common.OrderId
}

func (s *stubRisk) PreProcess(cmd *common.Command) {
	s.pre = append(s.pre, cmd.OrderId)
	cmd.ResultCode = common.ValidForMatchingEngine
}

func (s *stubRisk) PostProcess(cmd *common.Command) {
	s.post = append(s.post, cmd.OrderId)
	cmd.ResultCode = common.Success
}

type stubMatching struct {
	dispatched []common.OrderId
}

func (s *stubMatching) Dispatch(cmd *common.Command) {
	s.dispatched = append(s.dispatched, cmd.OrderId)
}

func TestInlineDriverRunsStagesInOrder(t *testing.T) {
	risk := &stubRisk{}
	match := &stubMatching{}
	var consumed []common.OrderId
	var mu sync.Mutex

	p := New(risk, match, func(cmd *common.Command) {
		mu.Lock()
		defer mu.Unlock()
		consumed = append(consumed, cmd.OrderId)
	})
	driver := NewInlineDriver(p)

	driver.Submit(&common.Command{OrderId: 1})
	driver.Submit(&common.Command{OrderId: 2})

	assert.Equal(t, []common.OrderId{1, 2}, risk.pre)
	assert.Equal(t, []common.OrderId{1, 2}, match.dispatched)
	assert.Equal(t, []common.OrderId{1, 2}, risk.post)
	assert.Equal(t, []common.OrderId{1, 2}, consumed)
}

func TestRingDriverProcessesInFIFOOrder(t *testing.T) {
	risk := &stubRisk{}
	match := &stubMatching{}

	var mu sync.Mutex
	var consumed []common.OrderId
	done := make(chan struct{})

	p := New(risk, match, func(cmd *common.Command) {
		mu.Lock()
		consumed = append(consumed, cmd.OrderId)
		n := len(consumed)
		mu.Unlock()
		if n == 5 {
			close(done)
		}
	})

	driver := NewRingDriver(p, 8, BusySpinWait{}, zerolog.Nop(), false)
	tb := driver.Start(context.Background())

	for i := common.OrderId(1); i <= 5; i++ {
		driver.Submit(&common.Command{OrderId: i})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ring driver to drain")
	}

	tb.Kill(nil)
	require.NoError(t, tb.Wait())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []common.OrderId{1, 2, 3, 4, 5}, consumed)
}

func TestRingDriverMultiProducerSerializesSubmit(t *testing.T) {
	risk := &stubRisk{}
	match := &stubMatching{}

	var mu sync.Mutex
	consumed := make(map[common.OrderId]bool)
	done := make(chan struct{})
	const total = 200

	p := New(risk, match, func(cmd *common.Command) {
		mu.Lock()
		consumed[cmd.OrderId] = true
		n := len(consumed)
		mu.Unlock()
		if n == total {
			close(done)
		}
	})

	driver := NewRingDriver(p, 64, BusySpinWait{}, zerolog.Nop(), true)
	tb := driver.Start(context.Background())

	var wg sync.WaitGroup
	for producer := 0; producer < 4; producer++ {
		wg.Add(1)
		go func(producer int) {
			defer wg.Done()
			for i := 0; i < total/4; i++ {
				id := common.OrderId(producer*(total/4) + i + 1)
				driver.Submit(&common.Command{OrderId: id})
			}
		}(producer)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ring driver to drain concurrent producers")
	}

	tb.Kill(nil)
	require.NoError(t, tb.Wait())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, consumed, total)
}

func TestRingDriverBlockingWaitStrategy(t *testing.T) {
	risk := &stubRisk{}
	match := &stubMatching{}
	done := make(chan struct{})

	p := New(risk, match, func(cmd *common.Command) {
		close(done)
	})

	driver := NewRingDriver(p, 4, BlockingWait{}, zerolog.Nop(), false)
	tb := driver.Start(context.Background())

	driver.Submit(&common.Command{OrderId: 1})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blocking wait strategy never woke the consumer")
	}

	tb.Kill(nil)
	require.NoError(t, tb.Wait())
}
