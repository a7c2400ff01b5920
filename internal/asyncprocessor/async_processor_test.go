package asyncprocessor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeError(t *testing.T) {
	p := &Processor{
		BufferSize: 10,
	}
	err := p.Initialize()
	require.EqualError(t, err, "size must be a power of two")
}

func TestCloseBeforeStart(t *testing.T) {
	p := &Processor{
		BufferSize: 8,
	}
	err := p.Initialize()
	require.NoError(t, err)
	defer p.Close()
}

func TestProcessInOrder(t *testing.T) {
	p := &Processor{
		BufferSize: 8,
	}
	err := p.Initialize()
	require.NoError(t, err)
	defer p.Close()

	res := make(chan int, 3)

	for i := 0; i < 3; i++ {
		i := i
		ok := p.Push(func() error {
			res <- i
			return nil
		})
		require.Equal(t, true, ok)
	}

	p.Start()

	require.Equal(t, 0, <-res)
	require.Equal(t, 1, <-res)
	require.Equal(t, 2, <-res)
}

func TestPushFull(t *testing.T) {
	p := &Processor{
		BufferSize: 2,
	}
	err := p.Initialize()
	require.NoError(t, err)
	defer p.Close()

	require.Equal(t, true, p.Push(func() error { return nil }))
	require.Equal(t, true, p.Push(func() error { return nil }))
	require.Equal(t, false, p.Push(func() error { return nil }))
}

func TestCloseAfterError(t *testing.T) {
	done := make(chan struct{})

	p := &Processor{
		BufferSize: 8,
		OnError: func(_ context.Context, err error) {
			require.EqualError(t, err, "ok")
			close(done)
		},
	}
	err := p.Initialize()
	require.NoError(t, err)
	defer p.Close()

	p.Push(func() error {
		return fmt.Errorf("ok")
	})

	p.Start()

	<-done
}

func TestCloseBeforeError(t *testing.T) {
	p := &Processor{
		BufferSize: 8,
		OnError:    func(_ context.Context, _ error) {},
	}
	err := p.Initialize()
	require.NoError(t, err)
	defer p.Close()

	p.Push(func() error {
		return nil
	})

	p.Start()
}

func TestCloseDuringError(t *testing.T) {
	p := &Processor{
		BufferSize: 8,
		OnError: func(ctx context.Context, _ error) {
			<-ctx.Done()
		},
	}
	err := p.Initialize()
	require.NoError(t, err)
	defer p.Close()

	p.Push(func() error {
		return fmt.Errorf("ok")
	})

	p.Start()
}
