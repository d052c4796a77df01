package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/source"
	"github.com/arloliu/tsascii/trace"
)

// input is one decoded input file.
type input struct {
	path      string
	traces    []*trace.Trace
	malformed int
	err       error // ErrInputRead, the file contributed nothing or only a prefix
}

// decode reads every trace of path. Malformed documents are logged and
// counted; a read failure is returned in input.err together with the traces
// decoded before it.
func decode(path string, logger *slog.Logger) input {
	in := input{path: path}

	r, err := source.Open(path)
	if err != nil {
		in.err = err
		return in
	}
	defer r.Close()

	for {
		t, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, errs.ErrMalformedTrace) {
				logger.Error("skipping trace document", slog.Any("error", err))
				in.malformed++

				continue
			}
			in.err = err

			break
		}
		in.traces = append(in.traces, t)
	}

	return in
}

// prefetcher decodes up to depth files ahead of the consumer while handing
// them out strictly in argument order.
type prefetcher struct {
	slots  []chan input
	tokens chan struct{}
	group  *errgroup.Group
	cancel context.CancelFunc
	next   int
}

func startPrefetch(ctx context.Context, paths []string, depth int, logger *slog.Logger) (*prefetcher, context.Context) {
	if depth < 1 {
		depth = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	p := &prefetcher{
		slots:  make([]chan input, len(paths)),
		tokens: make(chan struct{}, depth),
		group:  g,
		cancel: cancel,
	}
	for i := range p.slots {
		p.slots[i] = make(chan input, 1)
	}

	g.Go(func() error {
		for i, path := range paths {
			select {
			case p.tokens <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}

			slot := p.slots[i]
			g.Go(func() error {
				slot <- decode(path, logger)
				return nil
			})
		}

		return nil
	})

	return p, ctx
}

// Next returns the next decoded file in order. ok is false once every file
// was handed out or ctx is done.
func (p *prefetcher) Next(ctx context.Context) (in input, ok bool) {
	if p.next >= len(p.slots) {
		return input{}, false
	}

	select {
	case in = <-p.slots[p.next]:
	case <-ctx.Done():
		return input{}, false
	}
	p.next++
	<-p.tokens

	return in, true
}

// Stop cancels outstanding decodes and waits for them.
func (p *prefetcher) Stop() {
	p.cancel()
	_ = p.group.Wait()
}
