package grfutil

import (
	"github.com/rorebuild/grf"
)

type readResult struct {
	data []byte
	err  error
}

// ReadEntries reads and decodes es using up to n goroutines, calling fn for
// each entry in order. No more than n entries are read ahead of the one being
// processed by fn. If fn returns an error, reading stops and the error is
// returned.
func ReadEntries(a *grf.Archive, es []grf.Entry, n int, fn func(e grf.Entry, data []byte, err error) error) error {
	if n <= 1 {
		for _, e := range es {
			buf, err := a.ReadEntry(e)
			if err := fn(e, buf, err); err != nil {
				return err
			}
		}
		return nil
	}

	done := make(chan struct{})
	defer close(done)

	queue := make(chan chan readResult, n-1)
	go func() {
		defer close(queue)
		for _, e := range es {
			ch := make(chan readResult, 1)
			select {
			case queue <- ch:
			case <-done:
				return
			}
			go func(e grf.Entry) {
				buf, err := a.ReadEntry(e)
				ch <- readResult{buf, err}
			}(e)
		}
	}()

	var i int
	for ch := range queue {
		r := <-ch
		if err := fn(es[i], r.data, r.err); err != nil {
			return err
		}
		i++
	}
	return nil
}
