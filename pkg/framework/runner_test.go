package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type closer struct {
	closed int
}

func (c *closer) Close() error {
	c.closed++
	return nil
}

func TestRunnerWait(t *testing.T) {
	errFailed := errors.New("failed")
	testCases := []struct {
		name    string
		results []error
		errs    []error
	}{
		{name: "all ok", results: []error{nil, nil}},
		{name: "canceled ignored", results: []error{context.Canceled, nil}},
		{name: "one failed", results: []error{nil, errFailed}, errs: []error{errFailed}},
		{name: "aggregated", results: []error{errFailed, errFailed}, errs: []error{errFailed, errFailed}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRunner()
			for n, result := range tc.results {
				result := result
				r.Go(NamedRun(string(rune('a'+n)), RunFunc(func(context.Context) error {
					return result
				})))
			}
			err := r.Wait()
			if len(tc.errs) == 0 {
				require.NoError(t, err)
				return
			}
			require.IsType(t, &AggregatedError{}, err)
			require.Equal(t, tc.errs, err.(*AggregatedError).Errors)
		})
	}
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"))
	require.Equal(t, "a", errs.Error())
	errs.Add(errors.New("b"), nil)
	require.Equal(t, "multiple errors:\n  a\n  b", errs.Aggregate().Error())
}

func TestRunWithContextCloser(t *testing.T) {
	c := &closer{}
	require.NoError(t, RunWithContextCloser(context.Background(), c, func() error { return nil }))
	require.Equal(t, 1, c.closed)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	c = &closer{}
	go cancel()
	err := RunWithContextCancel(ctx, func() {
		c.Close()
		close(release)
	}, func() error {
		<-release
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, c.closed)
}
