package coupon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/common/money"
)

type stubService struct {
	res  Result
	err  error
	reqs []Request
}

func (s *stubService) Apply(_ context.Context, req Request) (Result, error) {
	s.reqs = append(s.reqs, req)
	return s.res, s.err
}

// gatedService blocks each call until the test answers it.
type gatedService struct {
	calls chan *gatedCall
}

type gatedCall struct {
	req   Request
	reply chan Result
}

func newGatedService() *gatedService {
	return &gatedService{calls: make(chan *gatedCall)}
}

func (g *gatedService) Apply(ctx context.Context, req Request) (Result, error) {
	c := &gatedCall{req: req, reply: make(chan Result)}
	g.calls <- c
	select {
	case res := <-c.reply:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  Result
		err  error
		want Result
	}{
		{"valid", Result{Valid: true, Discount: money.FromMajor(500)}, nil,
			Result{Valid: true, Discount: money.FromMajor(500), Message: MessageApplied}},
		{"valid with message", Result{Valid: true, Discount: money.FromMajor(5), Message: "Nice"}, nil,
			Result{Valid: true, Discount: money.FromMajor(5), Message: "Nice"}},
		{"negative discount", Result{Valid: true, Discount: money.FromMajor(-1)}, nil,
			Result{Valid: true, Discount: money.Zero(), Message: MessageApplied}},
		{"invalid", Result{Discount: money.FromMajor(500)}, nil,
			Result{Discount: money.Zero(), Message: MessageInvalid}},
		{"invalid with message", Result{Message: "Expired"}, nil,
			Result{Discount: money.Zero(), Message: "Expired"}},
		{"transport error", Result{}, errors.New("timeout"),
			Result{Discount: money.Zero(), Message: MessageFailed}},
		{"rejected", Result{}, &RejectedError{Message: "Coupon limit reached"},
			Result{Discount: money.Zero(), Message: "Coupon limit reached"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.res, tt.err))
		})
	}
}

func TestApply_Valid(t *testing.T) {
	t.Parallel()

	svc := &stubService{res: Result{Valid: true, Discount: money.FromMajor(500)}}
	var a Applier
	a.Type("  SAVE500 ")

	st, err := a.Apply(context.Background(), svc, money.FromMajor(5000))
	require.NoError(t, err)
	require.Len(t, svc.reqs, 1)
	assert.Equal(t, Request{Code: "SAVE500", Subtotal: money.FromMajor(5000)}, svc.reqs[0])

	assert.True(t, st.Valid)
	assert.False(t, st.Applying)
	assert.Equal(t, money.FromMajor(500), st.Discount)
	assert.Equal(t, MessageApplied, st.Message)
	assert.Equal(t, "SAVE500", a.AppliedCode())
	assert.Equal(t, money.FromMajor(500), a.Discount())
}

func TestApply_BlankCode(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	var a Applier
	a.Type("   ")

	_, err := a.Apply(context.Background(), svc, money.FromMajor(100))
	assert.ErrorIs(t, err, ErrCodeRequired)
	assert.Empty(t, svc.reqs)
	assert.False(t, a.Applying())
}

func TestApply_FailureZeroesDiscount(t *testing.T) {
	t.Parallel()

	var a Applier
	a.Type("X")
	_, err := a.Apply(context.Background(), &stubService{res: Result{Valid: true, Discount: money.FromMajor(10)}}, money.FromMajor(100))
	require.NoError(t, err)

	st, err := a.Apply(context.Background(), &stubService{err: errors.New("boom")}, money.FromMajor(100))
	require.NoError(t, err)
	assert.False(t, st.Valid)
	assert.True(t, a.Discount().IsZero())
	assert.Equal(t, MessageFailed, st.Message)
	assert.Empty(t, a.AppliedCode())
}

func TestApply_NilService(t *testing.T) {
	t.Parallel()

	var a Applier
	a.Type("X")
	st, err := a.Apply(context.Background(), nil, money.FromMajor(100))
	require.NoError(t, err)
	assert.Equal(t, MessageFailed, st.Message)
}

func TestType_ResetsResult(t *testing.T) {
	t.Parallel()

	var a Applier
	a.Type("SAVE")
	_, err := a.Apply(context.Background(), &stubService{res: Result{Valid: true, Discount: money.FromMajor(50)}}, money.FromMajor(100))
	require.NoError(t, err)

	a.Type("SAVE2")
	st := a.State()
	assert.Equal(t, "SAVE2", st.Code)
	assert.Empty(t, st.Message)
	assert.False(t, st.Valid)
	assert.True(t, a.Discount().IsZero())
}

func TestApply_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	svc := newGatedService()
	var a Applier
	a.Type("FIRST")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = a.Apply(context.Background(), svc, money.FromMajor(1000))
	}()
	first := <-svc.calls
	assert.Equal(t, "FIRST", first.req.Code)

	a.Type("SECOND")
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = a.Apply(context.Background(), svc, money.FromMajor(1000))
	}()
	second := <-svc.calls
	assert.Equal(t, "SECOND", second.req.Code)
	assert.True(t, a.Applying())

	// newer response lands first
	second.reply <- Result{Valid: true, Discount: money.FromMajor(200)}
	assert.Eventually(t, func() bool { return a.State().Valid }, timeout, tick)
	assert.True(t, a.Applying())

	first.reply <- Result{Valid: true, Discount: money.FromMajor(900), Message: "old"}
	wg.Wait()

	st := a.State()
	assert.False(t, st.Applying)
	assert.Equal(t, money.FromMajor(200), st.Discount)
	assert.Equal(t, MessageApplied, st.Message)
	assert.Equal(t, "SECOND", st.AppliedCode)
}

func TestApply_TypingDuringFlightDiscardsResult(t *testing.T) {
	t.Parallel()

	svc := newGatedService()
	var a Applier
	a.Type("CODE")

	done := make(chan State)
	go func() {
		st, _ := a.Apply(context.Background(), svc, money.FromMajor(1000))
		done <- st
	}()
	call := <-svc.calls

	a.Type("CODE2")
	call.reply <- Result{Valid: true, Discount: money.FromMajor(100)}
	st := <-done

	assert.False(t, st.Valid)
	assert.True(t, st.Discount.IsZero())
	assert.Equal(t, "CODE2", st.Code)
}

func TestSettle_ReportsKept(t *testing.T) {
	t.Parallel()

	var a Applier
	a.Type("A")
	g1, _, err := a.Begin()
	require.NoError(t, err)
	g2, _, err := a.Begin()
	require.NoError(t, err)

	assert.False(t, a.Settle(g1, "A", Result{Valid: true}))
	assert.True(t, a.Applying())
	assert.True(t, a.Settle(g2, "A", Result{Message: MessageInvalid}))
	assert.False(t, a.Applying())
}
