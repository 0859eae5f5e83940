package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReconciler struct {
	calls     int
	olderThan time.Duration
	limit     int
	err       error
	panic     bool
}

func (f *fakeReconciler) Reconcile(_ context.Context, olderThan time.Duration, limit int) (int, error) {
	f.calls++
	f.olderThan = olderThan
	f.limit = limit
	if f.panic {
		panic("boom")
	}
	return 2, f.err
}

func TestReconcilePaymentsPassesWindow(t *testing.T) {
	r := &fakeReconciler{}
	s := New("", 30*time.Minute, r, zap.NewNop())

	s.reconcilePayments()

	assert.Equal(t, 1, r.calls)
	assert.Equal(t, 30*time.Minute, r.olderThan)
	assert.Equal(t, reconcileBatch, r.limit)
	assert.Equal(t, defaultReconcileSpec, s.spec)
}

func TestReconcilePaymentsSurvivesErrorsAndPanics(t *testing.T) {
	r := &fakeReconciler{err: errors.New("db down")}
	s := New("", time.Minute, r, zap.NewNop())
	assert.NotPanics(t, s.reconcilePayments)

	r.panic = true
	assert.NotPanics(t, s.reconcilePayments)
	assert.Equal(t, 2, r.calls)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New("not a spec", time.Minute, &fakeReconciler{}, zap.NewNop())
	require.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := New("0 0 3 * * *", time.Minute, &fakeReconciler{}, zap.NewNop())
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
