package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/kitchen-dashboard/repositories"
)

type txKey struct{}

// MockTransactionManager runs fn with a marked context and records the outcome
type MockTransactionManager struct {
	mock.Mock
	committed  bool
	rolledback bool
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, true), nil); err != nil {
		m.rolledback = true
		return err
	}
	m.committed = true
	return nil
}

func newMockTxManager() *MockTransactionManager {
	m := new(MockTransactionManager)
	m.On("InTransaction", mock.Anything).Return(nil)
	return m
}

func TestWithTransaction_PassesTransactionContext(t *testing.T) {
	txMgr := newMockTxManager()

	err := WithTransaction(context.Background(), txMgr, func(ctx context.Context) error {
		assert.Equal(t, true, ctx.Value(txKey{}))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, txMgr.committed)
	txMgr.AssertExpectations(t)
}

func TestWithTransaction_ErrorRollsBack(t *testing.T) {
	txMgr := newMockTxManager()
	expectedErr := errors.New("operation failed")

	err := WithTransaction(context.Background(), txMgr, func(ctx context.Context) error {
		return expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.True(t, txMgr.rolledback)
	assert.False(t, txMgr.committed)
}

func TestWithTransaction_BeginError(t *testing.T) {
	txMgr := new(MockTransactionManager)
	txMgr.On("InTransaction", mock.Anything).Return(errors.New("failed to begin transaction"))
	called := false

	err := WithTransaction(context.Background(), txMgr, func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.False(t, called)
}

func TestWithTransactionResult_Success(t *testing.T) {
	txMgr := newMockTxManager()

	result, err := WithTransactionResult(context.Background(), txMgr, func(ctx context.Context) (string, error) {
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.True(t, txMgr.committed)
}

func TestWithTransactionResult_ErrorReturnsZero(t *testing.T) {
	txMgr := newMockTxManager()
	expectedErr := errors.New("operation failed")

	result, err := WithTransactionResult(context.Background(), txMgr, func(ctx context.Context) (int, error) {
		return 42, expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.Equal(t, 0, result)
	assert.True(t, txMgr.rolledback)
}

func TestWithTransactionResult_BeginError(t *testing.T) {
	txMgr := new(MockTransactionManager)
	txMgr.On("InTransaction", mock.Anything).Return(errors.New("failed to begin transaction"))

	result, err := WithTransactionResult(context.Background(), txMgr, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	assert.Error(t, err)
	assert.Equal(t, 0, result)
}
