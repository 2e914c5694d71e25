// Package dbtest contém dublês de teste para a camada de banco.
package dbtest

import "github.com/stretchr/testify/mock"

// MockTx simula uma transação. Rollback após Commit é aceito como no pgx.
type MockTx struct {
	mock.Mock
	Committed  bool
	RolledBack bool
}

// NewMockTx cria uma transação que aceita Commit e Rollback sem erro
func NewMockTx() *MockTx {
	tx := &MockTx{}
	tx.On("Commit").Return(nil).Maybe()
	tx.On("Rollback").Return(nil).Maybe()
	return tx
}

func (m *MockTx) Commit() error {
	args := m.Called()
	if args.Error(0) == nil {
		m.Committed = true
	}
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	if !m.Committed {
		m.RolledBack = true
	}
	return args.Error(0)
}
