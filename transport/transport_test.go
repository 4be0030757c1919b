package transport

import (
	"sync"
	"time"
)

// MockRadio implements Radio for testing. Payloads queued with InjectRx are
// returned by Poll in order; errors queued with InjectFault take precedence.
type MockRadio struct {
	mu         sync.Mutex
	configured int
	listening  bool
	txLog      [][]byte
	txErrs     []error
	rxData     [][]byte
	rxErrs     []error
}

func NewMockRadio() *MockRadio { return &MockRadio{} }

func (m *MockRadio) Configure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured++
	return nil
}

func (m *MockRadio) Transmit(payload []byte, timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txErrs) > 0 {
		err := m.txErrs[0]
		m.txErrs = m.txErrs[1:]
		if err != nil {
			return err
		}
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	m.txLog = append(m.txLog, data)
	return nil
}

func (m *MockRadio) StartListening() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listening = true
	return nil
}

func (m *MockRadio) StopListening() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listening = false
	return nil
}

func (m *MockRadio) Poll() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rxErrs) > 0 {
		err := m.rxErrs[0]
		m.rxErrs = m.rxErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(m.rxData) == 0 {
		return nil, nil
	}
	data := m.rxData[0]
	m.rxData = m.rxData[1:]
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MockRadio) PowerDown() error { return nil }

func (m *MockRadio) InjectRx(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.rxData = append(m.rxData, cp)
}

func (m *MockRadio) InjectFault(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rxErrs = append(m.rxErrs, err)
}

// InjectTxResult queues the outcome for the next Transmit call; nil means
// success.
func (m *MockRadio) InjectTxResult(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txErrs = append(m.txErrs, err)
}

func (m *MockRadio) TxLog() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.txLog))
	for i, d := range m.txLog {
		out[i] = make([]byte, len(d))
		copy(out[i], d)
	}
	return out
}

func (m *MockRadio) PendingFaults() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rxErrs)
}

func (m *MockRadio) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listening
}

func (m *MockRadio) Configured() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configured
}
