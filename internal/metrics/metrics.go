package metrics

import "sync/atomic"

// MetricID indexes one counter slot.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterConflict
	MetricRegisterThrottled
	MetricRegisterInvalid
	MetricCodeDeliveryFailure
	MetricVerifySuccess
	MetricVerifyFailure
	MetricVerifyPruned
	MetricLoginSuccess
	MetricLoginFailure
	MetricLogout
	MetricSessionIssued
	MetricAuthenticateFailure
	MetricAuthorizeDenied
	MetricPasswordResetRequest
	MetricPasswordResetDeliveryFailure
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricInternalError
	MetricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config toggles collection.
type Config struct {
	Enabled bool
}

// Metrics is a fixed array of padded counters. A nil or disabled Metrics
// ignores writes.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]paddedCounter
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Counters map[MetricID]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add increments id by n.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= MetricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{Counters: map[MetricID]uint64{}}
	}

	s := Snapshot{Counters: make(map[MetricID]uint64, int(MetricIDCount))}
	for id := MetricID(0); id < MetricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}

var names = [MetricIDCount]string{
	MetricRegisterSuccess:              "register_success",
	MetricRegisterConflict:             "register_conflict",
	MetricRegisterThrottled:            "register_throttled",
	MetricRegisterInvalid:              "register_invalid",
	MetricCodeDeliveryFailure:          "code_delivery_failure",
	MetricVerifySuccess:                "verify_success",
	MetricVerifyFailure:                "verify_failure",
	MetricVerifyPruned:                 "verify_pruned",
	MetricLoginSuccess:                 "login_success",
	MetricLoginFailure:                 "login_failure",
	MetricLogout:                       "logout",
	MetricSessionIssued:                "session_issued",
	MetricAuthenticateFailure:          "authenticate_failure",
	MetricAuthorizeDenied:              "authorize_denied",
	MetricPasswordResetRequest:         "password_reset_request",
	MetricPasswordResetDeliveryFailure: "password_reset_delivery_failure",
	MetricPasswordResetSuccess:         "password_reset_success",
	MetricPasswordResetFailure:         "password_reset_failure",
	MetricPasswordChangeSuccess:        "password_change_success",
	MetricPasswordChangeFailure:        "password_change_failure",
	MetricInternalError:                "internal_error",
}

// Name returns the snake_case name of id, or "" when id is out of range.
func Name(id MetricID) string {
	if id >= MetricIDCount {
		return ""
	}
	return names[id]
}
