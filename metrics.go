package goAccount

import internalmetrics "github.com/MrEthical07/goAccount/internal/metrics"

// MetricID indexes one Engine counter.
type MetricID = internalmetrics.MetricID

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot = internalmetrics.Snapshot

const (
	MetricRegisterSuccess              = internalmetrics.MetricRegisterSuccess
	MetricRegisterConflict             = internalmetrics.MetricRegisterConflict
	MetricRegisterThrottled            = internalmetrics.MetricRegisterThrottled
	MetricRegisterInvalid              = internalmetrics.MetricRegisterInvalid
	MetricCodeDeliveryFailure          = internalmetrics.MetricCodeDeliveryFailure
	MetricVerifySuccess                = internalmetrics.MetricVerifySuccess
	MetricVerifyFailure                = internalmetrics.MetricVerifyFailure
	MetricVerifyPruned                 = internalmetrics.MetricVerifyPruned
	MetricLoginSuccess                 = internalmetrics.MetricLoginSuccess
	MetricLoginFailure                 = internalmetrics.MetricLoginFailure
	MetricLogout                       = internalmetrics.MetricLogout
	MetricSessionIssued                = internalmetrics.MetricSessionIssued
	MetricAuthenticateFailure          = internalmetrics.MetricAuthenticateFailure
	MetricAuthorizeDenied              = internalmetrics.MetricAuthorizeDenied
	MetricPasswordResetRequest         = internalmetrics.MetricPasswordResetRequest
	MetricPasswordResetDeliveryFailure = internalmetrics.MetricPasswordResetDeliveryFailure
	MetricPasswordResetSuccess         = internalmetrics.MetricPasswordResetSuccess
	MetricPasswordResetFailure         = internalmetrics.MetricPasswordResetFailure
	MetricPasswordChangeSuccess        = internalmetrics.MetricPasswordChangeSuccess
	MetricPasswordChangeFailure        = internalmetrics.MetricPasswordChangeFailure
	MetricInternalError                = internalmetrics.MetricInternalError
)

// MetricName returns the snake_case name used by exporters.
func MetricName(id MetricID) string {
	return internalmetrics.Name(id)
}
