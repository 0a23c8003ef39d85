package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef maps one Engine counter to its exported name.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

const (
	AuditDroppedName = "goaccount_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

// CounterDefs lists every Engine counter in a stable order.
var CounterDefs = []CounterDef{
	counter(goAccount.MetricRegisterSuccess, "Registrations that stored a pending account and sent a code."),
	counter(goAccount.MetricRegisterConflict, "Registrations rejected because a verified account exists."),
	counter(goAccount.MetricRegisterThrottled, "Registrations rejected by the pending-account cap."),
	counter(goAccount.MetricRegisterInvalid, "Registrations rejected by input validation."),
	counter(goAccount.MetricCodeDeliveryFailure, "Verification codes that could not be delivered."),
	counter(goAccount.MetricVerifySuccess, "Successful code verifications."),
	counter(goAccount.MetricVerifyFailure, "Failed code verifications."),
	counter(goAccount.MetricVerifyPruned, "Superseded pending accounts removed during verification."),
	counter(goAccount.MetricLoginSuccess, "Successful logins."),
	counter(goAccount.MetricLoginFailure, "Failed logins."),
	counter(goAccount.MetricLogout, "Logout requests."),
	counter(goAccount.MetricSessionIssued, "Session tokens issued."),
	counter(goAccount.MetricAuthenticateFailure, "Session tokens rejected by the guard."),
	counter(goAccount.MetricAuthorizeDenied, "Requests denied by role authorization."),
	counter(goAccount.MetricPasswordResetRequest, "Password recovery requests that sent a link."),
	counter(goAccount.MetricPasswordResetDeliveryFailure, "Password recovery emails that could not be delivered."),
	counter(goAccount.MetricPasswordResetSuccess, "Completed password resets."),
	counter(goAccount.MetricPasswordResetFailure, "Rejected password resets."),
	counter(goAccount.MetricPasswordChangeSuccess, "Completed password changes."),
	counter(goAccount.MetricPasswordChangeFailure, "Rejected password changes."),
	counter(goAccount.MetricInternalError, "Operations that failed with an internal error."),
}

func counter(id goAccount.MetricID, help string) CounterDef {
	return CounterDef{ID: id, Name: "goaccount_" + goAccount.MetricName(id) + "_total", Help: help}
}
