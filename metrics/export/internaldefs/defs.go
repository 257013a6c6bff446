package internaldefs

import (
	"authcore"
)

// CounterDef binds an engine counter to its exported name and help text.
//
// CounterDef instances are configured at package init and treated as
// immutable afterwards.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Completed logins, single- or two-step."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Rejected credential checks."},
	{ID: authcore.MetricTwoFactorRequired, Name: "authcore_two_factor_required_total", Help: "Logins that branched into the pending two-factor state."},
	{ID: authcore.MetricTwoFactorSuccess, Name: "authcore_two_factor_success_total", Help: "Successful two-factor confirmations."},
	{ID: authcore.MetricTwoFactorFailure, Name: "authcore_two_factor_failure_total", Help: "Rejected two-factor codes or bridge tokens."},
	{ID: authcore.MetricBackupCodeUsed, Name: "authcore_backup_code_used_total", Help: "Backup codes consumed during two-factor confirmation."},
	{ID: authcore.MetricRefreshSuccess, Name: "authcore_refresh_success_total", Help: "Successful refresh-token rotations."},
	{ID: authcore.MetricRefreshFailure, Name: "authcore_refresh_failure_total", Help: "Invalid refresh tokens."},
	{ID: authcore.MetricRefreshReuseDetected, Name: "authcore_refresh_reuse_detected_total", Help: "Stale refresh-token replays that revoked the lineage."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Explicit logout operations."},
	{ID: authcore.MetricStepUpSuccess, Name: "authcore_step_up_success_total", Help: "Successful step-up password verifications."},
	{ID: authcore.MetricStepUpFailure, Name: "authcore_step_up_failure_total", Help: "Failed step-up password verifications."},
	{ID: authcore.MetricEnrollmentStarted, Name: "authcore_enrollment_started_total", Help: "Two-factor enrollments begun."},
	{ID: authcore.MetricEnrollmentConfirmed, Name: "authcore_enrollment_confirmed_total", Help: "Two-factor enrollments activated."},
	{ID: authcore.MetricPairIssued, Name: "authcore_pair_issued_total", Help: "Access/refresh pairs minted by any flow."},
}
