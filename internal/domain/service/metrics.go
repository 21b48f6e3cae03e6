package service

// AccountMetrics counts account security outcomes.
type AccountMetrics interface {
	RegistrationSucceeded(role string)
	RegistrationRejected(role, reason string)
	LoginSucceeded()
	LoginFailed()
	LockoutTriggered()
	ResetRequested(outcome string)
	ResetCompleted(outcome string)
}
