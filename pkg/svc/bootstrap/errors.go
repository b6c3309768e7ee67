package bootstrap

import "errors"

var (
	// ErrCredentialsNotFound is returned when no credentials file exists at
	// the explicit path, the working directory, or the gcloud default
	// location.
	ErrCredentialsNotFound = errors.New("no cloud credentials file found")

	// ErrTargetNotReady is returned when the target cluster does not reach a
	// ready state within the bootstrap readiness timeout.
	ErrTargetNotReady = errors.New("target cluster did not become ready")
)
