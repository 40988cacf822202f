package ierr

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")

	ErrOrderNotFound       = errors.New("order not found")
	ErrPaymentIncomplete   = errors.New("payment not completed")
	ErrEmailMismatch       = errors.New("order is already registered to a different email")
	ErrDeviceLocked        = errors.New("order is already locked to a different device")
	ErrDeviceRevoked       = errors.New("device is revoked")
	ErrInvalidDeviceSecret = errors.New("invalid device secret")
	ErrOrderNotRegistered  = errors.New("order not registered")
	ErrUnregisteredHWID    = errors.New("hwid is not registered")

	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTwoFARequired      = errors.New("2fa verification required")
	ErrTwoFAInvalid       = errors.New("2fa session invalid")
)
