package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST        ErrCode = "REQUEST_FAILED"
	BAD_REQUEST           ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND             ErrCode = "NOT_FOUND"
	UNAUTHORIZED          ErrCode = "UNAUTHORIZED"
	FORBIDDEN             ErrCode = "FORBIDDEN"
	LOCKED                ErrCode = "LOCKED"
	CONFLICT              ErrCode = "CONFLICT"
	SLOT_NOT_AVAILABLE    ErrCode = "SLOT_NOT_AVAILABLE"
	SUBSCRIPTION_REQUIRED ErrCode = "SUBSCRIPTION_REQUIRED"
	BALANCE_EXCEEDED      ErrCode = "BALANCE_EXCEEDED"
	DUPLICATE_BOOKING     ErrCode = "DUPLICATE_BOOKING"
)

var (
	ErrBadRequest           = errors.New("bad request")
	ErrInvalidId            = errors.New("invalid user_id")
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("invalid credentials")
	ErrForbidden            = errors.New("access denied")
	ErrLocked               = errors.New("resource is locked")
	ErrConflict             = errors.New("conflict")
	ErrSlotNotAvailable     = errors.New("slot is not available")
	ErrSubscriptionRequired = errors.New("active subscription required")
	ErrBalanceExceeded      = errors.New("balance limit exceeded")
	ErrDuplicateBooking     = errors.New("session already booked")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
