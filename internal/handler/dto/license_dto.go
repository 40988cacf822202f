package dto

import "encoding/json"

type ActivateRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Name    string `json:"name"`
	HWID    string `json:"hwid" binding:"required"`
}

type ActivateResponse struct {
	Success          bool   `json:"success"`
	AlreadyActivated bool   `json:"alreadyActivated,omitempty"`
	DeviceSecret     string `json:"deviceSecret,omitempty"`
	OrderID          string `json:"orderId,omitempty"`
	Email            string `json:"email,omitempty"`
	Message          string `json:"message,omitempty"`
}

type CheckRequest struct {
	HWID         string `json:"hwid" binding:"required"`
	DeviceSecret string `json:"deviceSecret" binding:"required"`
	Nonce        string `json:"nonce"`
}

// CheckResponse carries the signed license assertion. Payload is the
// exact byte sequence the signature covers; clients must verify the
// signature over these bytes, not over a re-serialization.
type CheckResponse struct {
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
	Alg       string          `json:"alg"`
}

type CheckDeniedResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}
