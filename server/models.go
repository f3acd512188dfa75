package server

import (
	"github.com/telegate/telegate/auth"
	"github.com/telegate/telegate/internal/utils"
)

// authRequest is the POST payload for the consolidated auth endpoint.
type authRequest struct {
	Action        string `json:"action"`
	PhoneNumber   string `json:"phoneNumber"`
	PhoneCodeHash string `json:"phoneCodeHash"`
	PhoneCode     string `json:"phoneCode"`
	Password      string `json:"password"`
}

// authResponse is the JSON envelope for every auth endpoint outcome. Success
// and IsConnected are pointers so GET responses carry only isConnected and
// POST responses only success.
type authResponse struct {
	Success          *bool  `json:"success,omitempty"`
	IsConnected      *bool  `json:"isConnected,omitempty"`
	Message          string `json:"message,omitempty"`
	Error            string `json:"error,omitempty"`
	PhoneCodeHash    string `json:"phoneCodeHash,omitempty"`
	PasswordRequired bool   `json:"passwordRequired,omitempty"`
	CodeExpired      bool   `json:"codeExpired,omitempty"`
	CodeInvalid      bool   `json:"codeInvalid,omitempty"`
	FloodWait        bool   `json:"floodWait,omitempty"`
	WaitTime         int    `json:"waitTime,omitempty"`
	AuthRestart      bool   `json:"authRestart,omitempty"`
}

func actionResponse(res auth.Result) authResponse {
	return authResponse{
		Success:          utils.Ptr(res.Success),
		Message:          res.Message,
		Error:            res.Error,
		PhoneCodeHash:    res.PhoneCodeHash,
		PasswordRequired: res.PasswordRequired,
		CodeExpired:      res.CodeExpired,
		CodeInvalid:      res.CodeInvalid,
		FloodWait:        res.FloodWait,
		WaitTime:         res.WaitSeconds,
		AuthRestart:      res.AuthRestart,
	}
}

func checkResponse(res auth.Result) authResponse {
	return authResponse{
		IsConnected: utils.Ptr(res.IsConnected),
		Message:     res.Message,
		Error:       res.Error,
	}
}
