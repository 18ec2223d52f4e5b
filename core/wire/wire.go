package wire

import (
	"encoding/json"
	"fmt"
)

// Code is the result code carried by every response envelope.
type Code int

const (
	CodeOK           Code = 0
	CodeFailed       Code = 1
	CodeInvalidParam Code = 2
	CodeExists       Code = 3
	CodeNotFound     Code = 4
	CodeForbidden    Code = 5
	CodeMailDisabled Code = 6
)

var codeText = map[Code]string{
	CodeOK:           "ok",
	CodeFailed:       "operation failed",
	CodeInvalidParam: "invalid parameter",
	CodeExists:       "already exists",
	CodeNotFound:     "not found",
	CodeForbidden:    "forbidden",
	CodeMailDisabled: "mail delivery not configured",
}

// ErrorText renders a server failure for the operator, preferring the
// server-supplied message over the generic code description.
func ErrorText(code Code, message string) string {
	if message != "" {
		return fmt.Sprintf("%s (code %d)", message, code)
	}
	if text, ok := codeText[code]; ok {
		return fmt.Sprintf("%s (code %d)", text, code)
	}
	return fmt.Sprintf("error code %d", code)
}

// Response is the envelope of every /user/* endpoint.
type Response struct {
	Code    Code            `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func NewResponse(code Code, message string, data any) Response {
	resp := Response{Code: code, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Response{Code: CodeFailed, Message: "encode response payload"}
		}
		resp.Data = raw
	}
	return resp
}

// DecodeData unmarshals the action-specific payload, if any.
func (r Response) DecodeData(out any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}

// UserState enumerates account states.
type UserState int

const (
	StateNormal UserState = 1
	StateLocked UserState = 2
)

// AuthMethod is one concrete login verification method. The wire format is a
// bitmask for compatibility; in-memory code works with AuthConfig instead.
type AuthMethod uint16

const (
	AuthPasswordCaptcha AuthMethod = 0x0001
	AuthPasswordOTP     AuthMethod = 0x0002
)

var allAuthMethods = []AuthMethod{AuthPasswordCaptcha, AuthPasswordOTP}

// AuthConfig describes how a user authenticates. UseSystemDefault set means
// the account follows the system login policy; otherwise Methods holds the
// enabled methods and must be non-empty for a valid account.
type AuthConfig struct {
	UseSystemDefault bool
	Methods          []AuthMethod
}

// Bitmask encodes the config for the wire. Zero means "system default".
func (a AuthConfig) Bitmask() uint16 {
	if a.UseSystemDefault {
		return 0
	}
	var v uint16
	for _, m := range a.Methods {
		v |= uint16(m)
	}
	return v
}

// AuthFromBitmask decodes the wire value.
func AuthFromBitmask(v uint16) AuthConfig {
	if v == 0 {
		return AuthConfig{UseSystemDefault: true}
	}
	cfg := AuthConfig{}
	for _, m := range allAuthMethods {
		if v&uint16(m) != 0 {
			cfg.Methods = append(cfg.Methods, m)
		}
	}
	return cfg
}

// User is the account row as exchanged with the service. The list endpoint
// returns a partial projection: Desc stays nil until a detail fetch enriches
// the row, which is how the console detects "not yet fetched".
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Mobile      string    `json:"mobile"`
	QQ          string    `json:"qq"`
	WeChat      string    `json:"wechat"`
	RoleID      *int64    `json:"role_id,omitempty"`
	State       UserState `json:"state"`
	AuthType    uint16    `json:"auth_type"`
	Desc        *string   `json:"desc,omitempty"`
}

// Role is an immutable lookup entry loaded once at console startup.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BulkAction names the mutation applied by /user/update-users.
type BulkAction string

const (
	BulkLock   BulkAction = "lock"
	BulkUnlock BulkAction = "unlock"
	BulkRemove BulkAction = "remove"
)

// CreateID is the wire sentinel /user/update-user uses for "create". Client
// code represents the same thing with a nil id and maps it at the boundary.
const CreateID int64 = -1

type GetUsersRequest struct {
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
	Filter  UserFilter `json:"filter"`
	Order   *Order     `json:"order,omitempty"`
}

type UserFilter struct {
	Search string     `json:"search,omitempty"`
	RoleID *int64     `json:"role_id,omitempty"`
	State  *UserState `json:"state,omitempty"`
}

type Order struct {
	Key string `json:"key"`
	Asc bool   `json:"asc"`
}

type GetUsersResult struct {
	Total int    `json:"total"`
	Rows  []User `json:"rows"`
}

type UpdateUserRequest struct {
	ID          int64  `json:"id"`
	RoleID      int64  `json:"role_id"`
	AuthType    uint16 `json:"auth_type"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	QQ          string `json:"qq"`
	WeChat      string `json:"wechat"`
	Desc        string `json:"desc"`
}

type UpdateUsersRequest struct {
	Action BulkAction `json:"action"`
	Users  []int64    `json:"users"`
}

type SetRoleRequest struct {
	Users  []int64 `json:"users"`
	RoleID int64   `json:"role_id"`
}

// Password reset modes.
const (
	ResetByEmail = 1
	ResetDirect  = 2
)

type ResetPasswordRequest struct {
	Mode     int    `json:"mode"`
	ID       int64  `json:"id"`
	Password string `json:"password,omitempty"`
}

// ImportDiagnostic is one line-numbered error from a partial CSV import.
type ImportDiagnostic struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}
