package console

import (
	"fmt"

	"argus-console/core/wire"
)

// adminID is the builtin administrator row, which renders without a
// checkbox and without row actions so it can never be selected for bulk
// mutation.
const adminID int64 = 1

const roleNotSet = "not set"

// Column identifies one cell renderer. The set is closed: RenderCell
// switches over every member and anything else renders empty.
type Column int

const (
	ColumnCheckbox Column = iota
	ColumnUsername
	ColumnDisplayName
	ColumnEmail
	ColumnRole
	ColumnState
	ColumnAuth
	ColumnActions
)

// RenderCell produces the display text for one cell.
func (c *Console) RenderCell(col Column, u wire.User) string {
	switch col {
	case ColumnCheckbox:
		if u.ID == adminID {
			return ""
		}
		return "[ ]"
	case ColumnUsername:
		return u.Username
	case ColumnDisplayName:
		return u.DisplayName
	case ColumnEmail:
		return u.Email
	case ColumnRole:
		return c.RoleName(u.RoleID)
	case ColumnState:
		return stateLabel(u.State)
	case ColumnAuth:
		return authLabel(wire.AuthFromBitmask(u.AuthType))
	case ColumnActions:
		if u.ID == adminID {
			return ""
		}
		return "edit | reset password | remove"
	default:
		return ""
	}
}

func stateLabel(s wire.UserState) string {
	switch s {
	case wire.StateNormal:
		return "normal"
	case wire.StateLocked:
		return "locked"
	default:
		return fmt.Sprintf("unknown (%d)", int(s))
	}
}

func authLabel(a wire.AuthConfig) string {
	if a.UseSystemDefault {
		return "system default"
	}
	label := ""
	for _, m := range a.Methods {
		name := "unknown"
		switch m {
		case wire.AuthPasswordCaptcha:
			name = "password + captcha"
		case wire.AuthPasswordOTP:
			name = "password + otp"
		}
		if label != "" {
			label += ", "
		}
		label += name
	}
	return label
}
