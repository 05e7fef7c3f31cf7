package loan

import (
	"fmt"
	"strings"

	"lending-engine/internal/pkg/apperrors"
)

// Role is the explicit actor capability passed on every gated call.
// The engine never reads ambient session state.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleAccountant Role = "ACCOUNTANT"
	RoleCashier    Role = "CASHIER"
	RoleBorrower   Role = "BORROWER"
)

func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch role {
	case RoleAdmin, RoleAccountant, RoleCashier, RoleBorrower:
		return role, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", apperrors.ErrInvalidArgument, s)
}

// CanApprovePayments: reconciliation staff sign off on submitted
// payments.
func (r Role) CanApprovePayments() bool {
	return r == RoleAccountant || r == RoleAdmin
}

// PostsApprovedPayments: accountants post pre-approved payments
// directly, skipping the review queue. Front-line cashiers always
// submit PENDING entries.
func (r Role) PostsApprovedPayments() bool {
	return r == RoleAccountant
}

func (r Role) CanReviewLoans() bool {
	return r == RoleAdmin
}

func (r Role) CanReviseSchedule() bool {
	return r == RoleAdmin
}
