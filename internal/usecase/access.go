package usecase

import "github.com/founderlab/fl-stripe-server/internal/domain/entity"

// Action names what a caller is trying to do with an owner's customer record.
type Action string

const (
	ActionCreateCard       Action = "create_card"
	ActionListCards        Action = "list_cards"
	ActionSetDefaultCard   Action = "set_default_card"
	ActionDeleteCard       Action = "delete_card"
	ActionCharge           Action = "charge"
	ActionShowSubscription Action = "show_subscription"
	ActionSubscribe        Action = "subscribe"
	ActionListCustomers    Action = "list_customers"
)

// CanAccess decides whether principal may perform action on the records of targetOwnerID.
// Anonymous callers are denied and administrators are allowed. Everyone else may only act on
// their own records; an empty target means the caller's own.
func CanAccess(principal *entity.Principal, action Action, targetOwnerID string) bool {
	if principal == nil || principal.ID == "" {
		return false
	}
	if principal.Admin {
		return true
	}
	if action == ActionListCustomers {
		return false
	}
	return targetOwnerID == "" || targetOwnerID == principal.ID
}
