package middleware

import (
	"net/http"
	"slices"

	"freshcart/errs"
	"freshcart/models"
	"freshcart/utils"

	"github.com/julienschmidt/httprouter"
)

type Action string

const (
	OrderCreate       Action = "order:create"
	OrderRead         Action = "order:read"
	OrderListAll      Action = "order:list-all"
	OrderUpdateStatus Action = "order:update-status"
	OrderCancelOwn    Action = "order:cancel-own"
	PaymentCreate     Action = "payment:create"
	PaymentVerify     Action = "payment:verify"
	CatalogWrite      Action = "catalog:write"
	AccountToggle     Action = "account:toggle"
)

// rule allows Roles unconditionally and OwnerRoles only on their own
// resources.
type rule struct {
	Roles      []string
	OwnerRoles []string
}

var (
	admins   = []string{models.RoleAdmin, models.RoleSuperAdmin}
	everyone = []string{models.RoleCustomer, models.RoleAdmin, models.RoleSuperAdmin}
)

var policy = map[Action]rule{
	OrderCreate:       {Roles: everyone},
	OrderRead:         {Roles: admins, OwnerRoles: everyone},
	OrderListAll:      {Roles: admins},
	OrderUpdateStatus: {Roles: admins},
	OrderCancelOwn:    {OwnerRoles: everyone},
	PaymentCreate:     {Roles: everyone},
	PaymentVerify:     {Roles: admins, OwnerRoles: everyone},
	CatalogWrite:      {Roles: admins},
	AccountToggle:     {Roles: admins},
}

// toggleTargets lists which account roles each role may disable or enable.
var toggleTargets = map[string][]string{
	models.RoleSuperAdmin: everyone,
	models.RoleAdmin:      {models.RoleCustomer},
}

// Allowed evaluates the policy table for acc acting on a resource it owns
// (owns=true) or not.
func Allowed(action Action, acc *models.Account, owns bool) bool {
	if acc == nil {
		return false
	}
	r, ok := policy[action]
	if !ok {
		return false
	}
	if slices.Contains(r.Roles, acc.Role) {
		return true
	}
	return owns && slices.Contains(r.OwnerRoles, acc.Role)
}

// CanToggle reports whether actor may disable or enable target.
func CanToggle(actor, target *models.Account) bool {
	if !Allowed(AccountToggle, actor, false) || target == nil {
		return false
	}
	return slices.Contains(toggleTargets[actor.Role], target.Role)
}

// Require rejects callers the policy does not allow for action regardless
// of ownership. It must run after Authenticate.
func Require(action Action) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if !Allowed(action, utils.GetAccountFromRequest(r), false) {
				utils.RespondWithError(w, errs.E(errs.Forbidden, "You are not allowed to do this"))
				return
			}
			next(w, r, ps)
		}
	}
}
