package access

import (
	"github.com/google/uuid"
)

type Action string

const (
	ActionCreateOrder   Action = "order:create"
	ActionUpdateOrder   Action = "order:update"
	ActionValidateOrder Action = "order:validate"
	ActionRejectOrder   Action = "order:reject"
	ActionReviseOrder   Action = "order:revise"
	ActionResubmitOrder Action = "order:resubmit"
	ActionCancelOrder   Action = "order:cancel"
	ActionViewOrder     Action = "order:view"
	ActionListOrders    Action = "order:list"
	ActionListOwnOrders Action = "order:list:own"
	ActionOrderStats    Action = "order:stats"
	ActionOwnOrderStats Action = "order:stats:own"

	ActionCreateProduct Action = "product:create"
	ActionPriceProduct  Action = "product:price"

	ActionStockInbound  Action = "stock:inbound"
	ActionStockOutbound Action = "stock:outbound"

	ActionReadJournal Action = "journal:read"

	ActionManageUsers Action = "user:manage"
)

// Resource describes what an action targets. OwnerID is set for resources
// that belong to a user, such as orders.
type Resource struct {
	Kind    string
	ID      uuid.UUID
	OwnerID uuid.UUID
}

// Policy decides whether an actor may perform an action on a resource.
type Policy interface {
	CanPerform(actor Actor, action Action, resource Resource) bool
}

type rule struct {
	roles     []Role
	ownerOnly bool
}

// RoleTable is the role-to-action mapping of the purchasing workflow.
type RoleTable struct {
	rules map[Action]rule
}

func NewRoleTable() *RoleTable {
	return &RoleTable{rules: map[Action]rule{
		ActionCreateOrder:   {roles: []Role{RoleWarehouse}},
		ActionUpdateOrder:   {roles: []Role{RoleWarehouse}, ownerOnly: true},
		ActionCancelOrder:   {roles: []Role{RoleWarehouse}, ownerOnly: true},
		ActionResubmitOrder: {roles: []Role{RoleWarehouse}, ownerOnly: true},
		ActionValidateOrder: {roles: []Role{RoleAccounting}},
		ActionRejectOrder:   {roles: []Role{RoleAccounting}},
		ActionReviseOrder:   {roles: []Role{RoleAccounting}},
		ActionListOrders:    {roles: []Role{RoleAccounting}},
		ActionListOwnOrders: {roles: []Role{RoleWarehouse}, ownerOnly: true},
		ActionOrderStats:    {roles: []Role{RoleAccounting, RoleManagement}},
		ActionOwnOrderStats: {roles: []Role{RoleWarehouse}, ownerOnly: true},

		ActionCreateProduct: {roles: []Role{RoleAccounting, RoleAdmin}},
		ActionPriceProduct:  {roles: []Role{RoleAccounting, RoleAdmin}},

		ActionStockInbound:  {roles: []Role{RoleWarehouse}},
		ActionStockOutbound: {roles: []Role{RoleWarehouse}},

		ActionReadJournal: {roles: []Role{RoleAdmin}},
		ActionManageUsers: {roles: []Role{RoleAdmin}},
	}}
}

func (t *RoleTable) CanPerform(actor Actor, action Action, resource Resource) bool {
	if actor.ID == uuid.Nil {
		return false
	}

	if action == ActionViewOrder {
		// owners see their own orders; accounting and admin see any
		return resource.OwnerID == actor.ID ||
			actor.Role == RoleAccounting ||
			actor.Role == RoleAdmin
	}

	r, ok := t.rules[action]
	if !ok {
		return false
	}

	allowed := false
	for _, role := range r.roles {
		if role == actor.Role {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	if r.ownerOnly && resource.OwnerID != actor.ID {
		return false
	}
	return true
}
