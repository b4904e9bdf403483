package domain

// Operation identifies a protected operation in the policy table.
type Operation string

const (
	OpReadUser   Operation = "user.read"
	OpListUsers  Operation = "user.list"
	OpUpdateUser Operation = "user.update"
	OpDeleteUser Operation = "user.delete"
	OpReadRole   Operation = "role.read"
	OpWriteRole  Operation = "role.write"
	OpAssignRole Operation = "role.assign"
)

// Rule decides whether caller may perform an operation on the user or
// resource identified by targetID (empty when the operation has no target).
type Rule func(caller Identity, targetID string) bool

func adminOnly(caller Identity, _ string) bool { return caller.IsAdmin() }

func selfOrAdmin(caller Identity, targetID string) bool {
	return caller.IsAdmin() || (targetID != "" && caller.UserID == targetID)
}

func anyActive(caller Identity, _ string) bool { return caller.IsActive }

// Policy maps every protected operation to its rule.
var Policy = map[Operation]Rule{
	OpReadUser:   selfOrAdmin,
	OpListUsers:  adminOnly,
	OpUpdateUser: selfOrAdmin,
	OpDeleteUser: adminOnly,
	OpReadRole:   anyActive,
	OpWriteRole:  adminOnly,
	OpAssignRole: adminOnly,
}

// Allowed evaluates the policy table. Unknown operations are denied.
func Allowed(caller Identity, op Operation, targetID string) bool {
	rule, ok := Policy[op]
	if !ok {
		return false
	}
	return rule(caller, targetID)
}
