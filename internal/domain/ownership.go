package domain

// CanMutate decides whether the caller may update or delete a resource.
// Only the identity that created a resource may mutate it.
func CanMutate(ownerID, callerID string) bool {
	return ownerID != "" && ownerID == callerID
}
