package models

// Call identifies who invokes a registry operation and at which height.
type Call struct {
	Caller Principal
	Height Height
}
