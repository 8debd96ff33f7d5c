package models

// TypeOption is a selectable value with a description.
type TypeOption struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}
