package sub

// SubType is a type in a sub-package.
type SubType struct {
	Value string
	Kept  int
}
