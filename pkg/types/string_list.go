package types

// StringList is a JSON-serialized list of strings, used for product images.
type StringList []string
