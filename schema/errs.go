package schema

import "errors"

var (
	ErrBuild                 = errors.New("schema build error")
	ErrDuplicateCanonicalURI = errors.New("duplicate canonical URI")
	ErrDuplicateAnchorURI    = errors.New("duplicate anchor URI")
	ErrInvalidReference      = errors.New("invalid reference")
	ErrNotFound              = errors.New("schema not found")
)
