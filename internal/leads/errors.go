package leads

import "errors"

var (
	ErrDuplicate = errors.New("contact information already submitted for this conversation")
	ErrNotFound  = errors.New("contact not found")
	ErrForbidden = errors.New("admin access required")
)
