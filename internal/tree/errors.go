package tree

import "errors"

// Structural errors. The tolerant mutators never return these; they are
// reported by CanMove and Verify for callers that want to know why a
// mutation was a no-op or why a tree is malformed.
var (
	// ErrStepNotFound indicates that the addressed step does not exist.
	ErrStepNotFound = errors.New("step not found")

	// ErrParentNotFound indicates that the addressed parent step does not exist.
	ErrParentNotFound = errors.New("parent step not found")

	// ErrIllegalMove indicates that a re-parent would make a step its own
	// ancestor.
	ErrIllegalMove = errors.New("step cannot be moved under itself or its descendants")

	// ErrDuplicateID indicates that two steps in one goal share an id.
	ErrDuplicateID = errors.New("duplicate step id")

	// ErrParentMismatch indicates a step whose ParentID disagrees with its
	// position in the tree.
	ErrParentMismatch = errors.New("step parent id does not match tree position")

	// ErrDuplicateOrder indicates two siblings sharing an order value.
	ErrDuplicateOrder = errors.New("duplicate sibling order")
)
