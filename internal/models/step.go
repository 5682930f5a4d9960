package models

// Step is a node in a goal's task tree. ParentID mirrors the structural
// parent and is nil for root-level steps.
type Step struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Completed   bool    `json:"completed"`
	ParentID    *string `json:"parentId,omitempty"`
	Children    []Step  `json:"children"`
	Order       int     `json:"order"`
}

// Clone returns a deep copy of s and its subtree.
func (s Step) Clone() Step {
	if s.ParentID != nil {
		p := *s.ParentID
		s.ParentID = &p
	}
	s.Children = cloneSteps(s.Children)
	return s
}

func cloneSteps(steps []Step) []Step {
	if steps == nil {
		return nil
	}
	out := make([]Step, len(steps))
	for i := range steps {
		out[i] = steps[i].Clone()
	}
	return out
}

// Step DTOs
type CreateStepRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId"`
}

type UpdateStepRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type ReorderStepRequest struct {
	Index    int     `json:"index"`
	ParentID *string `json:"parentId"`
}

type MoveStepRequest struct {
	ParentID *string `json:"parentId"`
}

type StepResponse struct {
	Goal    Goal   `json:"goal"`
	StepID  string `json:"stepId,omitempty"`
	Changed bool   `json:"changed"`
}
