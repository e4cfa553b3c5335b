package jobs

import (
	"fmt"

	"fetchd/internal/services"
)

// SetFollowedBy records that completing parent spawned children. The list can
// be set once per parent; each child gets BelongsTo = parent. Links that would
// make a task its own ancestor are rejected and nothing is changed.
func (r *Registry) SetFollowedBy(parent GID, children []GID) error {
	p, err := r.Find(parent)
	if err != nil {
		return err
	}
	if len(p.FollowedBy) > 0 {
		return services.Wrap(services.ErrNotAllowed, "jobs", "set followed by",
			fmt.Sprintf("gid %s already has followers", parent), nil)
	}
	ancestors := r.ancestors(parent)
	kids := make([]*Task, 0, len(children))
	seen := make(map[GID]struct{}, len(children))
	for _, id := range children {
		if id == parent {
			return cycleError(parent, id)
		}
		if _, ok := ancestors[id]; ok {
			return cycleError(parent, id)
		}
		if _, dup := seen[id]; dup {
			return services.Wrap(services.ErrInvalidArgument, "jobs", "set followed by",
				fmt.Sprintf("gid %s listed twice", id), nil)
		}
		seen[id] = struct{}{}
		child, err := r.Find(id)
		if err != nil {
			return err
		}
		if child.BelongsTo != 0 && child.BelongsTo != parent {
			return services.Wrap(services.ErrNotAllowed, "jobs", "set followed by",
				fmt.Sprintf("gid %s already belongs to %s", id, child.BelongsTo), nil)
		}
		kids = append(kids, child)
	}
	p.FollowedBy = append([]GID(nil), children...)
	for _, child := range kids {
		child.BelongsTo = parent
	}
	return nil
}

// ancestors walks BelongsTo links upward through live and finished entries.
func (r *Registry) ancestors(id GID) map[GID]struct{} {
	out := make(map[GID]struct{})
	for cur := r.parentOf(id); cur != 0; cur = r.parentOf(cur) {
		if _, seen := out[cur]; seen {
			break
		}
		out[cur] = struct{}{}
	}
	return out
}

func (r *Registry) parentOf(id GID) GID {
	if t, err := r.Find(id); err == nil {
		return t.BelongsTo
	}
	if rec, ok := r.finished[id]; ok {
		return rec.BelongsTo
	}
	return 0
}

func cycleError(parent, child GID) error {
	return services.Wrap(services.ErrInvalidArgument, "jobs", "set followed by",
		fmt.Sprintf("linking %s under %s would create a cycle", child, parent), nil)
}
