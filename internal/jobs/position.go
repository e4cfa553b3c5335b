package jobs

import (
	"fmt"

	"fetchd/internal/services"
)

// Origin is the reference point of a ChangePosition offset.
type Origin int

const (
	OriginSet Origin = iota
	OriginCur
	OriginEnd
)

// ParseOrigin maps the wire keywords POS_SET, POS_CUR and POS_END.
func ParseOrigin(raw string) (Origin, error) {
	switch raw {
	case "POS_SET":
		return OriginSet, nil
	case "POS_CUR":
		return OriginCur, nil
	case "POS_END":
		return OriginEnd, nil
	default:
		return 0, services.Wrap(services.ErrValidation, "jobs", "change position",
			fmt.Sprintf("illegal origin %q", raw), nil)
	}
}

func (o Origin) String() string {
	switch o {
	case OriginSet:
		return "POS_SET"
	case OriginCur:
		return "POS_CUR"
	case OriginEnd:
		return "POS_END"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// ChangePosition moves a pending task relative to origin and returns its new
// index. Targets outside the sequence are clamped to the nearest end.
func (r *Registry) ChangePosition(id GID, offset int, origin Origin) (int, error) {
	cur := r.pendingIndex(id)
	if cur < 0 {
		return 0, services.Wrap(services.ErrInvalidArgument, "jobs", "change position",
			fmt.Sprintf("gid %s is not waiting", id), nil)
	}
	// Bound the offset first so the sums below cannot overflow.
	n := len(r.pending)
	if offset > n {
		offset = n
	} else if offset < -n {
		offset = -n
	}
	var target int
	switch origin {
	case OriginSet:
		target = offset
	case OriginCur:
		target = cur + offset
	case OriginEnd:
		target = n + offset
	default:
		return 0, services.Wrap(services.ErrInvalidArgument, "jobs", "change position",
			fmt.Sprintf("unknown origin %s", origin), nil)
	}
	if target < 0 {
		target = 0
	}
	if last := n - 1; target > last {
		target = last
	}
	if target == cur {
		return cur, nil
	}
	t := r.pending[cur]
	if target < cur {
		copy(r.pending[target+1:cur+1], r.pending[target:cur])
	} else {
		copy(r.pending[cur:target], r.pending[cur+1:target+1])
	}
	r.pending[target] = t
	return target, nil
}
